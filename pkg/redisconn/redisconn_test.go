package redisconn

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/hellen-edu/cachekit/pkg/config"
	"github.com/hellen-edu/cachekit/pkg/errors"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("connects and pings", func(t *testing.T) {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("Failed to start miniredis: %v", err)
		}
		t.Cleanup(mr.Close)

		host, portStr, _ := strings.Cut(mr.Addr(), ":")
		port, _ := strconv.Atoi(portStr)

		client, err := New(ctx, config.RedisConfig{Host: host, Port: port})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		t.Cleanup(func() { client.Close() })

		if err := client.Set(ctx, "probe", "1", 0).Err(); err != nil {
			t.Errorf("Client is not usable: %v", err)
		}
	})

	t.Run("unreachable backend is temporary", func(t *testing.T) {
		// A closed miniredis leaves a port nothing listens on.
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("Failed to start miniredis: %v", err)
		}
		host, portStr, _ := strings.Cut(mr.Addr(), ":")
		port, _ := strconv.Atoi(portStr)
		mr.Close()

		_, err = New(ctx, config.RedisConfig{Host: host, Port: port})
		if !errors.IsTemporary(err) {
			t.Errorf("Expected temporary error, got %v", err)
		}
	})
}
