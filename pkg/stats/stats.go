// Package stats provides read-only operational introspection of the shared
// Redis backend: health summaries, hit-rate and memory figures, per-domain
// key counts, and slow-operation logs.
//
// Key scans always use the backend's cursor-based SCAN, never a blocking
// full key listing, so introspection cannot stall production traffic. Every
// method degrades to an explicit error result; none panic on a backend
// hiccup.
package stats

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/keys"
	"github.com/hellen-edu/cachekit/pkg/logging"
)

// scanPageSize is the COUNT hint handed to SCAN.
const scanPageSize = 100

// domainPatterns lists the key domains reported by KeyBreakdown.
var domainPatterns = []string{
	"analysis",
	"lesson",
	"transcription",
	"bncc_score",
	"bullying_alerts",
	"user",
	"user_stats",
	"institution",
	"billing",
	"session",
	"lock",
	"rate_limit",
}

// Health is the reduced health summary returned by Stats.Health.
type Health struct {
	Status     string `json:"status"` // "healthy" or "unhealthy"
	KeyCount   int64  `json:"key_count"`
	MemoryUsed string `json:"memory_used,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Server aggregates the backend figures returned by Stats.Detailed.
type Server struct {
	HitRate           float64       `json:"hit_rate"` // percentage, 0-100
	KeyspaceHits      int64         `json:"keyspace_hits"`
	KeyspaceMisses    int64         `json:"keyspace_misses"`
	MemoryUsed        int64         `json:"memory_used_bytes"`
	MemoryPeak        int64         `json:"memory_peak_bytes"`
	MemoryRSS         int64         `json:"memory_rss_bytes"`
	FragmentationRate float64       `json:"fragmentation_ratio"`
	Uptime            time.Duration `json:"uptime"`
	ConnectedClients  int64         `json:"connected_clients"`
	OpsPerSecond      int64         `json:"ops_per_second"`
	TotalCommands     int64         `json:"total_commands"`
}

// TTLInfo describes a single key's expiry state.
type TTLInfo struct {
	Exists     bool          `json:"exists"`
	Persistent bool          `json:"persistent"` // exists with no expiry
	TTL        time.Duration `json:"ttl"`
}

// SlowEntry is one slow-operation log record.
type SlowEntry struct {
	ID       int64         `json:"id"`
	Time     time.Time     `json:"time"`
	Duration time.Duration `json:"duration"`
	Args     []string      `json:"args"`
}

// Stats reads backend introspection commands. It never writes.
type Stats struct {
	client *redis.Client
	ns     keys.Namespace
	log    *logging.Logger
}

// Options tune the stats reader. All fields are optional.
type Options struct {
	Prefix string
	Logger *logging.Logger
}

// New creates a Stats reader over the given Redis client.
func New(client *redis.Client, opts Options) *Stats {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Stats{
		client: client,
		ns:     keys.New(opts.Prefix),
		log:    log.WithComponent("stats"),
	}
}

// HealthCheck reduces PING, memory info, and key count to a single summary.
// Any failing step collapses the whole result to unhealthy with the reason.
func (s *Stats) HealthCheck(ctx context.Context) Health {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return Health{Status: "unhealthy", Error: err.Error()}
	}

	count, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return Health{Status: "unhealthy", Error: err.Error()}
	}

	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return Health{Status: "unhealthy", Error: err.Error()}
	}
	fields := parseInfo(info)

	return Health{
		Status:     "healthy",
		KeyCount:   count,
		MemoryUsed: fields["used_memory_human"],
	}
}

// Check implements the health.Checker interface.
func (s *Stats) Check(ctx context.Context) error {
	if h := s.HealthCheck(ctx); h.Status != "healthy" {
		return errors.NewTemporary("redis unhealthy", errors.NewPermanent(h.Error, nil))
	}
	return nil
}

// Detailed aggregates hit/miss counters into a hit-rate percentage plus
// memory, uptime, client, and throughput figures from INFO.
func (s *Stats) Detailed(ctx context.Context) (Server, error) {
	info, err := s.client.Info(ctx).Result()
	if err != nil {
		return Server{}, errors.NewTemporary("failed to read server info", err)
	}
	return parseServer(parseInfo(info)), nil
}

// KeyCount counts keys matching pattern (unprefixed, e.g. "user:*") by
// iterating the cursor-based scan until the cursor returns to its start.
func (s *Stats) KeyCount(ctx context.Context, pattern string) (int64, error) {
	match := s.ns.Pattern(pattern)
	var count int64
	var cursor uint64
	for {
		page, next, err := s.client.Scan(ctx, cursor, match, scanPageSize).Result()
		if err != nil {
			return 0, errors.NewTemporary("key scan failed", err)
		}
		count += int64(len(page))
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// KeyBreakdown counts keys per known domain pattern and returns a
// domain -> count map. Domains whose scan fails are reported as -1 so a
// partial backend failure stays visible without losing the rest.
func (s *Stats) KeyBreakdown(ctx context.Context) map[string]int64 {
	out := make(map[string]int64, len(domainPatterns))
	for _, domain := range domainPatterns {
		n, err := s.KeyCount(ctx, domain+":*")
		if err != nil {
			s.log.Warn().Err(err).Str(logging.Domain, domain).Msg("key breakdown scan failed")
			out[domain] = -1
			continue
		}
		out[domain] = n
	}
	return out
}

// ListKeys returns up to limit keys matching pattern, unprefixed. A zero or
// negative limit means 100.
func (s *Stats) ListKeys(ctx context.Context, pattern string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	match := s.ns.Pattern(pattern)
	out := make([]string, 0, limit)
	var cursor uint64
	for {
		page, next, err := s.client.Scan(ctx, cursor, match, scanPageSize).Result()
		if err != nil {
			return nil, errors.NewTemporary("key scan failed", err)
		}
		for _, k := range page {
			out = append(out, s.ns.Unprefix(k))
			if len(out) >= limit {
				return out, nil
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// MemoryUsage returns the backend's byte estimate for one key.
func (s *Stats) MemoryUsage(ctx context.Context, key string) (int64, error) {
	n, err := s.client.MemoryUsage(ctx, s.ns.Prefix(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, errors.NewNotFound("key", key)
		}
		return 0, errors.NewTemporary("memory usage read failed", err)
	}
	return n, nil
}

// TTLExpiry reports a key's expiry state.
func (s *Stats) TTLExpiry(ctx context.Context, key string) (TTLInfo, error) {
	d, err := s.client.PTTL(ctx, s.ns.Prefix(key)).Result()
	if err != nil {
		return TTLInfo{}, errors.NewTemporary("TTL read failed", err)
	}
	switch d {
	case -2:
		return TTLInfo{}, nil
	case -1:
		return TTLInfo{Exists: true, Persistent: true}, nil
	default:
		return TTLInfo{Exists: true, TTL: d}, nil
	}
}

// SlowLog returns the n most recent slow-operation entries.
func (s *Stats) SlowLog(ctx context.Context, n int) ([]SlowEntry, error) {
	if n <= 0 {
		n = 10
	}
	logs, err := s.client.SlowLogGet(ctx, int64(n)).Result()
	if err != nil {
		return nil, errors.NewTemporary("slowlog read failed", err)
	}
	out := make([]SlowEntry, 0, len(logs))
	for _, entry := range logs {
		out = append(out, SlowEntry{
			ID:       entry.ID,
			Time:     entry.Time,
			Duration: entry.Duration,
			Args:     entry.Args,
		})
	}
	return out, nil
}

// parseInfo splits an INFO reply into a flat field map. Section headers and
// blank lines are skipped.
func parseInfo(info string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(info, "\r\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			fields[k] = v
		}
	}
	return fields
}

// parseServer maps INFO fields into a Server summary. Absent or malformed
// fields simply stay zero.
func parseServer(fields map[string]string) Server {
	srv := Server{
		KeyspaceHits:      parseInt(fields["keyspace_hits"]),
		KeyspaceMisses:    parseInt(fields["keyspace_misses"]),
		MemoryUsed:        parseInt(fields["used_memory"]),
		MemoryPeak:        parseInt(fields["used_memory_peak"]),
		MemoryRSS:         parseInt(fields["used_memory_rss"]),
		ConnectedClients:  parseInt(fields["connected_clients"]),
		OpsPerSecond:      parseInt(fields["instantaneous_ops_per_sec"]),
		TotalCommands:     parseInt(fields["total_commands_processed"]),
		FragmentationRate: parseFloat(fields["mem_fragmentation_ratio"]),
		Uptime:            time.Duration(parseInt(fields["uptime_in_seconds"])) * time.Second,
	}
	if total := srv.KeyspaceHits + srv.KeyspaceMisses; total > 0 {
		srv.HitRate = float64(srv.KeyspaceHits) / float64(total) * 100
	}
	return srv
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
