package keys

import (
	"testing"
)

func TestNamespacePrefix(t *testing.T) {
	ns := New("hellen")

	t.Run("prefixes logical keys", func(t *testing.T) {
		got := ns.Prefix("analysis:123")
		if got != "hellen:analysis:123" {
			t.Errorf("Expected hellen:analysis:123, got %s", got)
		}
	})

	t.Run("unprefix inverts prefix", func(t *testing.T) {
		key := ns.Prefix("user:42")
		if got := ns.Unprefix(key); got != "user:42" {
			t.Errorf("Expected user:42, got %s", got)
		}
	})

	t.Run("unprefix returns unprefixed keys unchanged", func(t *testing.T) {
		if got := ns.Unprefix("other:key"); got != "other:key" {
			t.Errorf("Expected other:key, got %s", got)
		}
	})

	t.Run("unprefix strips only the first occurrence", func(t *testing.T) {
		key := ns.Prefix("hellen:nested")
		if got := ns.Unprefix(key); got != "hellen:nested" {
			t.Errorf("Expected hellen:nested, got %s", got)
		}
	})

	t.Run("empty prefix falls back to default", func(t *testing.T) {
		def := New("")
		if got := def.Prefix("x"); got != DefaultPrefix+":x" {
			t.Errorf("Expected %s:x, got %s", DefaultPrefix, got)
		}
	})

	t.Run("zero value uses default prefix", func(t *testing.T) {
		var zero Namespace
		if got := zero.Prefix("x"); got != DefaultPrefix+":x" {
			t.Errorf("Expected %s:x, got %s", DefaultPrefix, got)
		}
	})

	t.Run("pattern is prefixed", func(t *testing.T) {
		if got := ns.Pattern("user:*"); got != "hellen:user:*" {
			t.Errorf("Expected hellen:user:*, got %s", got)
		}
	})
}

func TestJoin(t *testing.T) {
	t.Run("joins parts with colons", func(t *testing.T) {
		if got := Join("lesson", "by_user", "7"); got != "lesson:by_user:7" {
			t.Errorf("Expected lesson:by_user:7, got %s", got)
		}
	})

	t.Run("filters empty parts", func(t *testing.T) {
		if got := Join("lesson", "", "7"); got != "lesson:7" {
			t.Errorf("Expected lesson:7, got %s", got)
		}
	})
}

func TestDomain(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"analysis:123", "analysis"},
		{"rate_limit:api:u1", "rate_limit"},
		{"bare", "bare"},
	}
	for _, tt := range tests {
		if got := Domain(tt.key); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"analysis", Analysis("123"), "analysis:123"},
		{"lesson", Lesson("9"), "lesson:9"},
		{"lessons by user", LessonsByUser("7"), "lesson:by_user:7"},
		{"transcription", Transcription("9"), "transcription:9"},
		{"bncc score", BNCCScore("9"), "bncc_score:9"},
		{"bullying alerts", BullyingAlerts("inst1"), "bullying_alerts:inst1"},
		{"user", User("7"), "user:7"},
		{"user stats", UserStats("7"), "user_stats:7"},
		{"institution", Institution("inst1"), "institution:inst1"},
		{"institution users", InstitutionUsers("inst1"), "institution:inst1:users"},
		{"billing", Billing("7"), "billing:7"},
		{"credit balance", CreditBalance("7"), "billing:7:credits"},
		{"session", Session("s1"), "session:s1"},
		{"lock", Lock("job:transcribe:abc"), "lock:job:transcribe:abc"},
		{"rate limit", RateLimit("api", "u1"), "rate_limit:api:u1"},
		{"login attempts", LoginAttempts("u1"), "rate_limit:login:u1"},
		{"login lockout", LoginLockout("u1"), "rate_limit:login_lockout:u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

// Different identities must never produce the same key.
func TestBuildersNeverCollide(t *testing.T) {
	seen := map[string]string{}
	entries := map[string]string{
		"user a":        User("a"),
		"user stats a":  UserStats("a"),
		"lesson a":      Lesson("a"),
		"analysis a":    Analysis("a"),
		"lock a":        Lock("a"),
		"rate limit a":  RateLimit("api", "a"),
		"login a":       LoginAttempts("a"),
		"lockout a":     LoginLockout("a"),
		"billing a":     Billing("a"),
		"credits a":     CreditBalance("a"),
		"institution a": Institution("a"),
	}
	for name, key := range entries {
		if prev, dup := seen[key]; dup {
			t.Errorf("%s and %s collide on %q", name, prev, key)
		}
		seen[key] = name
	}
}
