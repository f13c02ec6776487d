// Package invalidate maps domain events to the cache keys they stale.
//
// Instead of ad hoc invalidation functions calling each other in chains, the
// full fan-out of every event is declared once in a static table: raising an
// event deletes exactly the keys the table names, and the table is the single
// place to read or change what an event invalidates.
//
// Example usage:
//
//	inv := invalidate.New(client, invalidate.Options{Prefix: "hellen"})
//	if err := inv.On(ctx, invalidate.UserUpdated, userID); err != nil {
//	    log.Warn().Err(err).Msg("cache invalidation failed")
//	}
package invalidate

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/keys"
	"github.com/hellen-edu/cachekit/pkg/logging"
)

// Event names a domain change that stales cached state.
type Event string

// Domain events. The ID an event carries is the entity named by the event:
// a user ID for user and billing events, a lesson ID for lesson events, an
// institution ID for institution events.
const (
	UserUpdated        Event = "user_updated"
	CreditChanged      Event = "credit_changed"
	LessonCreated      Event = "lesson_created"
	LessonAnalyzed     Event = "lesson_analyzed"
	InstitutionChanged Event = "institution_changed"
	BillingChanged     Event = "billing_changed"
)

// keyBuilder produces one logical key to invalidate for an event's entity ID.
type keyBuilder func(id string) string

// table is the static event -> keys-to-invalidate mapping.
var table = map[Event][]keyBuilder{
	UserUpdated: {
		keys.User,
		keys.UserStats,
		keys.LessonsByUser,
	},
	CreditChanged: {
		keys.CreditBalance,
		keys.Billing,
		keys.UserStats,
	},
	LessonCreated: {
		keys.LessonsByUser,
		keys.UserStats,
	},
	LessonAnalyzed: {
		keys.Lesson,
		keys.Analysis,
		keys.Transcription,
		keys.BNCCScore,
	},
	InstitutionChanged: {
		keys.Institution,
		keys.InstitutionUsers,
		keys.BullyingAlerts,
	},
	BillingChanged: {
		keys.Billing,
		keys.CreditBalance,
	},
}

// Keys returns the logical keys event invalidates for id, in table order.
func Keys(event Event, id string) []string {
	builders := table[event]
	out := make([]string, 0, len(builders))
	for _, build := range builders {
		out = append(out, build(id))
	}
	return out
}

// Invalidator deletes the key sets declared in the event table.
type Invalidator struct {
	client *redis.Client
	ns     keys.Namespace
	log    *logging.Logger
}

// Options tune the invalidator. All fields are optional.
type Options struct {
	Prefix string
	Logger *logging.Logger
}

// New creates an Invalidator over the given Redis client.
func New(client *redis.Client, opts Options) *Invalidator {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Invalidator{
		client: client,
		ns:     keys.New(opts.Prefix),
		log:    log.WithComponent("invalidate"),
	}
}

// On deletes every key the table declares for (event, id) in one DEL.
// Unknown events are an InvalidInputError rather than a silent no-op.
func (i *Invalidator) On(ctx context.Context, event Event, id string) error {
	logical := Keys(event, id)
	if len(logical) == 0 {
		return errors.NewInvalidInput("event", "unknown event "+string(event))
	}

	prefixed := make([]string, len(logical))
	for n, k := range logical {
		prefixed[n] = i.ns.Prefix(k)
	}

	if err := i.client.Del(ctx, prefixed...).Err(); err != nil {
		return errors.NewTemporary("cache invalidation failed", err)
	}
	i.log.Debug().
		Str("event", string(event)).
		Str(logging.Identifier, id).
		Int("keys", len(prefixed)).
		Msg("cache keys invalidated")
	return nil
}
