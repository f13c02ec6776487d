package codec

import (
	"time"
)

// metadataFields are ORM bookkeeping fields stripped from structured records
// before they are cached. They carry no value for readers and some (loaded
// association state, credentials) must never reach a shared store.
var metadataFields = map[string]struct{}{
	"__meta__":      {},
	"__struct__":    {},
	"password":      {},
	"password_hash": {},
}

// Normalize prepares a structured value for JSON encoding: metadata fields
// are stripped, timestamps become RFC 3339 strings, and nested maps/slices
// are normalized recursively. Scalars pass through unchanged.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if _, stripped := metadataFields[k]; stripped {
				continue
			}
			out[k] = Normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

// IsMetadataField reports whether a field name is stripped during Normalize.
func IsMetadataField(name string) bool {
	_, ok := metadataFields[name]
	return ok
}
