package codec

import (
	"time"
)

// knownTimeFields is the fixed allow-list of well-known field names whose
// values are restored from RFC 3339 strings to time.Time on decode. Field
// names outside this set stay as plain strings; the list is deliberately
// static and bounded so decoding untrusted payloads can never grow it.
var knownTimeFields = map[string]struct{}{
	"inserted_at":    {},
	"updated_at":     {},
	"created_at":     {},
	"deleted_at":     {},
	"analyzed_at":    {},
	"transcribed_at": {},
	"expires_at":     {},
	"date":           {},
}

// IsKnownTimeField reports whether decode restores the named field to time.Time.
func IsKnownTimeField(name string) bool {
	_, ok := knownTimeFields[name]
	return ok
}

// RestoreKnownFields walks a decoded JSON tree and restores values of
// well-known timestamp fields to time.Time. All map keys remain strings;
// nothing outside the allow-list is touched.
func RestoreKnownFields(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			if _, known := knownTimeFields[k]; known {
				if s, ok := item.(string); ok {
					if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
						val[k] = t
						continue
					}
				}
			}
			val[k] = RestoreKnownFields(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = RestoreKnownFields(item)
		}
		return val
	default:
		return v
	}
}
