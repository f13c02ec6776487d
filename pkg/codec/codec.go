// Package codec bridges native Go values and the byte-oriented cache backend.
// Every encoded value carries a 2-byte ASCII tag that fully determines the
// decode strategy:
//
//	r:  scalar values in canonical text form ("null", "true", decimal text)
//	j:  structured values as JSON, normalized on encode
//	e:  opaque msgpack fallback for values JSON cannot represent
//
// Untagged legacy values fall back to a best-effort JSON-then-raw decode.
// Decode never fails outright: the worst case logs a warning and returns the
// raw payload bytes, so a corrupt cache entry can never crash a caller.
package codec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hellen-edu/cachekit/pkg/errors"
	"github.com/hellen-edu/cachekit/pkg/logging"
)

// Value tags. Exactly two bytes each.
const (
	TagRaw    = "r:"
	TagJSON   = "j:"
	TagBinary = "e:"
)

// Codec encodes and decodes cache values.
type Codec struct {
	log *logging.Logger
}

// New creates a Codec. A nil logger disables decode-failure warnings.
func New(log *logging.Logger) *Codec {
	if log == nil {
		log = logging.Nop()
	}
	return &Codec{log: log.WithComponent("codec")}
}

// Encode converts a value into its tagged byte representation.
//
// Scalars (nil, booleans, integers, floats, strings) use the raw tag with a
// canonical textual form. Everything else is normalized (metadata fields
// stripped, timestamps to RFC 3339 strings) and JSON-encoded. Values JSON
// cannot represent fall back to msgpack under the binary tag; only a value
// that neither encoder accepts produces an error.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte(TagRaw + "null"), nil
	}

	switch val := v.(type) {
	case bool:
		return []byte(TagRaw + strconv.FormatBool(val)), nil
	case string:
		return []byte(TagRaw + val), nil
	case int:
		return []byte(TagRaw + strconv.FormatInt(int64(val), 10)), nil
	case int8:
		return []byte(TagRaw + strconv.FormatInt(int64(val), 10)), nil
	case int16:
		return []byte(TagRaw + strconv.FormatInt(int64(val), 10)), nil
	case int32:
		return []byte(TagRaw + strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(TagRaw + strconv.FormatInt(val, 10)), nil
	case uint:
		return []byte(TagRaw + strconv.FormatUint(uint64(val), 10)), nil
	case uint8:
		return []byte(TagRaw + strconv.FormatUint(uint64(val), 10)), nil
	case uint16:
		return []byte(TagRaw + strconv.FormatUint(uint64(val), 10)), nil
	case uint32:
		return []byte(TagRaw + strconv.FormatUint(uint64(val), 10)), nil
	case uint64:
		return []byte(TagRaw + strconv.FormatUint(val, 10)), nil
	case float32:
		return []byte(TagRaw + strconv.FormatFloat(float64(val), 'g', -1, 64)), nil
	case float64:
		return []byte(TagRaw + strconv.FormatFloat(val, 'g', -1, 64)), nil
	}

	normalized := Normalize(v)
	data, err := json.Marshal(normalized)
	if err == nil {
		return append([]byte(TagJSON), data...), nil
	}

	// JSON refused the value; keep it rather than lose it.
	packed, perr := msgpack.Marshal(v)
	if perr != nil {
		return nil, errors.NewPermanent("value not encodable as JSON or msgpack", perr)
	}
	return append([]byte(TagBinary), packed...), nil
}

// Decode converts tagged bytes back into a value. It always returns something
// usable; decode failures are logged and degrade to the raw payload.
//
// Integers decode as int64 and floats as float64, including inside JSON
// payloads (JSON numbers without a fractional part are restored to int64
// rather than collapsing to float64).
func (c *Codec) Decode(data []byte) interface{} {
	if len(data) < 2 {
		return c.decodeLegacy(data)
	}

	switch string(data[:2]) {
	case TagRaw:
		return decodeRaw(string(data[2:]))
	case TagJSON:
		v, err := decodeJSON(data[2:])
		if err != nil {
			c.log.Warn().Err(err).Msg("tagged JSON payload failed to decode, returning raw bytes")
			return data[2:]
		}
		return RestoreKnownFields(v)
	case TagBinary:
		var v interface{}
		// Unmarshalling into interface{} only ever produces maps, slices and
		// scalars; no caller-visible types are constructed from the payload.
		if err := msgpack.Unmarshal(data[2:], &v); err != nil {
			c.log.Warn().Err(err).Msg("tagged msgpack payload failed to decode, returning raw bytes")
			return data[2:]
		}
		return v
	default:
		return c.decodeLegacy(data)
	}
}

// decodeLegacy handles values written before tagging was introduced.
func (c *Codec) decodeLegacy(data []byte) interface{} {
	if len(data) == 0 {
		return data
	}
	if v, err := decodeJSON(data); err == nil {
		return RestoreKnownFields(v)
	}
	return data
}

// decodeRaw parses the canonical textual form of a scalar.
func decodeRaw(s string) interface{} {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// decodeJSON decodes with json.Number so integers survive the round trip.
func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return restoreNumbers(v), nil
}

// restoreNumbers walks a decoded JSON tree converting json.Number to int64
// when integral and float64 otherwise.
func restoreNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]interface{}:
		for k, item := range val {
			val[k] = restoreNumbers(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = restoreNumbers(item)
		}
		return val
	default:
		return v
	}
}
