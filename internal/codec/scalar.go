package codec

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt coerces the integer-ish shapes that show up in stored documents:
// native ints, floats (truncated), json.Number, and digit strings. Anything
// else falls back to def.
func asInt(v any, def int64) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
		return def
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return def
	default:
		return def
	}
}

// asTime decodes the timestamp shapes a document may carry, tried in a fixed
// order: a store-native timestamp (already a time.Time by the time the driver
// hands it over), an ISO-8601 string, then an epoch-milliseconds number.
// Unreadable values decode to nil, never an error.
func asTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case *time.Time:
		if t == nil {
			return nil
		}
		u := t.UTC()
		return &u
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			u := ts.UTC()
			return &u
		}
		return nil
	case int64:
		return fromEpochMillis(t)
	case int:
		return fromEpochMillis(int64(t))
	case float64:
		return fromEpochMillis(int64(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return fromEpochMillis(i)
		}
		return nil
	default:
		return nil
	}
}

func fromEpochMillis(ms int64) *time.Time {
	u := time.UnixMilli(ms).UTC()
	return &u
}
