package ranking

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// metaString returns meta[key] when it is a non-empty string.
func metaString(meta map[string]interface{}, key string) (string, bool) {
	v, ok := meta[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// metaFloat reads a numeric metadata value. Numeric strings are accepted.
func metaFloat(meta map[string]interface{}, key string) (float64, bool) {
	v, ok := meta[key]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// metaTime reads a timestamp: unix seconds (number or numeric string), RFC3339 or time.Time.
// Zero and negative timestamps count as missing.
func metaTime(meta map[string]interface{}, key string) (time.Time, bool) {
	v, ok := meta[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t)); err == nil {
			return parsed, true
		}
	}
	secs, ok := metaFloat(meta, key)
	if !ok || secs <= 0 {
		return time.Time{}, false
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), true
}
