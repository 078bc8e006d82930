// Package engine normalizes heterogeneous fuel price feeds into generic
// records and answers proximity/price queries against them.
//
// Every function in this package is pure: it reads decoded JSON values,
// performs no I/O and never panics on malformed input. Anything an
// extractor cannot interpret is treated as not-found and the next
// candidate source is tried.
package engine

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is a single station/location entry as reported by an arbitrary
// upstream source. There is no schema contract: keys, nesting and value
// types vary per retailer. The engine only reads records.
type Record map[string]any

// LatLon is a pair of WGS84 coordinates in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// normalizeKey lower-cases, trims and underscores a label so fuel names
// like "Super Unleaded" and "super_unleaded" compare equal.
func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// toFloat coerces a decoded JSON value to a finite float64. Strings are
// parsed after replacing a single decimal comma with a dot; some feeds
// report comma-decimal numbers.
func toFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.Replace(strings.TrimSpace(val), ",", ".", 1)
		parsed, err := strconv.ParseFloat(s, 64)
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

// asNumber is the strict variant of toFloat: only true JSON numbers
// qualify, numeric strings do not.
func asNumber(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return toFloat(v)
	}
	return 0, false
}

// firstFloat returns the first candidate key whose value coerces to a
// finite number. Unparsable values are skipped, not fatal.
func firstFloat(m map[string]any, keys []string) *float64 {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if f, ok := toFloat(v); ok {
			return &f
		}
	}
	return nil
}

// sortedKeys returns the record's keys in lexical order so scans over a
// record are deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
