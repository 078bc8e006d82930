package engine

import "strings"

// Candidate field names per axis, tried in order. The capitalized
// variants are deliberate: sources disagree on casing.
var (
	latKeys = []string{"lat", "latitude", "Lat", "Latitude"}
	lonKeys = []string{"lon", "lng", "longitude", "Long", "Longitude"}

	// Sub-objects that commonly hold coordinate data.
	nestedLocationKeys = []string{"location", "coords", "geo", "position", "geoPoint"}

	// Keys holding a coordinate pair, as an object or an ordered pair.
	coordinatePairKeys = []string{"coordinates", "coord"}
)

// ExtractLatLon attempts to locate a latitude/longitude pair in a record.
// The axes resolve independently: each candidate source only fills in the
// axis still missing, so latitude and longitude may come from different
// places. A record missing either axis after all candidates yields no
// coordinate.
func ExtractLatLon(rec Record) (LatLon, bool) {
	lat := firstFloat(rec, latKeys)
	lon := firstFloat(rec, lonKeys)

	if lat == nil || lon == nil {
		for _, key := range nestedLocationKeys {
			nested, ok := rec[key].(map[string]any)
			if !ok {
				continue
			}
			if lat == nil {
				lat = firstFloat(nested, latKeys)
			}
			if lon == nil {
				lon = firstFloat(nested, lonKeys)
			}
		}
	}

	if lat == nil || lon == nil {
		lat, lon = fromCoordinatePair(rec, lat, lon)
	}

	// String form "latitude,longitude".
	if lat == nil || lon == nil {
		if s, ok := rec["latlng"].(string); ok {
			lat, lon = fromLatLngString(s, lat, lon)
		}
	}

	if lat == nil || lon == nil {
		return LatLon{}, false
	}
	return LatLon{Lat: *lat, Lon: *lon}, true
}

// fromCoordinatePair reads the first present pair-like key. An object
// pair is probed by field name; a two-element ordered pair is
// disambiguated by validity range. When both orders are individually
// plausible the pair is read as (lat, lon) - a heuristic inherited from
// upstream sources, not a verified contract.
func fromCoordinatePair(rec Record, lat, lon *float64) (*float64, *float64) {
	var pair any
	for _, key := range coordinatePairKeys {
		if v, ok := rec[key]; ok && v != nil {
			pair = v
			break
		}
	}

	switch p := pair.(type) {
	case map[string]any:
		if lat == nil {
			lat = firstFloat(p, []string{"lat", "latitude"})
		}
		if lon == nil {
			lon = firstFloat(p, []string{"lon", "lng", "longitude"})
		}
	case []any:
		if len(p) != 2 {
			return lat, lon
		}
		a, okA := toFloat(p[0])
		b, okB := toFloat(p[1])
		if !okA || !okB {
			return lat, lon
		}
		switch {
		case validLat(a) && validLon(b):
			lat, lon = fillAxis(lat, a), fillAxis(lon, b)
		case validLat(b) && validLon(a):
			lat, lon = fillAxis(lat, b), fillAxis(lon, a)
		}
	}
	return lat, lon
}

func fromLatLngString(s string, lat, lon *float64) (*float64, *float64) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return lat, lon
	}
	a, okA := toFloat(parts[0])
	b, okB := toFloat(parts[1])
	if !okA || !okB {
		return lat, lon
	}
	return fillAxis(lat, a), fillAxis(lon, b)
}

func fillAxis(axis *float64, v float64) *float64 {
	if axis != nil {
		return axis
	}
	return &v
}

func validLat(v float64) bool { return v >= -90 && v <= 90 }

func validLon(v float64) bool { return v >= -180 && v <= 180 }
