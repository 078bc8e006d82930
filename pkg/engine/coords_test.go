package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLatLon(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want LatLon
		ok   bool
	}{
		{
			name: "direct lat lon",
			rec:  Record{"lat": 51.5, "lon": -0.1},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "capitalized variants",
			rec:  Record{"Latitude": 51.5, "Long": -0.1},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "numeric strings with comma decimals",
			rec:  Record{"lat": "40,4168", "lng": "-3,7038"},
			want: LatLon{40.4168, -3.7038},
			ok:   true,
		},
		{
			name: "nested location object",
			rec:  Record{"location": map[string]any{"latitude": 51.5, "longitude": -0.1}},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "nested geoPoint object",
			rec:  Record{"geoPoint": map[string]any{"latitude": 53.4, "longitude": -2.2}},
			want: LatLon{53.4, -2.2},
			ok:   true,
		},
		{
			name: "axes from different sources",
			rec:  Record{"lat": 51.5, "position": map[string]any{"lng": -0.1}},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "coordinates object",
			rec:  Record{"coordinates": map[string]any{"lat": 51.5, "lng": -0.1}},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "coordinates pair in lat lon order",
			rec:  Record{"coordinates": []any{51.5, -0.1}},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "ambiguous pair prefers lat lon order",
			rec:  Record{"coordinates": []any{-0.1, 51.5}},
			// Both orders are individually plausible here, so the pair is
			// read as (lat, lon).
			want: LatLon{-0.1, 51.5},
			ok:   true,
		},
		{
			name: "reversed pair disambiguated by range",
			rec:  Record{"coord": []any{151.2, -33.8}},
			want: LatLon{-33.8, 151.2},
			ok:   true,
		},
		{
			name: "latlng string",
			rec:  Record{"latlng": "51.5,-0.1"},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "latlng string with spaces",
			rec:  Record{"latlng": " 51.5 , -0.1 "},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "latitude only",
			rec:  Record{"lat": 51.5},
			ok:   false,
		},
		{
			name: "malformed value falls through to next candidate",
			rec:  Record{"lat": "not-a-number", "latitude": 51.5, "lon": -0.1},
			want: LatLon{51.5, -0.1},
			ok:   true,
		},
		{
			name: "pair with unparsable element",
			rec:  Record{"coordinates": []any{"x", -0.1}},
			ok:   false,
		},
		{
			name: "pair with wrong length",
			rec:  Record{"coordinates": []any{51.5, -0.1, 12.0}},
			ok:   false,
		},
		{
			name: "nested value of wrong type",
			rec:  Record{"location": "51.5,-0.1"},
			ok:   false,
		},
		{
			name: "empty record",
			rec:  Record{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractLatLon(tt.rec)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractLatLonRejectsNonFinite(t *testing.T) {
	_, ok := ExtractLatLon(Record{"lat": "NaN", "lon": -0.1})
	assert.False(t, ok)
	_, ok = ExtractLatLon(Record{"lat": "Inf", "lon": -0.1})
	assert.False(t, ok)
}
