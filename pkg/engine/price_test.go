package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		fuel string
		want float64
		ok   bool
	}{
		{
			name: "direct price field",
			rec:  Record{"price": 141.9},
			want: 141.9,
			ok:   true,
		},
		{
			name: "direct price wins over selector",
			// A single top-level price is assumed fuel-specific already.
			rec:  Record{"price": 141.9, "prices": map[string]any{"B7": 145.2}},
			fuel: "b7",
			want: 141.9,
			ok:   true,
		},
		{
			name: "direct price as numeric string",
			rec:  Record{"ppl": "139.9"},
			want: 139.9,
			ok:   true,
		},
		{
			name: "direct field priority order",
			rec:  Record{"price_per_litre": 150.0, "ppl": 139.9},
			want: 139.9,
			ok:   true,
		},
		{
			name: "prices map with selector",
			rec:  Record{"prices": map[string]any{"E10": 141.9, "B7": 145.2}},
			fuel: "e10",
			want: 141.9,
			ok:   true,
		},
		{
			name: "selector match is case and space insensitive",
			rec:  Record{"fuels": map[string]any{"Super Unleaded": 155.4, "B7": 145.2}},
			fuel: "super_unleaded",
			want: 155.4,
			ok:   true,
		},
		{
			name: "prices map without selector returns minimum",
			rec:  Record{"prices": map[string]any{"E10": 141.9, "B7": 145.2, "E5": 153.0}},
			want: 141.9,
			ok:   true,
		},
		{
			name: "unparsable selector match falls back to minimum",
			rec:  Record{"prices": map[string]any{"E10": "bad", "B7": 145.2}},
			fuel: "e10",
			want: 145.2,
			ok:   true,
		},
		{
			name: "map with only junk values",
			rec:  Record{"prices": map[string]any{"E10": "bad"}},
			ok:   false,
		},
		{
			name: "list container with selector",
			rec: Record{"price_list": []any{
				map[string]any{"label": "E10", "price": 141.9},
				map[string]any{"label": "B7", "price": 145.2},
			}},
			fuel: "B7",
			want: 145.2,
			ok:   true,
		},
		{
			name: "list container without selector returns minimum",
			rec: Record{"fuel_prices": []any{
				map[string]any{"type": "E5", "value": 153.0},
				map[string]any{"type": "E10", "value": 141.9},
				"not-an-entry",
			}},
			want: 141.9,
			ok:   true,
		},
		{
			name: "selector miss in container falls back to minimum",
			rec:  Record{"prices": map[string]any{"E10": 141.9, "B7": 145.2}},
			fuel: "lpg",
			want: 141.9,
			ok:   true,
		},
		{
			name: "diesel synonym field",
			rec:  Record{"b7": 145.2, "site_name": "Somewhere"},
			fuel: "diesel",
			want: 145.2,
			ok:   true,
		},
		{
			name: "unleaded synonym field",
			rec:  Record{"petrol": 141.9},
			fuel: "Unleaded",
			want: 141.9,
			ok:   true,
		},
		{
			name: "synonym scan ignores numeric strings",
			rec:  Record{"b7": "145.2"},
			fuel: "diesel",
			ok:   false,
		},
		{
			name: "generic key last resort",
			rec:  Record{"PPL": 139.9, "name": "station"},
			want: 139.9,
			ok:   true,
		},
		{
			name: "container itself malformed",
			rec:  Record{"prices": "145.2p"},
			ok:   false,
		},
		{
			name: "no price anywhere",
			rec:  Record{"name": "station", "lat": 51.5},
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
			got, ok := ExtractPrice(tt.rec, tt.fuel)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractPriceContainerPriority(t *testing.T) {
	// "prices" outranks "fuels" even when "fuels" holds a cheaper value.
	rec := Record{
		"fuels":  map[string]any{"E10": 130.0},
		"prices": map[string]any{"E10": 141.9},
	}
	got, ok := ExtractPrice(rec, "")
	require.True(t, ok)
	assert.Equal(t, 141.9, got)
}
