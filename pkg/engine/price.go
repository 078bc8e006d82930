package engine

import (
	"sort"
	"strings"
)

// Direct price fields, in priority order. A record carrying one of these
// at top level is assumed to already be fuel-specific, so they win
// regardless of the selector.
var directPriceKeys = []string{"price", "ppl", "price_per_litre", "fuel_price"}

// Nested price containers, in priority order.
var priceContainerKeys = []string{"prices", "fuels", "fuel_prices", "price_list"}

// Label-ish and price-ish fields for list-shaped containers.
var (
	priceLabelKeys = []string{"label", "name", "type", "fuel", "grade", "key"}
	priceValueKeys = []string{"price", "ppl", "value"}
)

// fuelSynonyms maps canonical fuel categories to the alternate field
// names sources use for them.
var fuelSynonyms = map[string]map[string]bool{
	"unleaded":       {"e10": true, "ul": true, "unleaded": true, "petrol": true},
	"super_unleaded": {"e5": true, "super": true, "super_unleaded": true},
	"diesel":         {"b7": true, "d": true, "diesel": true},
	"premium_diesel": {"premium_diesel": true, "super_diesel": true},
}

// ExtractPrice attempts to locate a price for the requested fuel, or the
// cheapest available one when fuel is empty or has no match. Prices are
// returned in whatever unit the source reports; no cross-source unit
// reconciliation is performed, since the correct common unit is not
// knowable from the feeds. Non-numeric candidates are skipped, never
// fatal; a false return means the record carries no resolvable price.
func ExtractPrice(rec Record, fuel string) (float64, bool) {
	var fuelNorm string
	if fuel != "" {
		fuelNorm = normalizeKey(fuel)
	}

	for _, key := range directPriceKeys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if p, ok := toFloat(v); ok {
			return p, true
		}
	}

	for _, key := range priceContainerKeys {
		switch container := rec[key].(type) {
		case map[string]any:
			if p, ok := priceFromMapContainer(container, fuelNorm); ok {
				return p, true
			}
		case []any:
			if p, ok := priceFromListContainer(container, fuelNorm); ok {
				return p, true
			}
		}
	}

	// Selector-specific synonym scan over top-level numeric fields, e.g.
	// a "diesel" query matches fields literally named "b7" or "d".
	if syns, ok := fuelSynonyms[fuelNorm]; ok {
		for _, key := range sortedKeys(rec) {
			p, ok := asNumber(rec[key])
			if !ok {
				continue
			}
			if syns[normalizeKey(key)] {
				return p, true
			}
		}
	}

	// Last resort: generic price-like keys holding a number.
	for _, key := range sortedKeys(rec) {
		p, ok := asNumber(rec[key])
		if !ok {
			continue
		}
		if lower := strings.ToLower(key); lower == "ppl" || lower == "price" {
			return p, true
		}
	}

	return 0, false
}

// priceFromMapContainer reads a fuel-label to price mapping. An exact
// normalized match against the selector wins; otherwise the minimum
// numeric value in the container is the "cheapest available" fallback.
func priceFromMapContainer(container map[string]any, fuelNorm string) (float64, bool) {
	keys := make([]string, 0, len(container))
	for k := range container {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if fuelNorm != "" {
		for _, k := range keys {
			if normalizeKey(k) != fuelNorm {
				continue
			}
			if p, ok := toFloat(container[k]); ok {
				return p, true
			}
		}
	}

	var best float64
	found := false
	for _, k := range keys {
		p, ok := toFloat(container[k])
		if !ok {
			continue
		}
		if !found || p < best {
			best, found = p, true
		}
	}
	return best, found
}

// priceFromListContainer reads an ordered sequence of labeled price
// entries, e.g. [{"label": "E10", "price": 141.9}, ...].
func priceFromListContainer(items []any, fuelNorm string) (float64, bool) {
	if fuelNorm != "" {
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok || !labelMatches(entry, fuelNorm) {
				continue
			}
			if v := firstPresent(entry, priceValueKeys); v != nil {
				if p, ok := toFloat(v); ok {
					return p, true
				}
			}
		}
	}

	var best float64
	found := false
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range priceValueKeys {
			v, present := entry[key]
			if !present || v == nil {
				continue
			}
			p, ok := toFloat(v)
			if !ok {
				continue
			}
			if !found || p < best {
				best, found = p, true
			}
			break
		}
	}
	return best, found
}

func labelMatches(entry map[string]any, fuelNorm string) bool {
	for _, key := range priceLabelKeys {
		if s, ok := entry[key].(string); ok && normalizeKey(s) == fuelNorm {
			return true
		}
	}
	return false
}

func firstPresent(m map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
