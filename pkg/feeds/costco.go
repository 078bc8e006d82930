package feeds

import (
	"strings"

	"github.com/shopspring/decimal"
)

// costcoFuelCodes maps Costco's numeric fuel codes to standard labels.
var costcoFuelCodes = map[string]string{
	"5301": "E10",
	"5302": "E5",
	"5303": "B7",
}

var hundred = decimal.NewFromInt(100)

// normalizeCostco converts Costco's {"stores": [...]} payload into the
// standard {"stations": [...]} shape the other retailers use. Costco
// reports pounds where the rest of the feeds report pence, so prices are
// converted to integer pence; decimal arithmetic avoids drift on money.
// Unrecognized shapes are passed through untouched.
func normalizeCostco(data any) any {
	doc, ok := data.(map[string]any)
	if !ok {
		return data
	}
	stores, ok := doc["stores"].([]any)
	if !ok {
		return data
	}

	stations := make([]any, 0, len(stores))
	for _, item := range stores {
		store, ok := item.(map[string]any)
		if !ok {
			continue
		}
		gasTypes, ok := store["gasTypes"].([]any)
		if !ok || len(gasTypes) == 0 {
			continue
		}

		prices := make(map[string]any)
		for _, gt := range gasTypes {
			entry, ok := gt.(map[string]any)
			if !ok {
				continue
			}
			code, _ := entry["name"].(string)
			label, ok := costcoFuelCodes[code]
			if !ok {
				continue
			}
			priceStr, ok := entry["price"].(string)
			if !ok || priceStr == "" {
				priceStr = "0"
			}
			pounds, err := decimal.NewFromString(priceStr)
			if err != nil {
				continue
			}
			prices[label] = pounds.Mul(hundred).IntPart()
		}
		if len(prices) == 0 {
			continue
		}

		name, _ := store["name"].(string)
		stations = append(stations, map[string]any{
			"site_name": name,
			"address":   costcoAddress(store),
			"location": map[string]any{
				"latitude":  geoField(store, "latitude"),
				"longitude": geoField(store, "longitude"),
			},
			"prices": prices,
		})
	}

	return map[string]any{"stations": stations}
}

func costcoAddress(store map[string]any) string {
	addr, _ := store["address"].(map[string]any)

	var parts []string
	for _, key := range []string{"line1", "line2", "town", "postalCode"} {
		if s, ok := addr[key].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func geoField(store map[string]any, key string) any {
	geo, _ := store["geoPoint"].(map[string]any)
	return geo[key]
}
