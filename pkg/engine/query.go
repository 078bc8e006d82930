package engine

import (
	"errors"
	"math"
	"sort"
)

// DefaultLimit is the result count used when a query does not specify one.
const DefaultLimit = 5

// displayPrecision is the decimal precision applied to price and distance
// in results.
const displayPrecision = 3

// ErrEmptySnapshot reports that the input record set itself was empty.
// This is distinct from every record being filtered out during
// extraction: an empty snapshot points at an upstream data-availability
// problem, an empty result at an extraction gap or a strict query.
var ErrEmptySnapshot = errors.New("snapshot contains no records")

// Result is one ranked entry: a record enriched with its resolved
// coordinate, resolved price and computed distance to the query origin.
// Results live for the duration of one query only.
type Result struct {
	Name       string  `json:"name,omitempty"`
	Brand      string  `json:"brand,omitempty"`
	Address    string  `json:"address,omitempty"`
	Price      float64 `json:"price"`
	DistanceKm float64 `json:"distance_km"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	// Raw is the original source record, kept for transparency.
	Raw Record `json:"raw"`
}

// ClosestCheapest ranks records by price ascending, breaking ties by
// distance to the origin ascending, and returns at most limit results.
// Records whose coordinate or price cannot be resolved are silently
// excluded; one malformed record never affects another. A limit below 1
// is treated as 1.
//
// The sort is stable and compares full-precision values; the 3-decimal
// display rounding is applied only after the ranking is fixed, so ties
// are never decided on rounded values and repeated queries over the same
// snapshot return identical ordering.
func ClosestCheapest(records []Record, origin LatLon, fuel string, limit int) ([]Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptySnapshot
	}
	if limit < 1 {
		limit = 1
	}

	enriched := make([]Result, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		coord, ok := ExtractLatLon(rec)
		if !ok {
			continue
		}
		price, ok := ExtractPrice(rec, fuel)
		if !ok {
			continue
		}

		info := ExtractBasicInfo(rec)
		enriched = append(enriched, Result{
			Name:       info.Name,
			Brand:      info.Brand,
			Address:    info.Address,
			Price:      price,
			DistanceKm: HaversineKm(origin, coord),
			Lat:        coord.Lat,
			Lon:        coord.Lon,
			Raw:        rec,
		})
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		if enriched[i].Price != enriched[j].Price {
			return enriched[i].Price < enriched[j].Price
		}
		return enriched[i].DistanceKm < enriched[j].DistanceKm
	})

	if len(enriched) > limit {
		enriched = enriched[:limit]
	}
	for i := range enriched {
		enriched[i].Price = roundTo(enriched[i].Price, displayPrecision)
		enriched[i].DistanceKm = roundTo(enriched[i].DistanceKm, displayPrecision)
	}
	return enriched, nil
}

func roundTo(f float64, decimalPlaces int) float64 {
	factor := math.Pow(10, float64(decimalPlaces))
	return math.Round(f*factor) / factor
}
