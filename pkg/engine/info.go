package engine

// Candidate fields per display attribute, first present wins.
var (
	nameKeys    = []string{"name", "station", "site_name", "retailer"}
	brandKeys   = []string{"brand", "retailer", "company"}
	addressKeys = []string{"address", "addr", "street_address", "location_name", "postcode", "postal_code"}
)

// BasicInfo holds best-effort display fields. Purely cosmetic: it never
// affects ranking or inclusion.
type BasicInfo struct {
	Name    string
	Brand   string
	Address string
}

// ExtractBasicInfo pulls display fields out of a record. Missing or
// non-string candidates leave the attribute empty.
func ExtractBasicInfo(rec Record) BasicInfo {
	return BasicInfo{
		Name:    firstString(rec, nameKeys),
		Brand:   firstString(rec, brandKeys),
		Address: firstString(rec, addressKeys),
	}
}

func firstString(m map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
