package engine

// Known list-container keys inside a per-source payload.
var payloadListKeys = []string{"stations", "stores", "locations"}

// Known list-container keys at the top level. "results" is listed for
// completeness; the envelope branch consumes every case where it holds a
// list, so this entry only documents the shape.
var topLevelListKeys = []string{"stations", "stores", "locations", "data", "results"}

// Normalize flattens an arbitrarily-shaped decoded JSON document into a
// flat sequence of records. Supported shapes, in priority order: a
// multi-source aggregation envelope ({"results": [{retailer, status,
// data}, ...]}), a bare list of records, a mapping with a known list
// container, and a lone mapping treated as a single record. Anything
// else yields an empty sequence; malformed input never panics.
func Normalize(doc any) []Record {
	switch v := doc.(type) {
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			return fromEnvelope(results)
		}
		for _, key := range topLevelListKeys {
			if list, ok := v[key].([]any); ok {
				return recordsFromList(list)
			}
		}
		return []Record{Record(v)}
	case []any:
		return recordsFromList(v)
	}
	return nil
}

// fromEnvelope collects records from the per-source entries of an
// aggregation envelope. Only entries whose status is "success"
// contribute; each contributed record is tagged with its source label
// when it lacks one.
func fromEnvelope(results []any) []Record {
	var records []Record
	for _, entry := range results {
		env, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if status, _ := env["status"].(string); status != "success" {
			continue
		}
		retailer, _ := env["retailer"].(string)
		payload, ok := env["data"].(map[string]any)
		if !ok {
			continue
		}

		var list []any
		for _, key := range payloadListKeys {
			if l, ok := payload[key].([]any); ok {
				list = l
				break
			}
		}

		for _, item := range list {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			records = append(records, tagRetailer(Record(rec), retailer))
		}
	}
	return records
}

// tagRetailer attaches the source label to a record that lacks one. The
// tagged record is a fresh copy; normalization never mutates its input,
// so concurrent queries over a shared snapshot stay safe.
func tagRetailer(rec Record, retailer string) Record {
	if retailer == "" {
		return rec
	}
	if _, ok := rec["retailer"]; ok {
		return rec
	}

	tagged := make(Record, len(rec)+1)
	for k, v := range rec {
		tagged[k] = v
	}
	tagged["retailer"] = retailer
	return tagged
}

func recordsFromList(list []any) []Record {
	var records []Record
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, Record(rec))
		}
	}
	return records
}
