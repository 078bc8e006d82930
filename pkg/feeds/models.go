package feeds

import "time"

// Status values recorded per retailer in the aggregation envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of fetching one retailer's feed. Data is set on
// success, Error on failure; the URL is kept for diagnostics.
type Result struct {
	Retailer string `json:"retailer"`
	Status   string `json:"status"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	URL      string `json:"url"`
}

// Snapshot is the aggregated multi-source document produced by a fetch
// round. Its shape is exactly what engine.Normalize consumes.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Results   []Result  `json:"results"`
}
