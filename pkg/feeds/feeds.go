// Package feeds fetches fuel price feeds from multiple retailers and
// aggregates the raw per-retailer payloads into a single snapshot
// document. Payloads are kept as decoded generic JSON: schema-tolerant
// interpretation happens downstream in the engine package.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultWorkers = 5

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client fetches fuel price feeds from a registry of retailer URLs.
type Client struct {
	retailers  map[string]string
	httpClient *http.Client
	workers    int
}

// NewClient creates a Client over a retailer name to feed URL registry.
func NewClient(retailers map[string]string) *Client {
	return &Client{
		retailers: retailers,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		workers: DefaultWorkers,
	}
}

// LoadRetailers reads a retailer name to URL registry from a JSON file.
func LoadRetailers(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading retailer registry: %w", err)
	}

	var retailers map[string]string
	if err := json.Unmarshal(raw, &retailers); err != nil {
		return nil, fmt.Errorf("error unmarshaling retailer registry: %w", err)
	}
	return retailers, nil
}

// Fetch fetches one retailer's feed. Failures are reported inside the
// returned Result, never as an error: a broken feed must not take the
// whole aggregation round down.
func (c *Client) Fetch(ctx context.Context, retailer, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return errorResult(retailer, url, fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	// Shell's endpoint ends in .html but serves JSON when asked for it.
	if retailer == "Shell" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorResult(retailer, url, fmt.Errorf("error fetching data: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult(retailer, url, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult(retailer, url, fmt.Errorf("error reading response body: %w", err))
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return errorResult(retailer, url, errors.New("invalid JSON response"))
	}

	if retailer == "Costco" {
		data = normalizeCostco(data)
	}

	return Result{
		Retailer: retailer,
		Status:   StatusSuccess,
		Data:     data,
		URL:      url,
	}
}

// FetchAll fetches every registered retailer concurrently, bounded by the
// worker limit, and returns the aggregated snapshot. Result order follows
// the sorted retailer names so repeated rounds produce stable envelopes.
func (c *Client) FetchAll(ctx context.Context) *Snapshot {
	names := make([]string, 0, len(c.retailers))
	for name := range c.retailers {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Result, len(names))
	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = c.Fetch(ctx, name, c.retailers[name])
		}(i, name)
	}
	wg.Wait()

	return &Snapshot{
		Timestamp: time.Now().UTC(),
		Results:   results,
	}
}

func errorResult(retailer, url string, err error) Result {
	return Result{
		Retailer: retailer,
		Status:   StatusError,
		Error:    err.Error(),
		URL:      url,
	}
}
