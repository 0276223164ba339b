package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"BigPictureWatch/internal/calculator"
	"BigPictureWatch/internal/model"
)

// VsTraderFetcher implements MarketSource using the vstrader REST API.
// It is used instead of Yahoo when a vstrader base URL is configured.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64    `json:"timestamp"`
	Close     *float64 `json:"close"`
}

// FetchCloses returns daily closes for symbol over [start, end].
func (f *VsTraderFetcher) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", start.Format(time.DateOnly))
	q.Set("to", end.Format(time.DateOnly))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	bars, err := f.fetchBars(ctx, endpoint)
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: symbol, Err: err}
	}
	raw := make([]model.Point, 0, len(bars))
	for _, vb := range bars {
		if vb.Close == nil {
			continue
		}
		raw = append(raw, model.Point{Time: time.Unix(vb.Timestamp, 0).UTC(), Value: *vb.Close})
	}
	s := calculator.Canonicalize(symbol, raw)
	if s.Len() == 0 {
		return model.Series{}, &FetchError{Source: f.Name(), ID: symbol, Err: ErrEmptySeries}
	}
	return s, nil
}

func (f *VsTraderFetcher) fetchBars(ctx context.Context, endpoint string) ([]vsBar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch bars: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch bars: status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	var bars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("%w: decode bars: %w", ErrParse, err)
	}
	return bars, nil
}
