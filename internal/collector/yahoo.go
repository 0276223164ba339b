package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"BigPictureWatch/internal/calculator"
	"BigPictureWatch/internal/model"
)

// DefaultYahooURL is the Yahoo Finance v8 chart endpoint.
const DefaultYahooURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// yahooNotFound is the chart error code for unknown or delisted symbols.
const yahooNotFound = "Not Found"

// YahooFetcher implements MarketSource using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &YahooFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchCloses returns daily closes for symbol over [start, end]. The request
// asks for end+1 day because Yahoo treats period2 as exclusive. An unknown
// symbol yields ErrEmptySeries.
func (f *YahooFetcher) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.Series, error) {
	u := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=history",
		f.BaseURL, url.PathEscape(symbol),
		model.Day(start).Unix(), model.Day(end).AddDate(0, 0, 1).Unix())

	body, err := get(ctx, f.Client, u, f.UserAgent)
	var se *statusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		// Bad symbols come back as 404 with a chart error payload.
		if _, perr := parseYahooChart(se.Body); errors.Is(perr, ErrEmptySeries) {
			err = perr
		}
	}
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: symbol, Err: err}
	}

	raw, err := parseYahooChart(body)
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: symbol, Err: err}
	}
	s := calculator.Canonicalize(symbol, raw)
	if s.Len() == 0 {
		return model.Series{}, &FetchError{Source: f.Name(), ID: symbol, Err: ErrEmptySeries}
	}
	return s, nil
}

func parseYahooChart(body []byte) ([]model.Point, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %w", ErrParse, err)
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == yahooNotFound {
			return nil, fmt.Errorf("%w: yahoo: %s", ErrEmptySeries, e.Description)
		}
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrSourceUnavailable, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no quote block", ErrParse)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("%w: yahoo: %d timestamps but %d closes", ErrParse, len(result.Timestamp), len(closes))
	}

	pts := make([]model.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue // holidays and halted sessions
		}
		// Shift to exchange-local time before taking the calendar date.
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		pts = append(pts, model.Point{Time: local, Value: *closes[i]})
	}
	return pts, nil
}
