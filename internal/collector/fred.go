package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"BigPictureWatch/internal/calculator"
	"BigPictureWatch/internal/model"
)

// DefaultFredURL is FRED's keyless graph CSV download endpoint.
const DefaultFredURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"

// FredFetcher implements MacroSource using the FRED graph CSV endpoint.
type FredFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewFredFetcher creates a FRED fetcher with optional proxy support.
func NewFredFetcher(baseURL, proxyURL string, timeout time.Duration) *FredFetcher {
	if baseURL == "" {
		baseURL = DefaultFredURL
	}
	return &FredFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *FredFetcher) Name() string { return "fred" }

// FetchSeries downloads code between start and end inclusive. Rows FRED
// marks as missing (".") are dropped.
func (f *FredFetcher) FetchSeries(ctx context.Context, code string, start, end time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("id", code)
	q.Set("cosd", start.Format(time.DateOnly))
	q.Set("coed", end.Format(time.DateOnly))

	body, err := get(ctx, f.Client, f.BaseURL+"?"+q.Encode(), f.UserAgent)
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: code, Err: err}
	}

	raw, err := parseFredCSV(bytes.NewReader(body))
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: code, Err: err}
	}
	s := calculator.Canonicalize(code, raw)
	if s.Len() == 0 {
		return model.Series{}, &FetchError{Source: f.Name(), ID: code, Err: ErrEmptySeries}
	}
	return s, nil
}

// parseFredCSV reads "DATE,VALUE" rows. The header names vary between
// "DATE" and "observation_date" so only the column count is checked.
func parseFredCSV(r io.Reader) ([]model.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %w", ErrParse, err)
	}
	if !strings.Contains(strings.ToLower(header[0]), "date") {
		return nil, fmt.Errorf("%w: unexpected csv header %q", ErrParse, strings.Join(header, ","))
	}

	var pts []model.Point
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %w", ErrParse, err)
		}
		v := strings.TrimSpace(rec[1])
		if v == "" || v == "." {
			continue
		}
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %w", ErrParse, rec[0], err)
		}
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %q: %w", ErrParse, v, err)
		}
		pts = append(pts, model.Point{Time: d, Value: val})
	}
	return pts, nil
}
