package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"BigPictureWatch/internal/calculator"
	"BigPictureWatch/internal/model"
)

// DefaultTableTimeout bounds a web table download.
const DefaultTableTimeout = 30 * time.Second

var tableDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	time.DateOnly,
	"01/02/2006",
}

// TableFetcher implements TableSource by scraping the first HTML table of a page.
type TableFetcher struct {
	UserAgent string
	Client    *http.Client
}

// NewTableFetcher creates a web table fetcher. A zero timeout uses DefaultTableTimeout.
func NewTableFetcher(proxyURL string, timeout time.Duration) *TableFetcher {
	if timeout <= 0 {
		timeout = DefaultTableTimeout
	}
	return &TableFetcher{Client: newHTTPClient(proxyURL, timeout)}
}

func (f *TableFetcher) Name() string { return "webtable" }

// FetchTable downloads url and reads its first table as (date, value) rows.
func (f *TableFetcher) FetchTable(ctx context.Context, url string) (model.Series, error) {
	body, err := get(ctx, f.Client, url, f.UserAgent)
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: url, Err: err}
	}
	raw, err := parseFirstTable(body)
	if err != nil {
		return model.Series{}, &FetchError{Source: f.Name(), ID: url, Err: err}
	}
	s := calculator.Canonicalize(url, raw)
	if s.Len() == 0 {
		return model.Series{}, &FetchError{Source: f.Name(), ID: url, Err: ErrEmptySeries}
	}
	return s, nil
}

func parseFirstTable(body []byte) ([]model.Point, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: html: %w", ErrParse, err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table found", ErrParse)
	}

	var (
		pts    []model.Point
		rowErr error
	)
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true // header row
		}
		if cells.Length() != 2 {
			rowErr = fmt.Errorf("%w: row %d has %d columns, want 2", ErrParse, i, cells.Length())
			return false
		}
		d, err := parseTableDate(cells.Eq(0).Text())
		if err != nil {
			rowErr = fmt.Errorf("%w: row %d: %w", ErrParse, i, err)
			return false
		}
		v, err := parseTableValue(cells.Eq(1).Text())
		if err != nil {
			rowErr = fmt.Errorf("%w: row %d: %w", ErrParse, i, err)
			return false
		}
		pts = append(pts, model.Point{Time: d, Value: v})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return pts, nil
}

func parseTableDate(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range tableDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseTableValue strips thousands separators and any surrounding
// annotation (estimate markers, units) before converting.
func parseTableValue(s string) (float64, error) {
	clean := strings.ReplaceAll(s, ",", "")
	clean = strings.TrimFunc(clean, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '.'
	})
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("value %q: %w", strings.TrimSpace(s), err)
	}
	f, _ := d.Float64()
	return f, nil
}
