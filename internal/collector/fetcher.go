package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BigPictureWatch/internal/model"
)

var (
	// ErrSourceUnavailable reports a network or HTTP failure reaching a provider.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrEmptySeries reports a provider returning zero usable rows.
	ErrEmptySeries = errors.New("empty series")
	// ErrParse reports an unexpected payload or page structure.
	ErrParse = errors.New("parse error")
)

// MacroSource retrieves macroeconomic series by series code.
type MacroSource interface {
	FetchSeries(ctx context.Context, code string, start, end time.Time) (model.Series, error)
	Name() string
}

// MarketSource retrieves daily closing prices by ticker symbol.
type MarketSource interface {
	FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.Series, error)
	Name() string
}

// TableSource retrieves a (date, value) series from the first table of a web page.
type TableSource interface {
	FetchTable(ctx context.Context, url string) (model.Series, error)
	Name() string
}

// FetchError names the source and identifier of a failed fetch.
type FetchError struct {
	Source string
	ID     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
