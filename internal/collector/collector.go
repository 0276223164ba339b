package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BigPictureWatch/internal/calculator"
	"BigPictureWatch/internal/model"
)

// MockFetcher serves fixed series from memory for development and testing.
// It implements MacroSource, MarketSource and TableSource. Unknown
// identifiers fail with ErrEmptySeries; Errors forces a specific failure.
type MockFetcher struct {
	Series map[string]model.Series
	Errors map[string]error

	mu    sync.Mutex
	calls []string
}

// NewMockFetcher creates a MockFetcher serving the given series by identifier.
func NewMockFetcher(series map[string]model.Series) *MockFetcher {
	return &MockFetcher{Series: series, Errors: map[string]error{}}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, code string, start, end time.Time) (model.Series, error) {
	return m.lookup(code, start, end)
}

func (m *MockFetcher) FetchCloses(_ context.Context, symbol string, start, end time.Time) (model.Series, error) {
	return m.lookup(symbol, start, end)
}

func (m *MockFetcher) FetchTable(_ context.Context, url string) (model.Series, error) {
	return m.lookup(url, time.Time{}, time.Time{})
}

// Calls returns the identifiers requested so far, in order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockFetcher) lookup(id string, start, end time.Time) (model.Series, error) {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	m.mu.Unlock()

	if err, ok := m.Errors[id]; ok {
		return model.Series{}, &FetchError{Source: m.Name(), ID: id, Err: err}
	}
	s, ok := m.Series[id]
	if !ok {
		return model.Series{}, &FetchError{Source: m.Name(), ID: id, Err: fmt.Errorf("%w: no fixture", ErrEmptySeries)}
	}
	if !start.IsZero() {
		s = calculator.Window(s, model.Day(start), model.Day(end))
	}
	s.Name = id
	if s.Len() == 0 {
		return model.Series{}, &FetchError{Source: m.Name(), ID: id, Err: ErrEmptySeries}
	}
	return s, nil
}
