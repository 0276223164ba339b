package assembler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BigPictureWatch/internal/cache"
	"BigPictureWatch/internal/collector"
	"BigPictureWatch/internal/model"
)

const shillerURL = "https://example.test/shiller-pe"

var testNow = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.Local)

// monthly returns a constant series with one point on the first of every
// month from 1980 through 2024.
func monthly(v float64) model.Series {
	var s model.Series
	for d := model.Date(1980, time.January, 1); d.Year() < 2025; d = d.AddDate(0, 1, 0) {
		s.Points = append(s.Points, model.Point{Time: d, Value: v})
	}
	return s
}

func fixtures() map[string]model.Series {
	values := map[string]float64{
		"^GSPC": 4000, "GC=F": 2000, "^VIX": 15,
		shillerURL:    30,
		"NCBEILQ027S": 60, "TNWMVBSNNCB": 40,
		"CPIAUCSL": 300, "CPIUFDSL": 310, "CPIHOSSL": 320, "CPIMEDSL": 550, "CUSR0000SAE1": 140,
		"GDPDEF": 100, "BOGMBASE": 100, "M2SL": 20,
		"DGS1": 2, "DGS2": 2.5, "DGS5": 3, "DGS10": 3.5, "DGS20": 4,
		"GDP": 200, "GDPC1": 150,
		"TEDRATE": 0.3, "SOFR": 5, "DGS3MO": 4.5,
		"STLFSI4": -0.5, "KCFSI": -0.3, "CFSI": 0.1, "ANFCI": -0.4,
		"POP": 100, "LFWA64TTUSM647N": 5000,
		"LNU00000003": 50, "LNU00000006": 10, "LNU00000009": 15, "LNU00032183": 5,
		"EMRATIO": 60, "UNRATE": 4, "CIVPART": 62.5,
		"CSUSHPISA": 310, "CHXRSA": 180,
	}
	for _, f := range Futures {
		if _, ok := values[f.Symbol]; !ok {
			values[f.Symbol] = 10
		}
	}
	out := make(map[string]model.Series, len(values))
	for id, v := range values {
		out[id] = monthly(v)
	}
	return out
}

func testConfig() Config {
	return Config{
		HistoryYears:      30,
		FuturesLongYears:  8,
		FuturesShortYears: 1,
		Cities:            []string{"National", "Chicago"},
		NormFrom:          model.Date(1982, time.January, 1),
		NormTo:            model.Date(2008, time.May, 1),
		ShillerURL:        shillerURL,
	}
}

func newTestAssembler(t *testing.T, mock *collector.MockFetcher) (*Assembler, *cache.Cache) {
	t.Helper()
	c := cache.New(filepath.Join(t.TempDir(), "snapshot.gob"))
	a, err := New(testConfig(), mock, mock, mock, c, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return a, c
}

func last(t *testing.T, s model.Series) float64 {
	t.Helper()
	p, ok := s.Last()
	require.True(t, ok, "series %q is empty", s.Name)
	return p.Value
}

func TestAssemble_BuildsAndCaches(t *testing.T) {
	mock := collector.NewMockFetcher(fixtures())
	a, c := newTestAssembler(t, mock)

	ds, out, err := a.Assemble(context.Background())
	require.NoError(t, err)
	assert.False(t, out.CacheHit)

	coll := ds.Collection
	assert.Equal(t, "SP500", coll.SP500.Name)
	assert.InDelta(t, 2.0, last(t, coll.SP500Gold), 1e-12)
	assert.InDelta(t, 1.5, last(t, coll.TobinQ), 1e-12)
	assert.InDelta(t, 200.0, last(t, coll.GDPDeflated), 1e-9)
	assert.InDelta(t, 20.0, last(t, coll.SP500DeflatedGDP), 1e-9)
	assert.InDelta(t, 0.5, last(t, coll.TreasurySpread), 1e-12)
	// MB/GDP is flat, so its normalized form is 1 and the adjusted spread
	// equals the raw spread.
	assert.InDelta(t, 0.5, last(t, coll.TreasurySpreadAdj), 1e-12)
	assert.InDelta(t, 0.5, last(t, coll.SOFRTBill), 1e-12)
	assert.InDelta(t, 5.0, last(t, coll.WorkingAgePopulation), 1e-12)
	assert.InDelta(t, 0.5, last(t, coll.RatioWhite), 1e-12)
	assert.InDelta(t, 2000.0, last(t, coll.GDPPerCapita), 1e-9)
	assert.InDelta(t, 1500.0, last(t, coll.RealGDPPerCapita), 1e-9)
	assert.InDelta(t, 30.0, last(t, coll.ShillerPE10), 1e-12)

	assert.Len(t, coll.CaseShiller, 2)
	assert.InDelta(t, 180.0, last(t, coll.CaseShiller["Chicago"]), 1e-12)
	require.Len(t, coll.FuturesOrder, len(Futures))
	assert.Equal(t, "USDIndex", coll.FuturesOrder[0])
	assert.Equal(t, "OrangeJuice", coll.FuturesOrder[len(Futures)-1])

	// Fetches are limited to the 30-year history window.
	first, _ := coll.CPI.First()
	assert.False(t, first.Time.Before(ds.Windows.PlotStart))

	coll.Range(func(key string, s model.Series) {
		for _, p := range s.Points {
			require.Equal(t, model.Day(p.Time), p.Time, key)
		}
	})

	_, err = os.Stat(c.Path())
	require.NoError(t, err)

	calls := len(mock.Calls())
	ds2, out2, err := a.Assemble(context.Background())
	require.NoError(t, err)
	assert.True(t, out2.CacheHit)
	assert.Len(t, mock.Calls(), calls, "cache hit must not fetch")
	assert.Equal(t, coll.SP500Gold, ds2.Collection.SP500Gold)
}

func TestAssemble_AbortsOnFirstFailure(t *testing.T) {
	mock := collector.NewMockFetcher(fixtures())
	mock.Errors["TNWMVBSNNCB"] = collector.ErrSourceUnavailable
	a, c := newTestAssembler(t, mock)

	ds, out, err := a.Assemble(context.Background())
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.False(t, out.CacheHit)
	assert.ErrorIs(t, err, collector.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "networth")

	calls := mock.Calls()
	assert.Equal(t, "TNWMVBSNNCB", calls[len(calls)-1], "no fetch after the failure")

	_, statErr := os.Stat(c.Path())
	assert.True(t, os.IsNotExist(statErr), "failed run must not write a snapshot")
}

func TestAssemble_MissingSeries(t *testing.T) {
	f := fixtures()
	delete(f, "CHXRSA")
	a, _ := newTestAssembler(t, collector.NewMockFetcher(f))

	_, _, err := a.Assemble(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, collector.ErrEmptySeries)
	assert.Contains(t, err.Error(), "caseshiller/Chicago")
}

func TestBuild_Cancelled(t *testing.T) {
	mock := collector.NewMockFetcher(fixtures())
	a, _ := newTestAssembler(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.Calls())
}

func TestBuild_NormalizationWindowEmpty(t *testing.T) {
	mock := collector.NewMockFetcher(fixtures())
	cfg := testConfig()
	cfg.NormFrom = model.Date(1950, time.January, 1)
	cfg.NormTo = model.Date(1960, time.January, 1)
	a, err := New(cfg, mock, mock, mock, cache.New(filepath.Join(t.TempDir(), "s.gob")),
		WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	_, err = a.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MB_GDP")
}

func TestNew_Validation(t *testing.T) {
	mock := collector.NewMockFetcher(nil)
	store := cache.New(filepath.Join(t.TempDir(), "s.gob"))

	cfg := testConfig()
	cfg.Cities = []string{"Gotham"}
	_, err := New(cfg, mock, mock, mock, store)
	assert.ErrorContains(t, err, "Gotham")

	cfg = testConfig()
	cfg.NormFrom, cfg.NormTo = cfg.NormTo, cfg.NormFrom
	_, err = New(cfg, mock, mock, mock, store)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.HistoryYears = 0
	_, err = New(cfg, mock, mock, mock, store)
	assert.Error(t, err)
}

func TestWindows(t *testing.T) {
	a, _ := newTestAssembler(t, collector.NewMockFetcher(nil))
	w := a.Windows()

	today := model.Date(2025, time.January, 15)
	assert.Equal(t, today, w.PlotEnd)
	assert.Equal(t, today.AddDate(0, 0, -10958), w.PlotStart)
	assert.Equal(t, today.AddDate(0, 0, -2922), w.FuturesLongStart)
	assert.Equal(t, today.AddDate(0, 0, -365), w.FuturesShortStart)
}

func TestCatalogue(t *testing.T) {
	assert.Len(t, caseShillerCodes, 23)
	code, ok := CaseShillerCode("National")
	assert.True(t, ok)
	assert.Equal(t, "CSUSHPISA", code)
	assert.Len(t, Futures, 20)
}
