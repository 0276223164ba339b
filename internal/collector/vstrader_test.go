package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BigPictureWatch/internal/model"
)

func TestVsTraderFetcher_FetchCloses(t *testing.T) {
	var auth, symbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		symbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`[
			{"timestamp":1704240000,"close":101.5},
			{"timestamp":1704153600,"close":100.0},
			{"timestamp":1704326400,"close":null}
		]`))
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "", 5*time.Second)
	s, err := f.FetchCloses(context.Background(), "GC=F", model.Date(2024, 1, 1), model.Date(2024, 1, 5))
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "GC=F", symbol)
	assert.Equal(t, []model.Point{
		{Time: model.Date(2024, time.January, 2), Value: 100.0},
		{Time: model.Date(2024, time.January, 3), Value: 101.5},
	}, s.Points)
}

func TestVsTraderFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "", "", time.Second)
	_, err := f.FetchCloses(context.Background(), "GC=F", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestMockFetcher(t *testing.T) {
	m := NewMockFetcher(map[string]model.Series{
		"A": {Points: []model.Point{
			{Time: model.Date(2020, 1, 1), Value: 1},
			{Time: model.Date(2021, 1, 1), Value: 2},
		}},
	})
	m.Errors["B"] = ErrSourceUnavailable

	s, err := m.FetchSeries(context.Background(), "A", model.Date(2020, 6, 1), model.Date(2022, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, s.Values())
	assert.Equal(t, "A", s.Name)

	_, err = m.FetchCloses(context.Background(), "B", time.Time{}, time.Now())
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = m.FetchTable(context.Background(), "C")
	assert.ErrorIs(t, err, ErrEmptySeries)

	assert.Equal(t, []string{"A", "B", "C"}, m.Calls())
}
