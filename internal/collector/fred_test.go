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

func TestFredFetcher_FetchSeries(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"id":   r.URL.Query().Get("id"),
			"cosd": r.URL.Query().Get("cosd"),
			"coed": r.URL.Query().Get("coed"),
		}
		w.Write([]byte("observation_date,DGS10\n" +
			"2024-01-03,3.91\n" +
			"2024-01-01,.\n" +
			"2024-01-02,3.95\n" +
			"2024-01-04,\n"))
	}))
	defer srv.Close()

	f := NewFredFetcher(srv.URL, "", 5*time.Second)
	s, err := f.FetchSeries(context.Background(), "DGS10",
		model.Date(2024, time.January, 1), model.Date(2024, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"id": "DGS10", "cosd": "2024-01-01", "coed": "2024-01-31"}, gotQuery)
	assert.Equal(t, "DGS10", s.Name)
	assert.Equal(t, []model.Point{
		{Time: model.Date(2024, time.January, 2), Value: 3.95},
		{Time: model.Date(2024, time.January, 3), Value: 3.91},
	}, s.Points)
}

func TestFredFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"http error", http.StatusInternalServerError, "boom", ErrSourceUnavailable},
		{"all missing", http.StatusOK, "DATE,TEDRATE\n2022-01-03,.\n", ErrEmptySeries},
		{"empty body", http.StatusOK, "", ErrEmptySeries},
		{"bad value", http.StatusOK, "DATE,X\n2022-01-03,abc\n", ErrParse},
		{"html page", http.StatusOK, "<html><body>Not found</body></html>", ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewFredFetcher(srv.URL, "", 5*time.Second)
			_, err := f.FetchSeries(context.Background(), "X", time.Time{}, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "fred", fe.Source)
			assert.Equal(t, "X", fe.ID)
		})
	}
}

func TestFredFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewFredFetcher(url, "", time.Second)
	_, err := f.FetchSeries(context.Background(), "GDP", time.Time{}, time.Now())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
