package carbon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/awaistahir/octotrmnl/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/intensity/date", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"from": "2026-02-01T00:00Z", "to": "2026-02-01T00:30Z", "intensity": {"forecast": 120, "actual": 112, "index": "moderate"}},
			{"from": "2026-02-01T00:30Z", "to": "2026-02-01T01:00Z", "intensity": {"forecast": 85, "actual": null, "index": "low"}},
			{"from": "2026-02-01T01:00Z", "to": "2026-02-01T01:30Z", "intensity": {"forecast": null, "actual": null}},
			{"from": "2026-02-01T01:30Z", "to": "2026-02-01T02:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(upstream.New(time.Second, nil), srv.URL+"/")
	periods, err := client.Forecast(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 4)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), periods[0].From.UTC())
	assert.Equal(t, time.Date(2026, 2, 1, 0, 30, 0, 0, time.UTC), periods[0].To.UTC())
	require.NotNil(t, periods[0].Intensity.Actual)
	assert.Equal(t, 112, *periods[0].Intensity.Actual)
	assert.Equal(t, "moderate", periods[0].Intensity.Index)

	assert.Nil(t, periods[1].Intensity.Actual)
	require.NotNil(t, periods[1].Intensity.Forecast)
	assert.Equal(t, 85, *periods[1].Intensity.Forecast)

	assert.Nil(t, periods[2].Intensity.Actual)
	assert.Nil(t, periods[2].Intensity.Forecast)
	assert.Empty(t, periods[2].Intensity.Index)

	assert.Nil(t, periods[3].Intensity.Forecast)
}

func TestForecast_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(upstream.New(time.Second, nil), srv.URL)
	_, err := client.Forecast(context.Background())
	require.Error(t, err)

	var statusErr *upstream.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "Carbon Intensity", statusErr.Service)
}

func TestApiTime(t *testing.T) {
	var at apiTime
	require.NoError(t, at.UnmarshalJSON([]byte(`"2026-06-01T12:30Z"`)))
	assert.Equal(t, time.Date(2026, 6, 1, 12, 30, 0, 0, time.UTC), at.UTC())

	require.NoError(t, at.UnmarshalJSON([]byte(`"2026-06-01T12:30:00+01:00"`)))
	assert.Equal(t, time.Date(2026, 6, 1, 11, 30, 0, 0, time.UTC), at.UTC())

	assert.Error(t, at.UnmarshalJSON([]byte(`"yesterday"`)))
}
