package octopus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/awaistahir/octotrmnl/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper is a mock implementation of http.RoundTripper.
type MockRoundTripper struct {
	Handler func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Handler(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func newTestClient(handler func(req *http.Request) (*http.Response, error)) *Client {
	hc := upstream.New(time.Second, nil)
	hc.HTTPClient = &http.Client{Transport: &MockRoundTripper{Handler: handler}}
	return NewClient(hc, Config{
		APIKey: "sk_live_test",
		Electricity: Meter{
			PointID: "1200000000001",
			Serial:  "21E0000001",
			Product: "AGILE-24-10-01",
			Tariff:  "E-1R-AGILE-24-10-01-C",
		},
		Gas: Meter{
			PointID: "3000000001",
			Serial:  "G4P0000001",
			Product: "VAR-22-11-01",
			Tariff:  "G-1R-VAR-22-11-01-C",
		},
	})
}

var (
	periodFrom = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	periodTo   = time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)
)

func TestConsumption(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/v1/electricity-meter-points/1200000000001/meters/21E0000001/consumption/", req.URL.Path)
		require.Equal(t, "month", req.URL.Query().Get("group_by"))
		require.Equal(t, "2026-02-01T00:00:00Z", req.URL.Query().Get("period_from"))

		user, _, ok := req.BasicAuth()
		require.True(t, ok, "consumption requests are authenticated")
		require.Equal(t, "sk_live_test", user)

		return jsonResponse(http.StatusOK, `{"count": 1, "next": null, "results": [
			{"consumption": 212.43, "interval_start": "2026-02-01T00:00:00Z", "interval_end": "2026-03-01T00:00:00Z"}
		]}`), nil
	})

	got, err := client.Consumption(context.Background(), Electricity, periodFrom, periodTo)
	require.NoError(t, err)
	assert.Equal(t, 212.43, got)
}

func TestConsumption_GasEmpty(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/v1/gas-meter-points/3000000001/meters/G4P0000001/consumption/", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"count": 0, "next": null, "results": []}`), nil
	})

	got, err := client.Consumption(context.Background(), Gas, periodFrom, periodTo)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestConsumption_StatusError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"detail": "Invalid API key."}`), nil
	})

	_, err := client.Consumption(context.Background(), Electricity, periodFrom, periodTo)
	require.Error(t, err)

	var statusErr *upstream.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestUnitRates_FollowsPages(t *testing.T) {
	calls := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		calls++
		require.Equal(t, "/v1/products/AGILE-24-10-01/electricity-tariffs/E-1R-AGILE-24-10-01-C/standard-unit-rates/", req.URL.Path)
		_, _, hasAuth := req.BasicAuth()
		require.False(t, hasAuth, "tariff endpoints are public")

		if req.URL.Query().Get("page") == "2" {
			return jsonResponse(http.StatusOK, `{"count": 3, "next": null, "results": [
				{"value_exc_vat": 19.05, "value_inc_vat": 20.0, "valid_from": "2026-02-01T00:00:00Z", "valid_to": "2026-02-01T00:30:00Z"}
			]}`), nil
		}
		return jsonResponse(http.StatusOK, `{"count": 3, "next": "https://api.octopus.energy/v1/products/AGILE-24-10-01/electricity-tariffs/E-1R-AGILE-24-10-01-C/standard-unit-rates/?page=2", "results": [
			{"value_exc_vat": 9.5, "value_inc_vat": 10.0, "valid_from": "2026-02-01T01:00:00Z", "valid_to": "2026-02-01T01:30:00Z"},
			{"value_exc_vat": 28.57, "value_inc_vat": 30.0, "valid_from": "2026-02-01T00:30:00Z", "valid_to": "2026-02-01T01:00:00Z"}
		]}`), nil
	})

	rates, err := client.UnitRates(context.Background(), Electricity, periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.Equal(t, 2, calls)

	// API order is kept
	assert.Equal(t, "10", rates[0].ValueIncVAT.String())
	assert.Equal(t, "30", rates[1].ValueIncVAT.String())
	assert.Equal(t, "20", rates[2].ValueIncVAT.String())
	assert.Equal(t, time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC), rates[0].ValidFrom.UTC())
}

func TestStandingCharge(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		require.True(t, strings.HasSuffix(req.URL.Path, "/gas-tariffs/G-1R-VAR-22-11-01-C/standing-charges/"))
		return jsonResponse(http.StatusOK, `{"count": 2, "next": null, "results": [
			{"value_exc_vat": 28.0, "value_inc_vat": 29.4, "valid_from": "2026-01-01T00:00:00Z", "valid_to": null},
			{"value_exc_vat": 27.0, "value_inc_vat": 28.35, "valid_from": "2025-10-01T00:00:00Z", "valid_to": "2026-01-01T00:00:00Z"}
		]}`), nil
	})

	got, err := client.StandingCharge(context.Background(), Gas, periodFrom, periodTo)
	require.NoError(t, err)
	assert.Equal(t, "29.4", got.ValueIncVAT.String())
}

func TestStandingCharge_Empty(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"count": 0, "next": null, "results": []}`), nil
	})

	got, err := client.StandingCharge(context.Background(), Electricity, periodFrom, periodTo)
	require.NoError(t, err)
	assert.True(t, got.ValueIncVAT.IsZero())
}

func TestHalfHourly(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "500", req.URL.Query().Get("page_size"))
		require.Empty(t, req.URL.Query().Get("group_by"))
		return jsonResponse(http.StatusOK, `{"count": 2, "next": null, "results": [
			{"consumption": 0.41, "interval_start": "2026-02-07T18:30:00Z", "interval_end": "2026-02-07T19:00:00Z"},
			{"consumption": 1.12, "interval_start": "2026-02-07T18:00:00Z", "interval_end": "2026-02-07T18:30:00Z"}
		]}`), nil
	})

	records, err := client.HalfHourly(context.Background(), periodFrom, periodTo)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1.12, records[1].Consumption)
	assert.Equal(t, time.Date(2026, 2, 7, 18, 0, 0, 0, time.UTC), records[1].IntervalStart.UTC())
}

func TestUnknownFuel(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	_, err := client.UnitRates(context.Background(), Fuel("oil"), periodFrom, periodTo)
	require.Error(t, err)
}
