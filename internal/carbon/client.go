package carbon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/awaistahir/octotrmnl/internal/upstream"
)

const (
	DefaultBaseURL = "https://api.carbonintensity.org.uk"
	serviceName    = "Carbon Intensity"
)

// The API uses minute precision, e.g. 2026-02-01T12:30Z
var timeLayouts = []string{"2006-01-02T15:04Z07:00", time.RFC3339}

// Client fetches national carbon intensity forecasts
type Client struct {
	http    *upstream.Client
	baseURL string
}

// NewClient creates a Carbon Intensity API client
func NewClient(httpClient *upstream.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// apiTime accepts the API's minute-precision timestamps
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	var err error
	for _, layout := range timeLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("parsing time %q: %w", s, err)
}

// intensityResponse represents the /intensity/date payload
type intensityResponse struct {
	Data []struct {
		From      apiTime `json:"from"`
		To        apiTime `json:"to"`
		Intensity *struct {
			Forecast *int   `json:"forecast"`
			Actual   *int   `json:"actual"`
			Index    string `json:"index"`
		} `json:"intensity"`
	} `json:"data"`
}

// Forecast fetches today's half-hourly intensity periods in API order
func (c *Client) Forecast(ctx context.Context) ([]engine.CarbonPeriod, error) {
	var resp intensityResponse
	req := upstream.Request{Service: serviceName, URL: c.baseURL + "/intensity/date"}
	if err := c.http.GetJSON(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("fetching carbon forecast: %w", err)
	}

	periods := make([]engine.CarbonPeriod, 0, len(resp.Data))
	for _, d := range resp.Data {
		p := engine.CarbonPeriod{
			From: d.From.Time,
			To:   d.To.Time,
		}
		if d.Intensity != nil {
			p.Intensity = engine.Intensity{
				Actual:   d.Intensity.Actual,
				Forecast: d.Intensity.Forecast,
				Index:    d.Intensity.Index,
			}
		}
		periods = append(periods, p)
	}

	return periods, nil
}
