package octopus

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/awaistahir/octotrmnl/internal/upstream"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.octopus.energy/v1"
	serviceName    = "Octopus"

	// Pages followed for rate listings; a month of half-hourly Agile rates
	// fits in 15 pages of 100.
	maxPages = 20

	halfHourlyPageSize = 500
)

// Fuel selects the electricity or gas endpoints
type Fuel string

const (
	Electricity Fuel = "electricity"
	Gas         Fuel = "gas"
)

// Meter identifies a meter point and the tariff it is billed on
type Meter struct {
	PointID string // MPAN for electricity, MPRN for gas
	Serial  string
	Product string
	Tariff  string
}

// Config holds the account details used by the client
type Config struct {
	BaseURL     string
	APIKey      string
	Electricity Meter
	Gas         Meter
}

// Client fetches consumption and tariff data from the Octopus Energy REST API
type Client struct {
	http *upstream.Client
	cfg  Config
}

// NewClient creates a client for the configured meters
func NewClient(httpClient *upstream.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		http: httpClient,
		cfg:  cfg,
	}
}

// consumptionResponse represents a consumption listing
type consumptionResponse struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []consumptionItem `json:"results"`
}

type consumptionItem struct {
	Consumption   float64   `json:"consumption"`
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
}

// priceResponse represents a unit rate or standing charge listing
type priceResponse struct {
	Count   int         `json:"count"`
	Next    *string     `json:"next"`
	Results []priceItem `json:"results"`
}

type priceItem struct {
	ValueExcVAT decimal.Decimal `json:"value_exc_vat"`
	ValueIncVAT decimal.Decimal `json:"value_inc_vat"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidTo     time.Time       `json:"valid_to"`
}

func (c *Client) meter(fuel Fuel) (Meter, error) {
	switch fuel {
	case Electricity:
		return c.cfg.Electricity, nil
	case Gas:
		return c.cfg.Gas, nil
	default:
		return Meter{}, fmt.Errorf("unknown fuel %q", fuel)
	}
}

func periodParams(from, to time.Time) url.Values {
	params := url.Values{}
	params.Add("period_from", from.UTC().Format(time.RFC3339))
	params.Add("period_to", to.UTC().Format(time.RFC3339))
	return params
}

func (c *Client) consumptionURL(fuel Fuel, m Meter, params url.Values) string {
	return fmt.Sprintf("%s/%s-meter-points/%s/meters/%s/consumption/?%s",
		c.cfg.BaseURL, fuel, url.PathEscape(m.PointID), url.PathEscape(m.Serial), params.Encode())
}

func (c *Client) tariffURL(fuel Fuel, m Meter, resource string, params url.Values) string {
	return fmt.Sprintf("%s/products/%s/%s-tariffs/%s/%s/?%s",
		c.cfg.BaseURL, url.PathEscape(m.Product), fuel, url.PathEscape(m.Tariff), resource, params.Encode())
}

// Consumption returns the total metered kWh between from and to, grouped
// by month. No results gives 0.
func (c *Client) Consumption(ctx context.Context, fuel Fuel, from, to time.Time) (float64, error) {
	m, err := c.meter(fuel)
	if err != nil {
		return 0, err
	}

	params := periodParams(from, to)
	params.Add("group_by", "month")

	var resp consumptionResponse
	req := upstream.Request{Service: serviceName, URL: c.consumptionURL(fuel, m, params), Username: c.cfg.APIKey}
	if err := c.http.GetJSON(ctx, req, &resp); err != nil {
		return 0, fmt.Errorf("fetching %s consumption: %w", fuel, err)
	}

	if len(resp.Results) == 0 {
		return 0, nil
	}
	return resp.Results[0].Consumption, nil
}

// HalfHourly returns ungrouped electricity consumption records between from and to
func (c *Client) HalfHourly(ctx context.Context, from, to time.Time) ([]engine.ConsumptionRecord, error) {
	params := periodParams(from, to)
	params.Add("page_size", fmt.Sprint(halfHourlyPageSize))

	next := c.consumptionURL(Electricity, c.cfg.Electricity, params)
	records := []engine.ConsumptionRecord{}

	for page := 0; next != "" && page < maxPages; page++ {
		var resp consumptionResponse
		req := upstream.Request{Service: serviceName, URL: next, Username: c.cfg.APIKey}
		if err := c.http.GetJSON(ctx, req, &resp); err != nil {
			return nil, fmt.Errorf("fetching half-hourly consumption: %w", err)
		}

		for _, r := range resp.Results {
			records = append(records, engine.ConsumptionRecord{
				IntervalStart: r.IntervalStart,
				IntervalEnd:   r.IntervalEnd,
				Consumption:   r.Consumption,
			})
		}

		next = ""
		if resp.Next != nil {
			next = *resp.Next
		}
	}

	return records, nil
}

// UnitRates returns the standard unit rates in force between from and to, in
// the order the API lists them.
func (c *Client) UnitRates(ctx context.Context, fuel Fuel, from, to time.Time) ([]engine.RatePeriod, error) {
	m, err := c.meter(fuel)
	if err != nil {
		return nil, err
	}

	next := c.tariffURL(fuel, m, "standard-unit-rates", periodParams(from, to))
	rates := []engine.RatePeriod{}

	for page := 0; next != "" && page < maxPages; page++ {
		var resp priceResponse
		if err := c.http.GetJSON(ctx, upstream.Request{Service: serviceName, URL: next}, &resp); err != nil {
			return nil, fmt.Errorf("fetching %s unit rates: %w", fuel, err)
		}

		for _, r := range resp.Results {
			rates = append(rates, engine.RatePeriod{
				ValidFrom:   r.ValidFrom,
				ValidTo:     r.ValidTo,
				ValueIncVAT: r.ValueIncVAT,
			})
		}

		next = ""
		if resp.Next != nil {
			next = *resp.Next
		}
	}

	return rates, nil
}

// StandingCharge returns the first standing charge listed for the period,
// or zero when none is.
func (c *Client) StandingCharge(ctx context.Context, fuel Fuel, from, to time.Time) (engine.StandingCharge, error) {
	m, err := c.meter(fuel)
	if err != nil {
		return engine.StandingCharge{}, err
	}

	var resp priceResponse
	req := upstream.Request{Service: serviceName, URL: c.tariffURL(fuel, m, "standing-charges", periodParams(from, to))}
	if err := c.http.GetJSON(ctx, req, &resp); err != nil {
		return engine.StandingCharge{}, fmt.Errorf("fetching %s standing charge: %w", fuel, err)
	}

	if len(resp.Results) == 0 {
		return engine.StandingCharge{ValueIncVAT: decimal.Zero}, nil
	}
	return engine.StandingCharge{ValueIncVAT: resp.Results[0].ValueIncVAT}, nil
}
