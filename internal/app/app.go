// Package app wires settings into clients, the cache and the aggregator for
// both binaries.
package app

import (
	"fmt"
	"time"

	"github.com/awaistahir/octotrmnl/internal/carbon"
	"github.com/awaistahir/octotrmnl/internal/config"
	"github.com/awaistahir/octotrmnl/internal/logger"
	"github.com/awaistahir/octotrmnl/internal/metrics"
	"github.com/awaistahir/octotrmnl/internal/octopus"
	"github.com/awaistahir/octotrmnl/internal/report"
	"github.com/awaistahir/octotrmnl/internal/store"
	"github.com/awaistahir/octotrmnl/internal/upstream"
)

type App struct {
	Settings   *config.Settings
	Location   *time.Location
	Metrics    *metrics.Metrics
	Cache      store.Cache
	Octopus    *octopus.Client
	Carbon     *carbon.Client
	Aggregator *report.Aggregator
}

// New validates s and builds every dependency. m may be nil.
func New(s *config.Settings, m *metrics.Metrics) (*App, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	loc, err := s.Location()
	if err != nil {
		return nil, err
	}

	cache, err := store.Open(s.Cache.Backend, s.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	httpClient := upstream.New(s.HTTP.Timeout, m)
	octo := octopus.NewClient(httpClient, s.OctopusConfig())
	ci := carbon.NewClient(httpClient, s.Carbon.BaseURL)

	agg := report.New(octo, ci, cache)
	agg.TTL = s.Cache.TTL
	agg.PeakTTL = s.Cache.PeakTTL
	agg.Loc = loc
	agg.Metrics = m

	logger.Debug("app initialised",
		"cache_backend", s.Cache.Backend, "cache_path", s.Cache.Path, "timezone", loc.String())

	return &App{
		Settings:   s,
		Location:   loc,
		Metrics:    m,
		Cache:      cache,
		Octopus:    octo,
		Carbon:     ci,
		Aggregator: agg,
	}, nil
}

func (a *App) Close() error {
	return a.Cache.Close()
}
