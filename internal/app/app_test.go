package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/awaistahir/octotrmnl/internal/config"
	"github.com/awaistahir/octotrmnl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings(t *testing.T) *config.Settings {
	return &config.Settings{
		Octopus:     config.OctopusSettings{APIKey: "sk_live_test"},
		Electricity: config.ElectricitySettings{MPAN: "1200000000001", Serial: "21E0000001", Product: "AGILE-24-10-01", Tariff: "E-1R-AGILE-24-10-01-C"},
		Gas:         config.GasSettings{MPRN: "3000000001", Serial: "G4P0000001", Product: "VAR-22-11-01", Tariff: "G-1R-VAR-22-11-01-C"},
		Cache: config.CacheSettings{
			Backend: "sqlite",
			Path:    filepath.Join(t.TempDir(), "cache.db"),
			TTL:     10 * time.Minute,
			PeakTTL: time.Hour,
		},
		HTTP:     config.HTTPSettings{Timeout: 5 * time.Second},
		Timezone: "UTC",
	}
}

func TestNew(t *testing.T) {
	a, err := New(validSettings(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.Store{}, a.Cache)
	assert.Equal(t, 10*time.Minute, a.Aggregator.TTL)
	assert.Equal(t, time.Hour, a.Aggregator.PeakTTL)
	assert.Equal(t, time.UTC, a.Aggregator.Loc)
}

func TestNew_Invalid(t *testing.T) {
	s := validSettings(t)
	s.Octopus.APIKey = ""

	_, err := New(s, nil)
	assert.True(t, errors.Is(err, config.ErrMissingSettings))
}
