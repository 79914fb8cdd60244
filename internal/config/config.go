// Package config loads settings from a YAML file, .env files, the environment
// and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awaistahir/octotrmnl/internal/carbon"
	"github.com/awaistahir/octotrmnl/internal/octopus"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "OCTOTRMNL"
	dirName   = ".octotrmnl"

	DefaultCacheTTL    = 25 * time.Minute
	DefaultHTTPTimeout = 10 * time.Second
	DefaultPort        = 8080
)

// ErrMissingSettings is wrapped by Validate when required keys are empty
var ErrMissingSettings = errors.New("missing required settings")

type OctopusSettings struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type ElectricitySettings struct {
	MPAN    string `mapstructure:"mpan"`
	Serial  string `mapstructure:"serial"`
	Product string `mapstructure:"product"`
	Tariff  string `mapstructure:"tariff"`
}

type GasSettings struct {
	MPRN    string `mapstructure:"mprn"`
	Serial  string `mapstructure:"serial"`
	Product string `mapstructure:"product"`
	Tariff  string `mapstructure:"tariff"`
}

type CarbonSettings struct {
	BaseURL string `mapstructure:"base_url"`
}

type CacheSettings struct {
	Backend string        `mapstructure:"backend"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
	PeakTTL time.Duration `mapstructure:"peak_ttl"`
}

type HTTPSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerSettings struct {
	Port int `mapstructure:"port"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Settings is the full application configuration
type Settings struct {
	Octopus     OctopusSettings     `mapstructure:"octopus"`
	Electricity ElectricitySettings `mapstructure:"electricity"`
	Gas         GasSettings         `mapstructure:"gas"`
	Carbon      CarbonSettings      `mapstructure:"carbon"`
	Cache       CacheSettings       `mapstructure:"cache"`
	HTTP        HTTPSettings        `mapstructure:"http"`
	Server      ServerSettings      `mapstructure:"server"`
	Timezone    string              `mapstructure:"timezone"`
	Log         LogSettings         `mapstructure:"log"`
}

// Environment names kept from the single-account deployment
var envAliases = map[string]string{
	"octopus.api_key":     "OCTOPUS_API_KEY",
	"electricity.mpan":    "MPAN",
	"electricity.serial":  "ELECTRICITY_SERIAL",
	"electricity.product": "ELECTRICITY_PRODUCT",
	"electricity.tariff":  "ELECTRICITY_TARIFF",
	"gas.mprn":            "MPRN",
	"gas.serial":          "GAS_SERIAL",
	"gas.product":         "GAS_PRODUCT",
	"gas.tariff":          "GAS_TARIFF",
}

// Dir returns $HOME/.octotrmnl, or the working directory when there is no home
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, dirName)
}

// SetDefaults registers every key so that environment overrides are seen by
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("octopus.api_key", "")
	v.SetDefault("octopus.base_url", octopus.DefaultBaseURL)
	for _, k := range []string{"mpan", "serial", "product", "tariff"} {
		v.SetDefault("electricity."+k, "")
	}
	for _, k := range []string{"mprn", "serial", "product", "tariff"} {
		v.SetDefault("gas."+k, "")
	}
	v.SetDefault("carbon.base_url", carbon.DefaultBaseURL)
	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.path", filepath.Join(Dir(), "cache.db"))
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.peak_ttl", DefaultCacheTTL)
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("timezone", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Prepare points v at the config file and environment. cfgFile may be empty,
// in which case $HOME/.octotrmnl/config.yaml is used if present.
func Prepare(v *viper.Viper, cfgFile string) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, alias)
	}
}

// LoadDotEnv loads the first .env file found among paths. Variables already
// set in the environment win.
func LoadDotEnv(paths ...string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("loading %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// DotEnvPaths lists where .env files are looked for
func DotEnvPaths() []string {
	paths := []string{}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	paths = append(paths, filepath.Join(Dir(), ".env"))
	return paths
}

// Load reads the config file (if any) and decodes v into Settings. A missing
// config file is not an error.
func Load(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return Decode(v)
}

// Decode converts the current state of v into Settings
func Decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &s, nil
}

// Validate reports every missing required key in one error
func (s *Settings) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"octopus.api_key", s.Octopus.APIKey},
		{"electricity.mpan", s.Electricity.MPAN},
		{"electricity.serial", s.Electricity.Serial},
		{"electricity.product", s.Electricity.Product},
		{"electricity.tariff", s.Electricity.Tariff},
		{"gas.mprn", s.Gas.MPRN},
		{"gas.serial", s.Gas.Serial},
		{"gas.product", s.Gas.Product},
		{"gas.tariff", s.Gas.Tariff},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSettings, strings.Join(missing, ", "))
	}

	switch s.Cache.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("cache.backend must be sqlite or memory, got %q", s.Cache.Backend)
	}

	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone; empty means the local zone
func (s *Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// OctopusConfig returns the account details for the Octopus client
func (s *Settings) OctopusConfig() octopus.Config {
	return octopus.Config{
		BaseURL: s.Octopus.BaseURL,
		APIKey:  s.Octopus.APIKey,
		Electricity: octopus.Meter{
			PointID: s.Electricity.MPAN,
			Serial:  s.Electricity.Serial,
			Product: s.Electricity.Product,
			Tariff:  s.Electricity.Tariff,
		},
		Gas: octopus.Meter{
			PointID: s.Gas.MPRN,
			Serial:  s.Gas.Serial,
			Product: s.Gas.Product,
			Tariff:  s.Gas.Tariff,
		},
	}
}
