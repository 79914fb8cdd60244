package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/awaistahir/octotrmnl/internal/app"
	"github.com/awaistahir/octotrmnl/internal/config"
	"github.com/awaistahir/octotrmnl/internal/engine"
	"github.com/awaistahir/octotrmnl/internal/logger"
	"github.com/awaistahir/octotrmnl/internal/octopus"
	"github.com/awaistahir/octotrmnl/internal/render"
	"github.com/awaistahir/octotrmnl/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	settings *config.Settings
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "octotrmnl",
		Short: "OctoTRMNL - Octopus Energy usage, cost and grid carbon at a glance",
		Long: `OctoTRMNL reports month-to-date electricity and gas usage and cost from
the Octopus Energy API alongside the national carbon intensity forecast.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.octotrmnl/config.yaml)")
	rootCmd.PersistentFlags().String("cache-path", "", "cache database path (default is $HOME/.octotrmnl/cache.db)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("timezone", "", "IANA zone for displayed times (default is local)")

	viper.BindPFlag("cache.path", rootCmd.PersistentFlags().Lookup("cache-path"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(carbonCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() error {
	if _, err := config.LoadDotEnv(config.DotEnvPaths()...); err != nil {
		return err
	}

	v := viper.GetViper()
	config.Prepare(v, cfgFile)

	s, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := logger.Setup(s.Log.Level, s.Log.Format); err != nil {
		return err
	}
	if f := v.ConfigFileUsed(); f != "" {
		logger.Debug("using config file", "path", f)
	}

	settings = s
	return nil
}

func openApp() (*app.App, error) {
	a, err := app.New(settings, nil)
	if err != nil {
		return nil, fmt.Errorf("%w (set them in $HOME/.octotrmnl/config.yaml, .env or the environment)", err)
	}
	return a, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the month-to-date report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.Aggregator.Build(cmd.Context())
			if err != nil {
				return err
			}

			if pretty {
				fmt.Println(render.Summary(r))
				return nil
			}
			return printJSON(r)
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Render a styled summary instead of JSON")

	return cmd
}

func carbonCmd() *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "carbon",
		Short: "Chart the next 24 hours of grid carbon intensity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.Aggregator.CarbonData(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(render.CarbonChart(data.Forecast, width, height))
			fmt.Println()
			fmt.Println(render.CarbonSummary(data.Summary))
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 72, "Chart width")
	cmd.Flags().IntVar(&height, "height", 12, "Chart height")

	return cmd
}

func ratesCmd() *cobra.Command {
	var fuel string
	var date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the unit rates for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := octopus.Fuel(fuel)
			if f != octopus.Electricity && f != octopus.Gas {
				return fmt.Errorf("invalid fuel %q (use electricity or gas)", fuel)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			day := time.Now().In(a.Location)
			if date != "today" {
				day, err = time.ParseInLocation("2006-01-02", date, a.Location)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}
			from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, a.Location)
			to := from.AddDate(0, 0, 1)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			rates, err := a.Octopus.UnitRates(ctx, f, from, to)
			if err != nil {
				return err
			}
			engine.SortRates(rates)

			if asJSON {
				return printJSON(rates)
			}
			fmt.Println(render.RatesTable(rates, a.Location, 72))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fuel, "fuel", "f", "electricity", "Fuel (electricity or gas)")
	cmd.Flags().StringVarP(&date, "date", "d", "today", "Date to show (YYYY-MM-DD or 'today')")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a chart")

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(cachePurgeCmd())

	return cmd
}

func cachePurgeCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := store.Open(settings.Cache.Backend, settings.Cache.Path)
			if err != nil {
				return err
			}
			defer c.Close()

			var n int64
			if all {
				n, err = c.Clear(cmd.Context())
			} else {
				n, err = c.PurgeExpired(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Printf("✓ Removed %d cache entries\n", n)
			fmt.Printf("Cache: %s\n", settings.Cache.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every entry, not only expired ones")

	return cmd
}
