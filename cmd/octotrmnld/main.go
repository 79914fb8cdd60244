package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awaistahir/octotrmnl/internal/app"
	"github.com/awaistahir/octotrmnl/internal/config"
	"github.com/awaistahir/octotrmnl/internal/logger"
	"github.com/awaistahir/octotrmnl/internal/metrics"
	"github.com/awaistahir/octotrmnl/internal/store"
	"github.com/awaistahir/octotrmnl/internal/uiapi"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	var cfgFile string
	var purgeInterval time.Duration

	rootCmd := &cobra.Command{
		Use:          "octotrmnld",
		Short:        "OctoTRMNL HTTP server for the e-ink display",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadDotEnv(config.DotEnvPaths()...); err != nil {
				return err
			}

			v := viper.GetViper()
			config.Prepare(v, cfgFile)
			settings, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := logger.Setup(settings.Log.Level, settings.Log.Format); err != nil {
				return err
			}

			m := metrics.New()
			a, err := app.New(settings, m)
			if err != nil {
				return err
			}
			defer a.Close()

			if f := v.ConfigFileUsed(); f != "" {
				watchConfig(v, f)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go purgeLoop(ctx, a.Cache, purgeInterval)

			srv := uiapi.NewServer(a.Aggregator, m)
			srv.Version = version

			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", settings.Server.Port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("OctoTRMNL server starting",
					"port", settings.Server.Port, "version", version,
					"cache_backend", settings.Cache.Backend, "timezone", a.Location.String())
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.octotrmnl/config.yaml)")
	rootCmd.Flags().IntP("port", "p", config.DefaultPort, "HTTP port")
	rootCmd.Flags().String("cache-path", "", "cache database path (default is $HOME/.octotrmnl/cache.db)")
	rootCmd.Flags().DurationVar(&purgeInterval, "purge-interval", time.Hour, "How often expired cache entries are deleted")

	viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	viper.BindPFlag("cache.path", rootCmd.Flags().Lookup("cache-path"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// watchConfig applies log changes from the config file without a restart.
// Other settings need one.
func watchConfig(v *viper.Viper, path string) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s, err := config.Decode(v)
		if err != nil {
			logger.Warn("ignoring config change", "path", e.Name, "error", err)
			return
		}
		if err := logger.SetLevel(s.Log.Level); err != nil {
			logger.Warn("ignoring config change", "path", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "path", e.Name, "log_level", s.Log.Level)
	})
	v.WatchConfig()
	logger.Debug("watching config file", "path", path)
}

func purgeLoop(ctx context.Context, c store.Cache, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purging cache", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired cache entries", "count", n)
			}
		}
	}
}
