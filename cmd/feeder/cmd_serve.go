package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/ais-weather-feeder/internal/adapter/erddap"
	httpadapter "github.com/couchcryptid/ais-weather-feeder/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ais-weather-feeder/internal/adapter/kafka"
	"github.com/couchcryptid/ais-weather-feeder/internal/config"
	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
	"github.com/couchcryptid/ais-weather-feeder/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	bindAddress    string
	dumpAllPackets bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive AIS-catcher packets and feed ERDDAP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&bindAddress, "bind-address", "", "listen address, overriding http_addr")
	serveCmd.Flags().BoolVar(&dumpAllPackets, "dump-all-packets", false, "log every received packet in full")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if bindAddress != "" {
		cfg.HTTPAddr = bindAddress
	}
	if dumpAllPackets {
		cfg.DumpAllPackets = true
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	processor, closeMirror := buildProcessor(cfg, metrics, logger)
	defer closeMirror()

	srv := httpadapter.NewServer(cfg.HTTPAddr, processor, metrics, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// loadConfig reads the configuration. A missing file is replaced by the
// template, which still has to be edited before the feeder will start.
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrNotFound) {
		if werr := config.WriteTemplate(path); werr != nil {
			return nil, errors.Join(err, werr)
		}
		return nil, fmt.Errorf("%w; wrote a template to %s, edit it and restart", err, path)
	}
	return cfg, err
}

// buildProcessor wires the configuration into a processor. The returned func
// closes the Kafka mirror when one is enabled.
func buildProcessor(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*pipeline.Processor, func()) {
	rules, dups := cfg.AcceptanceTable()
	for _, id := range dups {
		logger.Warn("acceptance rule defined more than once, last definition wins", "identifier", id.String())
	}

	publish := cfg.PublishConfig()
	if names := publish.RenameCollisions(domain.WeatherFieldNames()); len(names) > 0 {
		logger.Warn("renamed fields collide, later field wins", "names", names)
	}
	if names := publish.UnknownFields(domain.WeatherFieldNames()); len(names) > 0 {
		logger.Warn("publish settings name unknown weather fields", "names", names)
	}

	builder := pipeline.NewSubmissionBuilder(pipeline.Settings{
		Rules:     rules,
		Publish:   publish,
		Stations:  cfg.StationNames(),
		AuthorKey: cfg.ERDDAPKey,
	})

	client := erddap.NewClient(cfg.ERDDAPURL, cfg.ERDDAP.Timeout, metrics, logger)
	submitter := erddap.NewGuardedSubmitter(client, erddap.GuardConfig{
		RateLimit:           cfg.ERDDAP.RateLimit,
		Burst:               cfg.ERDDAP.RateBurst,
		BreakerEnabled:      cfg.ERDDAP.BreakerEnabled,
		ConsecutiveFailures: cfg.ERDDAP.BreakerFailures,
		OpenTimeout:         cfg.ERDDAP.BreakerOpenTimeout,
	}, metrics, logger)

	opts := []pipeline.Option{pipeline.WithPacketDump(cfg.DumpAllPackets)}
	closeMirror := func() {}
	if cfg.Kafka.Enabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithMirror(writer))
		closeMirror = func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		logger.Info("kafka mirror enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	logger.Info("feeder configured",
		"config", cfg.Path,
		"erddap_url", cfg.ERDDAPURL,
		"rules", rules.Len(),
		"stations", len(cfg.MMSILookup),
	)
	return pipeline.New(builder, submitter, logger, metrics, opts...), closeMirror
}
