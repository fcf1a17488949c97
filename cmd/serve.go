package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"opensoak/internal/config"
	"opensoak/internal/engine"
	"opensoak/internal/handlers"
	"opensoak/internal/hardware"
	"opensoak/internal/logger"
	"opensoak/internal/metrics"
	"opensoak/internal/publisher"
	"opensoak/internal/repository"
	"opensoak/internal/repository/db"
	"opensoak/internal/server"
	"opensoak/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the safety engine, scheduler and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LoggerOptions())
	if cfg.LogLevel != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// open DB
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(sqlDB)

	hw, err := hardware.New(cfg.Hardware, log.Named("hardware"))
	if err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}

	collector, gatherer, err := newMetrics(cfg.Metrics)
	if err != nil {
		_ = hw.Close()
		return err
	}

	pub := openPublisher(cfg.MQTT, log.Named("mqtt"))
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			log.Warnw("failed to close publisher", "err", cerr)
		}
	}()

	// wire dependencies
	eng := engine.New(engineConfig(cfg.Engine), hw, engine.Stores{
		Desired:     repos.Desired,
		Settings:    repos.Settings,
		Temperature: repos.Temperature,
		Usage:       repos.Usage,
		Thermal:     repos.Thermal,
		Energy:      repos.Energy,
	}, log.Named("engine"), engine.WithMetrics(collector), engine.WithPublisher(pub))

	services := service.NewService(service.Deps{
		Repos:     repos,
		Engine:    eng,
		Publisher: pub,
		Log:       log,
		Auth: service.AuthOptions{
			SigningKey:       cfg.Auth.SigningKey,
			TokenTTL:         cfg.Auth.TokenTTL,
			OpenRegistration: cfg.Auth.OpenRegistration,
		},
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"), gatherer)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		_ = hw.Close()
		return fmt.Errorf("start engine: %w", err)
	}
	defer func() {
		if serr := eng.Stop(); serr != nil {
			log.Errorw("engine stop failed", "err", serr)
		}
	}()

	go services.Scheduler.Run(ctx, cfg.Scheduler.Interval)

	// start HTTP server
	srv := server.New(cfg.Port, apiHandler.InitRoutes(), log.Named("http"))
	serveErr := runHTTPServer(srv, log)

	// graceful shutdown
	return waitForShutdown(cancel, eng, srv, serveErr, log)
}

func engineConfig(c config.EngineConfig) engine.Config {
	return engine.Config{
		PollInterval:        c.PollInterval,
		FlowGracePeriod:     c.FlowGracePeriod,
		MaxFlowFailures:     c.MaxFlowFailures,
		TempLogInterval:     c.TempLogInterval,
		EnergyFlushInterval: c.EnergyFlushInterval,
	}
}

// newMetrics registers the engine metrics plus Go runtime collectors on a
// private registry. Disabled metrics yield a Nop collector and no gatherer.
func newMetrics(c config.MetricsConfig) (metrics.Collector, prometheus.Gatherer, error) {
	if !c.Enabled {
		return metrics.Nop{}, nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p, err := metrics.NewPrometheus(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}
	return p, reg, nil
}

// openPublisher connects to the broker when one is configured. A broker that
// cannot be reached downgrades to Nop; the controller runs without MQTT.
func openPublisher(c config.MQTTConfig, log *logger.Logger) publisher.Publisher {
	if c.Broker == "" {
		return publisher.Nop{}
	}
	p, err := publisher.NewMQTT(c.Broker, c.ClientID, c.TopicPrefix, log)
	if err != nil {
		log.Warnw("mqtt_unavailable", "broker", c.Broker, "err", err)
		return publisher.Nop{}
	}
	return p
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http_listening", "addr", srv.Addr())
		errCh <- srv.Run()
	}()
	return errCh
}

// stopper is the part of the engine shutdown needs.
type stopper interface {
	Stop() error
}

// waitForShutdown blocks until a termination signal or a server failure. It
// de-energizes the spa first and only then drains the HTTP server.
func waitForShutdown(cancel context.CancelFunc, eng stopper, srv *server.Server, serveErr <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	case runErr = <-serveErr:
		log.Errorw("http server failed", "err", runErr)
	}

	// stop background goroutines and every relay before the drain
	cancel()
	if err := eng.Stop(); err != nil {
		log.Errorw("engine stop failed", "err", err)
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	return runErr
}
