package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mitchelldurbincs/wargame/internal/changesync"
	"github.com/mitchelldurbincs/wargame/internal/config"
	"github.com/mitchelldurbincs/wargame/internal/game/events"
	"github.com/mitchelldurbincs/wargame/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
	"github.com/mitchelldurbincs/wargame/internal/monitoring"
	"github.com/mitchelldurbincs/wargame/internal/persistence"
	"github.com/mitchelldurbincs/wargame/internal/scenario"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", -1, "The sync server port (-1 to use config default)")
	host := flag.String("host", "", "The sync server host (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	gameID := flag.String("game-id", "", "ID the history is stored under (empty generates one)")
	demo := flag.Bool("demo", false, "Play the scripted opening once the server is up")
	flag.Parse()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}

	cfg := config.Get()

	// Use config defaults if not overridden by flags
	if *port == -1 {
		*port = cfg.Sync.Port
	}
	if *host == "" {
		*host = cfg.Sync.Host
	}
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	if !*demo {
		*demo = cfg.Demo.Enabled
	}
	if *gameID == "" {
		*gameID = uuid.NewString()
	}

	setupLogging(*logLevel, cfg.Logging.Format)

	log.Info().
		Str("game_id", *gameID).
		Str("scenario", scenario.Name).
		Int("port", *port).
		Str("host", *host).
		Bool("demo", *demo).
		Msg("Starting wargame server")

	bus := events.NewEventBus()
	eventLogger := subscribers.NewLoggerSubscriber("event-logger", log.Logger, zerolog.DebugLevel)
	eventLogger.SetDevMode(*logLevel == "debug")
	bus.Subscribe(eventLogger)

	// Changes are refused until the server is up and again once it starts
	// draining.
	var accepting atomic.Bool

	opts := []state.Option{
		state.WithGameID(*gameID),
		state.WithEventBus(bus),
		state.WithLockAssertions(cfg.State.LockAssertions),
		state.WithHistoryCapacity(cfg.State.HistoryCapacity),
	}
	if cfg.State.EnforceChangeGuard {
		opts = append(opts, state.WithChangeGuard(accepting.Load))
	}

	var monitor *monitoring.GatewayMonitor
	if cfg.Monitoring.Enabled {
		monitor = monitoring.NewGatewayMonitor(time.Duration(cfg.Monitoring.SlowWriteThreshold) * time.Millisecond)
		monitor.SetCheckInterval(time.Duration(cfg.Monitoring.ReportInterval) * time.Second)
		opts = append(opts, state.WithObserver(monitor))
	}

	d, err := scenario.Build(scenario.Options{EnforceCanals: cfg.Routing.EnforceCanals, State: opts})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build scenario")
	}

	if cfg.Persistence.Enabled {
		store, err := persistence.Open(cfg.Persistence.Path, *gameID)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Persistence.Path).Msg("Failed to open history store")
		}
		defer store.Close()
		d.History().AddWriter(store)
		log.Info().Str("path", cfg.Persistence.Path).Msg("Persisting history")
	}

	hub := changesync.NewHub(d, cfg.Sync.SubscriberBuffer)
	limiter := changesync.NewPeerLimiter(cfg.Sync.RateLimit, cfg.Sync.Burst)

	// Create listener
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	// Create gRPC server with interceptors
	rpc := newRPCInterceptors(log.Logger)
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			rpc.unaryLogging,
			rpc.unaryRecovery,
		),
		grpc.ChainStreamInterceptor(
			rpc.streamLogging,
			rpc.streamRecovery,
		),
	)
	changesync.RegisterChangeSyncServer(grpcServer, changesync.NewServer(d, hub, limiter))

	// Register health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(changesync.ChangeSync_ServiceDesc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.Sync.EnableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}

	var feedServer *http.Server
	if cfg.Sync.Feed.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Sync.Feed.Path, changesync.NewFeed(d, hub, cfg.Sync.Feed.OriginPatterns...))
		feedServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", *host, cfg.Sync.Feed.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	config.WatchConfig(func() {
		zerolog.SetGlobalLevel(parseLevel(config.Get().Logging.Level))
		log.Info().Str("file", config.ConfigFilePath()).Msg("Config reloaded")
	})

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	started := time.Now()
	accepting.Store(true)
	if monitor != nil {
		monitor.Start()
		defer monitor.Stop()
	}
	bus.Publish(events.NewGameStartedEvent(*gameID, d.Players().Len(), d.Map().Len()))

	g.Go(func() error {
		log.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	if feedServer != nil {
		g.Go(func() error {
			log.Info().Str("address", feedServer.Addr).Str("path", cfg.Sync.Feed.Path).Msg("Change feed listening")
			if err := feedServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("feed serve: %w", err)
			}
			return nil
		})
	}

	if *demo {
		g.Go(func() error {
			playOpening(gctx, d, time.Duration(cfg.Demo.Interval)*time.Second, costModel(cfg.Routing.CostModel))
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Received shutdown signal")

		// Set health status to NOT_SERVING
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(changesync.ChangeSync_ServiceDesc.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		// Give ongoing requests time to complete
		if ctx.Err() != nil {
			time.Sleep(time.Duration(cfg.Sync.GracefulShutdownDelay) * time.Second)
		}

		// Subscribe streams only end when the hub closes them.
		hub.Close()
		log.Info().Msg("Gracefully stopping gRPC server")
		grpcServer.GracefulStop()

		if feedServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := feedServer.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Change feed shutdown incomplete")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
	accepting.Store(false)

	bus.Publish(events.NewGameEndedEvent(*gameID, time.Since(started), d.History().Len()))
	if monitor != nil {
		m := monitor.GetMetrics()
		log.Info().
			Int("performed", m.Performed).
			Int("failed", m.Failed).
			Int("slow_writes", m.SlowWrites).
			Dur("max_lock_held", m.MaxLockHeld).
			Msg("Gateway summary")
	}
	log.Info().Int("history", d.History().Len()).Msg("Server shutdown complete")
}

// playOpening performs the scripted opening, one move per interval.
func playOpening(ctx context.Context, d *state.GameData, interval time.Duration, cost gamemap.CostModel) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for _, m := range scenario.Opening(cost) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := m.Play(ctx, d); err != nil {
			log.Error().Err(err).Str("move", m.Name).Msg("Demo move failed")
			return
		}
		log.Info().
			Str("move", m.Name).
			Str("step", d.Sequence().StepName()).
			Int("history", d.History().Len()).
			Msg("Demo move played")
	}
	log.Info().Msg("Demo opening complete")
}

func costModel(name string) gamemap.CostModel {
	if name == "hop" {
		return gamemap.HopCost
	}
	return nil
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func setupLogging(level, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))

	if format == "json" || os.Getenv("APP_ENV") == "production" {
		// JSON output for production
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
