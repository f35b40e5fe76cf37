package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"contenthub/ingestor/internal/config"
	"contenthub/ingestor/internal/database"
	"contenthub/ingestor/internal/ingest"
	"contenthub/ingestor/internal/server"
	"contenthub/ingestor/internal/source"
	"contenthub/ingestor/internal/storage"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func usage() {
	fmt.Println("Usage: ingestor [command] [options]")
	fmt.Println("Commands: ingest, serve")
	fmt.Println("\nFor command-specific options, use: ingestor [command] -h")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "ingest":
		err = ingestCommand(os.Args[2:])
	case "serve":
		err = serveCommand(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig builds the configuration for a subcommand: defaults and env
// first, then the optional YAML file named by -config (or INGESTOR_CONFIG).
// Flag values are applied by the caller after parsing, so flags win.
func loadConfig(args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	configPath := config.GetEnvString("INGESTOR_CONFIG", "")
	// Pre-scan for -config so the file is loaded before flag defaults are
	// registered against cfg.
	for i, arg := range args {
		switch {
		case (arg == "-config" || arg == "--config") && i+1 < len(args):
			configPath = args[i+1]
		case strings.HasPrefix(arg, "-config="):
			configPath = strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		}
	}

	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ingestCommand runs incremental ingestion, one-shot or periodic.
func ingestCommand(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	fs.String("config", "", "Path to YAML config file (env: INGESTOR_CONFIG)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: INGESTOR_DB_PATH)")

	var intervalMinutes int
	fs.IntVar(&intervalMinutes, "interval", int(cfg.Interval.Minutes()),
		"Interval in minutes between ingestion runs, 0 for one-shot mode (env: INGESTOR_INTERVAL)")
	fs.IntVar(&cfg.SourcePages, "pages", cfg.SourcePages,
		"Number of source feeds fetched per run (env: INGESTOR_SOURCE_PAGES)")
	fs.IntVar(&cfg.RecentLimit, "limit", cfg.RecentLimit,
		"Number of recent records inspected for the dedup baseline (env: INGESTOR_RECENT_LIMIT)")

	logLevelStr := fs.String("log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: INGESTOR_LOG_LEVEL)")

	fs.Parse(args)

	if level, err := zerolog.ParseLevel(*logLevelStr); err == nil {
		cfg.LogLevel = level
	}
	cfg.Interval = time.Duration(intervalMinutes) * time.Minute

	zerolog.SetGlobalLevel(cfg.LogLevel)

	return runIngest(cfg)
}

// serveCommand starts the HTTP API server.
func serveCommand(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.String("config", "", "Path to YAML config file (env: INGESTOR_CONFIG)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: INGESTOR_DB_PATH)")
	fs.StringVar(&cfg.ServerHost, "host", cfg.ServerHost,
		"Host to bind the server to (env: INGESTOR_HOST)")
	fs.IntVar(&cfg.ServerPort, "port", cfg.ServerPort,
		"Port to listen on (env: INGESTOR_PORT)")

	logLevelStr := fs.String("log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: INGESTOR_LOG_LEVEL)")

	fs.Parse(args)

	if level, err := zerolog.ParseLevel(*logLevelStr); err == nil {
		cfg.LogLevel = level
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)

	return runServe(cfg)
}

// newService wires storage and the feed source into an ingestion service.
func newService(cfg *config.Config, db *database.DB) *ingest.Service {
	store := storage.NewStore(db)

	var fetch ingest.FetchFunc
	if len(cfg.Feeds) > 0 {
		fetch = source.New(cfg.Feeds).Fetch
	} else {
		log.Warn().Msg("No source feeds configured, incremental ingestion disabled")
	}

	return ingest.NewService(store, fetch, cfg.SourcePages)
}

// runIngest executes incremental ingestion either once or periodically
// based on configuration.
func runIngest(cfg *config.Config) error {
	if cfg.Interval <= 0 {
		log.Info().Msg("Running in one-shot mode")
	} else {
		log.Info().Int64("interval_minutes", int64(cfg.Interval.Minutes())).Msg("Running in periodic mode")
	}

	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	svc := newService(cfg, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	if err := runIngestCycle(ctx, svc, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Ingestion cycle canceled by shutdown signal")
			return nil
		}
		return err
	}

	if cfg.Interval == 0 {
		log.Info().Msg("One-shot ingestion completed, exiting")
		return nil
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", cfg.Interval).
		Time("next_run", time.Now().Add(cfg.Interval)).
		Msg("Waiting for next ingestion cycle")

	for {
		select {
		case <-ticker.C:
			log.Info().Msg("Starting scheduled ingestion cycle")

			if err := runIngestCycle(ctx, svc, cfg); err != nil {
				if errors.Is(err, context.Canceled) {
					log.Info().Msg("Ingestion cycle canceled by shutdown signal")
					return nil
				}
				log.Error().Err(err).Msg("Ingestion cycle failed")
				// Continue to the next cycle rather than exiting
			}

			log.Info().
				Time("next_run", time.Now().Add(cfg.Interval)).
				Msg("Waiting for next ingestion cycle")

		case <-ctx.Done():
			log.Info().Msg("Shutting down periodic ingestion")
			return nil
		}
	}
}

// runIngestCycle executes a single incremental ingestion cycle.
func runIngestCycle(ctx context.Context, svc *ingest.Service, cfg *config.Config) error {
	cycleCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	startTime := time.Now()
	created, err := svc.IngestFromSource(cycleCtx, cfg.RecentLimit)
	if err != nil {
		if ctxErr := cycleCtx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctx.Err()
		}
		return fmt.Errorf("ingestion error: %w", err)
	}

	log.Info().
		Int("created", len(created)).
		Dur("duration", time.Since(startTime)).
		Msg("Ingestion cycle finished")

	return nil
}

// runServe starts the HTTP API server with the provided configuration. The
// connection is read-write: the server also accepts ingestion calls.
func runServe(cfg *config.Config) error {
	dbCfg := database.NewConfig(cfg.DBPath)

	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	svc := newService(cfg, db)

	return server.RunServer(svc, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}
