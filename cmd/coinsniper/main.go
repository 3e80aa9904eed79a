package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RichieLoco/coinsniper/internal/assess"
	"github.com/RichieLoco/coinsniper/internal/cache"
	"github.com/RichieLoco/coinsniper/internal/config"
	"github.com/RichieLoco/coinsniper/internal/decide"
	"github.com/RichieLoco/coinsniper/internal/feed"
	"github.com/RichieLoco/coinsniper/internal/infrastructure/db"
	httpapi "github.com/RichieLoco/coinsniper/internal/interfaces/http"
	"github.com/RichieLoco/coinsniper/internal/llm"
	"github.com/RichieLoco/coinsniper/internal/persistence"
	"github.com/RichieLoco/coinsniper/internal/poller"
)

const (
	appName = "coinsniper"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Watches exchange listing announcements and turns model risk assessments into trade decisions",
		Version: version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the announcement poller and control-surface HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "config/coinsniper.yaml", "Path to YAML configuration")
	serveCmd.Flags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if level, err := zerolog.ParseLevel(logLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	httpapi.InitializeMetrics()
	metrics := httpapi.DefaultMetrics

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence
	dbManager, err := db.NewManager(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime(),
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime(),
		QueryTimeout:    cfg.Database.QueryTimeout(),
		Enabled:         cfg.Database.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbManager.Close()

	var repos *persistence.Repository
	if dbManager.IsEnabled() {
		if err := dbManager.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		repos = dbManager.Repository()
	} else {
		return fmt.Errorf("database must be enabled: announcements, assessments and decisions require durable storage")
	}

	// Ingestion pipeline
	seen := cache.NewAuto(cfg.Cache.RedisAddr)
	feedClient := feed.NewClient(cfg.Feed)
	ingestor := feed.NewIngestor(feedClient, repos.Announcements, repos.Errors, seen, cfg.Cache.SeenTTL())
	ingestor.ErrorHook = metrics.RecordIngestError

	// Assessment pipeline behind breaker + metrics decorators
	var completion llm.CompletionClient = llm.NewHTTPClient(cfg.Provider)
	completion = llm.NewObservedClient(completion, metrics.RecordCompletion)
	completion = llm.NewBreakerClient(completion, cfg.Provider.Circuit)
	pipeline := assess.NewPipeline(completion, repos.Assessments, cfg.Provider.Workers)

	// Decision engine
	engine := decide.NewEngine(pipeline, repos.Decisions, cfg.Trade)

	// Polling controller
	p := poller.New(cfg.Poll.Interval(), func(tickCtx context.Context) {
		stored := ingestor.RunCycle(tickCtx)
		metrics.RecordTick(stored)
	})
	if cfg.Poll.AutoStart {
		p.Start()
	}
	defer p.Stop()

	// Control surface
	handlers := httpapi.NewHandlers(p, engine.Decide, repos.Decisions, dbManager.Health(), metrics)
	server, err := httpapi.NewServer(cfg.HTTP, handlers)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	log.Info().
		Str("version", version).
		Dur("poll_interval", cfg.Poll.Interval()).
		Bool("auto_start", cfg.Poll.AutoStart).
		Strs("supported_exchanges", cfg.Trade.SupportedExchanges).
		Msg("CoinSniper starting")

	return server.Start(ctx)
}
