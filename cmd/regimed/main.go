// Command regimed runs the regime detection and strategy selection engine on
// a cron schedule during market hours.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradestack/regime/config"
	"github.com/tradestack/regime/internal/engine"
	"github.com/tradestack/regime/internal/marketdata"
	"github.com/tradestack/regime/internal/notify"
	"github.com/tradestack/regime/internal/scheduler"
	"github.com/tradestack/regime/internal/store"
	"github.com/tradestack/regime/models"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	runOnce := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Bad thresholds would produce unaudited bad decisions; never start.
		log.Fatal().Err(err).Msg("Configuration invalid")
	}
	if level, err := zerolog.ParseLevel(cfg.Env.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	bars := marketdata.New(marketdata.Config{
		BaseURL:         cfg.Data.BaseURL,
		APIKey:          cfg.Env.DataAPIKey,
		RequestTimeout:  time.Duration(cfg.Data.RequestTimeout) * time.Second,
		RateLimitPerSec: cfg.Data.RateLimitPerSec,
		MaxRetryElapsed: time.Duration(cfg.Data.MaxRetryElapsed) * time.Second,
	}, log.Logger)

	var snapStore models.SnapshotStore
	if cfg.Env.DatabaseURL != "" {
		pg, err := store.Open(cfg.Env.DatabaseURL, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Snapshot store unavailable")
		}
		defer pg.Close()
		snapStore = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, snapshots will not be persisted")
	}

	var sink models.DecisionSink
	if cfg.Env.TelegramToken != "" && cfg.Env.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Env.TelegramToken, cfg.Env.TelegramChatID, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Telegram notifier unavailable")
		}
		sink = tg
	}

	eng, err := engine.Build(cfg, bars, snapStore, sink, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Engine wiring failed")
	}

	sentiment := cfg.Env.ParsedSentiment()
	cycleTimeout := time.Duration(cfg.Schedule.CycleTimeout) * time.Second
	cycle := func(ctx context.Context) error {
		_, _, err := eng.RunCycle(ctx, sentiment)
		return err
	}

	if *runOnce {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		if err := cycle(ctx); err != nil {
			log.Fatal().Err(err).Msg("Cycle failed")
		}
		return
	}

	sched := scheduler.New(log.Logger)
	if err := sched.AddCycle(cfg.Schedule.Cron, cycleTimeout, cycle); err != nil {
		log.Fatal().Err(err).Msg("Invalid cron spec")
	}
	sched.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("Shutting down")
	sched.Stop()
}
