// Command replay re-runs the decision engine over a historical date range
// and prints one JSON line per evaluation step, for audit and comparison.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradestack/regime/config"
	"github.com/tradestack/regime/internal/engine"
	"github.com/tradestack/regime/internal/marketdata"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	fromFlag := flag.String("from", "", "range start (2006-01-02 or RFC3339)")
	toFlag := flag.String("to", "", "range end (2006-01-02 or RFC3339)")
	stepFlag := flag.Duration("step", 5*time.Minute, "evaluation step")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	from, err := parseTime(*fromFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -from")
	}
	to, err := parseTime(*toFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -to")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration invalid")
	}

	bars := marketdata.New(marketdata.Config{
		BaseURL:         cfg.Data.BaseURL,
		APIKey:          cfg.Env.DataAPIKey,
		RequestTimeout:  time.Duration(cfg.Data.RequestTimeout) * time.Second,
		RateLimitPerSec: cfg.Data.RateLimitPerSec,
		MaxRetryElapsed: time.Duration(cfg.Data.MaxRetryElapsed) * time.Second,
	}, log.Logger)

	// No store or sink: replay output goes to stdout only.
	eng, err := engine.Build(cfg, bars, nil, nil, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Engine wiring failed")
	}

	enc := json.NewEncoder(os.Stdout)
	err = eng.Replay(context.Background(), from, to, *stepFlag, cfg.Env.ParsedSentiment(), func(step engine.ReplayStep) error {
		return enc.Encode(step)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Replay failed")
	}
}

func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}
