package main

import (
	"context"

	"legalqa/internal/activities"
	"legalqa/internal/app"
	"legalqa/internal/config"
	"legalqa/internal/logging"
	"legalqa/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.PostgresURL == "" {
		log.Warn().Msg("no LEGALQA_POSTGRES_URL; chunk vectors go to index files only")
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal().Err(err).Msg("dial temporal")
	}
	defer c.Close()

	rt, err := app.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open runtime")
	}
	defer rt.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	a, err := activities.New(cfg, rt.DB, rt.Store, rt.Metrics, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build activities")
	}
	activities.Register(w, a)

	log.Info().
		Str("temporal", cfg.TemporalAddress).
		Str("queue", cfg.TemporalTaskQueue).
		Str("blob_backend", cfg.BlobBackend).
		Str("embed_providers", cfg.EmbedProviders).
		Msg("legalqa worker listening")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
