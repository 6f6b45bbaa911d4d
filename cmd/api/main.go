package main

import (
	"context"
	"net/http"
	"os"

	"legalqa/internal/api"
	"legalqa/internal/app"
	"legalqa/internal/config"
	"legalqa/internal/logging"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	rt, err := app.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open runtime")
	}
	defer rt.Close()

	deps := api.Deps{
		Library:  rt.Library,
		Passages: rt.Passages,
		Store:    rt.Store,
		Signer:   rt.Signer,
		Gatherer: rt.Registry,
		Logger:   log,
	}
	tc, err := tclient.NewLazyClient(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Warn().Err(err).Msg("temporal client unavailable, indexing disabled")
	} else {
		defer tc.Close()
		deps.Temporal = tc
	}

	h := api.NewServer(cfg, deps)
	log.Info().
		Str("addr", cfg.APIAddr).
		Str("collection", cfg.CollectionID).
		Str("llm_providers", cfg.LLMProviders).
		Str("embed_providers", cfg.EmbedProviders).
		Msg("legalqa api listening")
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Error().Err(err).Msg("api server stopped")
		os.Exit(1)
	}
}
