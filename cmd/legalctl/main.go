package main

import (
	"context"
	"fmt"
	"os"

	"legalqa/internal/app"
	"legalqa/internal/config"
	"legalqa/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	collectionFlag string
	verboseFlag    bool
)

func main() {
	_ = godotenv.Load(".env")

	rootCmd := &cobra.Command{
		Use:   "legalctl",
		Short: "Query and index a legal document collection",
		Long: `legalctl answers questions over a collection of Indian central and
Karnataka state acts.

It can:
  - list the acts of the collection
  - find act documents by title
  - locate a section across an act and its amendments and rules
  - answer free-form questions from the indexed passages
  - start indexing of the collection's source files`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&collectionFlag, "collection", "c", "", "Collection id (defaults to LEGALQA_COLLECTION_ID)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(putCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(actsCmd())
	rootCmd.AddCommand(titlesCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(retrieverTestCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if collectionFlag != "" {
		cfg.CollectionID = collectionFlag
	}
	level := cfg.LogLevel
	if verboseFlag {
		level = "debug"
	}
	log := logging.New(logging.Config{Level: level, Pretty: true, Output: os.Stderr})
	return cfg, log, nil
}

func openRuntime(ctx context.Context) (*app.Runtime, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, log)
}
