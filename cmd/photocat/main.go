package main

import (
	"fmt"
	"os"

	"photocat/internal/catalog"
	"photocat/internal/cli"
	"photocat/internal/config"
	"photocat/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	store, err := catalog.New(cfg.Paths.CatalogPath)
	if err != nil {
		logger.Error("failed to open catalog", "path", cfg.Paths.CatalogPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	rootCmd := cli.NewRootCmd(cfg, logger, store)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
