package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/api"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/config"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/logging"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/pipeline"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	// Initialize pipeline
	processor, err := pipeline.NewProcessor(cfg, logger, time.Now)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Every request re-reads the calculation extract
	loader := source.NewLoader(
		source.Open(cfg.CalcTablePath, cfg.CalcSheet),
		source.NewParser(time.Local, logger),
		logger,
	)

	// Initialize handler
	handler := api.NewHandler(loader, processor)

	// Setup routes
	router := api.SetupRoutes(handler, logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("starting API server", "addr", addr, "calculation_extract", cfg.CalcTablePath)

	if err := router.Run(addr); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
