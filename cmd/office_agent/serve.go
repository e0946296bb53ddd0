package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liyue/office-engine/internal/config"
	"github.com/liyue/office-engine/internal/generation"
	"github.com/liyue/office-engine/internal/server"
	"github.com/liyue/office-engine/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for generating, modifying
and downloading office artifacts.

Configuration can be loaded from a JSON file using --config. Environment
variables override file values, and command-line flags override both.`,
	RunE: runServe,
}

var (
	serveConfigPath string
	serveHost       string
	servePort       int
	serveOutputDir  string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on")
	serveCmd.Flags().StringVar(&serveOutputDir, "output-dir", "", "Directory artifacts are written to")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Step 1: Load config file if provided
	cfg := config.Default()
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded.MergeWithDefaults(cfg)
	}

	// Step 2: Environment overrides file values
	cfg.ApplyEnv()

	// Step 3: Command-line flags take priority over both
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = serveOutputDir
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}

	svc := generation.NewService(store, cfg.LLMBase())
	srv := server.New(svc, server.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		CORSOrigin: cfg.CORSOrigin,
	})
	return srv.Start()
}
