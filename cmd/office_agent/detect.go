package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liyue/office-engine/internal/config"
	"github.com/liyue/office-engine/internal/generation"
	"github.com/liyue/office-engine/internal/storage"
)

var detectCmd = &cobra.Command{
	Use:   "detect \"<request text>\"",
	Short: "Detect which document type a request asks for",
	Long: `Classify a natural-language request as word, excel or ppt. Uses the
configured AI provider when available and falls back to keyword scoring
otherwise.`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("request text is required")
	}
	text := strings.Join(args, " ")

	cfg := config.Default()
	cfg.ApplyEnv()

	// Detection never writes artifacts; root the store in the temp dir so
	// no output directory is created as a side effect.
	store, err := storage.NewStore(os.TempDir())
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}
	svc := generation.NewService(store, cfg.LLMBase())

	dt, err := svc.Detect(context.Background(), text, nil)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "%s\n", dt)
	return nil
}
