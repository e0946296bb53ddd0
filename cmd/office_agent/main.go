// Package main provides the entry point for the office artifact generation CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "office_agent",
	Short: "Office artifact generation service",
	Long:  "office_agent turns natural-language requests into Word documents, Excel workbooks and PowerPoint decks, either directly from the command line or through a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
