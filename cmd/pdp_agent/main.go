// Package main provides the entry point for the PDP generator service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdp_agent",
	Short: "PDP document generation service",
	Long:  "PDP agent fills wind-farm prevention plan templates with structured data, converts them to PDF, maintains per-plant annual archives, and tracks technician certifications.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
