package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marco/pdp-generator/internal/server"
)

var (
	serveConfigPath string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the document generation, retrieval, notes, and technician registry endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	svc, err := buildServices(context.Background(), cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		Generator: svc.generator,
		Registry:  svc.registry,
		Notes:     svc.notes,
		RAG:       svc.rag,
		Templates: svc.templates,
		JWTSecret: cfg.JWTSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
