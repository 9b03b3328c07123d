package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/marco/pdp-generator/internal/archive"
	"github.com/marco/pdp-generator/internal/config"
	"github.com/marco/pdp-generator/internal/convert"
	"github.com/marco/pdp-generator/internal/enrich"
	"github.com/marco/pdp-generator/internal/notes"
	"github.com/marco/pdp-generator/internal/pipeline"
	"github.com/marco/pdp-generator/internal/rag"
	"github.com/marco/pdp-generator/internal/registry"
	"github.com/marco/pdp-generator/internal/templates"
)

// services bundles everything the commands construct from configuration.
type services struct {
	generator *pipeline.Generator
	templates *templates.Store
	registry  registry.Store
	notes     *notes.FileStore
	rag       *rag.Client
	enricher  enrich.Client
}

// loadConfig merges file, env, defaults, and validates.
func loadConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.FromEnv()
	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// buildServices constructs the collaborators for one process. Optional
// pieces (Postgres, RAG, Gemini, LibreOffice) degrade to warnings.
func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	s := &services{
		templates: templates.NewStore(cfg.TemplatesDir, cfg.DefaultTemplate),
	}

	if cfg.DatabaseURL != "" {
		store, err := registry.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect registry database: %w", err)
		}
		s.registry = store
	} else if cfg.RegistryPath != "" {
		s.registry = registry.NewFileStore(cfg.RegistryPath)
	}

	if cfg.NotesPath != "" {
		s.notes = notes.NewFileStore(cfg.NotesPath)
	}

	if cfg.RAGBaseURL != "" {
		s.rag = rag.NewClient(cfg.RAGBaseURL, nil)
	}

	s.enricher = enrich.Passthrough{}
	if cfg.APIKey != "" {
		gemini, err := enrich.NewGeminiClient(ctx, cfg.APIKey, "")
		if err != nil {
			log.Printf("Warning: context condensation disabled: %v", err)
		} else {
			s.enricher = gemini
		}
	}

	deps := pipeline.Deps{
		Templates: s.templates,
		Registry:  s.registry,
		RAG:       s.rag,
		Enricher:  s.enricher,
		OutputDir: cfg.OutputDir,
	}

	// The converter probes the binary once; a missing LibreOffice install
	// turns the merge branch into per-run warnings instead of failing here.
	converter, err := convert.NewConverter(cfg.SofficePath, time.Duration(cfg.ConvertTimeoutSec)*time.Second)
	if err != nil {
		log.Printf("Warning: PDF conversion disabled: %v", err)
	} else {
		deps.Converter = converter
		if cfg.AnnualDir != "" {
			deps.Merger = archive.NewMerger(cfg.AnnualDir)
		}
	}

	generator, err := pipeline.NewGenerator(deps)
	if err != nil {
		return nil, err
	}
	s.generator = generator
	return s, nil
}
