package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marco/pdp-generator/internal/observability"
	"github.com/marco/pdp-generator/internal/pipeline"
)

var (
	genConfigPath string
	genPDPID      string
	genWindfarm   string
	genDataPath   string
	genTemplate   string
	genSurname    string
	genMerge      bool
	genSave       bool
	genRAGQuery   string
	genEnhance    bool
	genVerbose    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one PDP document from a JSON input file",
	Long: `Run the document pipeline once: fill the template with the data from
--data, optionally enrich it with retrieved context, and optionally convert
and append the result to the plant's annual archive.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file")
	generateCmd.Flags().StringVar(&genPDPID, "pdp-id", "", "PDP identifier (required)")
	generateCmd.Flags().StringVarP(&genWindfarm, "windfarm", "w", "", "Wind farm name (required)")
	generateCmd.Flags().StringVarP(&genDataPath, "data", "d", "", "Path to JSON data file (required)")
	generateCmd.Flags().StringVarP(&genTemplate, "template", "t", "", "Template name (defaults to the configured default)")
	generateCmd.Flags().StringVar(&genSurname, "surname", "", "Annual archive key (defaults to the wind farm name)")
	generateCmd.Flags().BoolVar(&genMerge, "merge", false, "Convert to PDF and append to the annual archive")
	generateCmd.Flags().BoolVar(&genSave, "save", true, "Save the generated document to the output folder")
	generateCmd.Flags().StringVar(&genRAGQuery, "rag-query", "", "Retrieval query for context enrichment")
	generateCmd.Flags().BoolVar(&genEnhance, "enhance", false, "Enrich the document with retrieved context")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed progress")

	_ = generateCmd.MarkFlagRequired("pdp-id")
	_ = generateCmd.MarkFlagRequired("windfarm")
	_ = generateCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(genConfigPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(genDataPath)
	if err != nil {
		return fmt.Errorf("failed to read data file %s: %w", genDataPath, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse data file %s: %w", genDataPath, err)
	}

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if svc.registry != nil {
			_ = svc.registry.Close()
		}
	}()

	printer := observability.NewPrinter(os.Stdout)

	opts := pipeline.Options{
		PDPID:          genPDPID,
		Windfarm:       genWindfarm,
		Data:           data,
		TemplateName:   genTemplate,
		Surname:        genSurname,
		MergeWithPDP:   genMerge,
		SaveToFile:     genSave,
		RAGQuery:       genRAGQuery,
		EnhanceWithRAG: genEnhance,
		Verbose:        genVerbose,
	}
	if genVerbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", e.Step, e.Message)
		}
	}

	result, err := svc.generator.Run(ctx, opts)
	if err != nil {
		var validationErr *pipeline.ValidationError
		if errors.As(err, &validationErr) {
			printer.PrintValidationErrors(validationErr.Errors)
		}
		return err
	}

	printer.PrintGenerationResult(result)
	return nil
}
