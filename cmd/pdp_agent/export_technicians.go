package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marco/pdp-generator/internal/registry"
)

var (
	exportConfigPath string
	exportOutput     string
)

var exportTechniciansCmd = &cobra.Command{
	Use:   "export-technicians",
	Short: "Export the technician registry as CSV",
	RunE:  runExportTechnicians,
}

func init() {
	exportTechniciansCmd.Flags().StringVar(&exportConfigPath, "config", "", "Path to config.json file")
	exportTechniciansCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the CSV to a file instead of stdout")
	rootCmd.AddCommand(exportTechniciansCmd)
}

func runExportTechnicians(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(exportConfigPath)
	if err != nil {
		return err
	}

	svc, err := buildServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if svc.registry == nil {
		return fmt.Errorf("no registry configured: set registry_path or database_url")
	}
	defer func() { _ = svc.registry.Close() }()

	csv, err := registry.ExportCSV(cmd.Context(), svc.registry)
	if err != nil {
		return fmt.Errorf("failed to export registry: %w", err)
	}

	if exportOutput != "" {
		if err := os.WriteFile(exportOutput, []byte(csv), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		fmt.Println("Exported registry to", exportOutput)
		return nil
	}
	fmt.Print(csv)
	return nil
}
