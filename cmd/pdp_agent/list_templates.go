package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listTemplatesConfigPath string

var listTemplatesCmd = &cobra.Command{
	Use:   "list-templates",
	Short: "List the available document templates",
	RunE:  runListTemplates,
}

func init() {
	listTemplatesCmd.Flags().StringVar(&listTemplatesConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(listTemplatesCmd)
}

func runListTemplates(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(listTemplatesConfigPath)
	if err != nil {
		return err
	}

	svc, err := buildServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	names := svc.templates.ListTemplates()
	if len(names) == 0 {
		fmt.Println("No templates found in", cfg.TemplatesDir)
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
