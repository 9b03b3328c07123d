// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults applied by MergeWithDefaults when nothing else is configured.
const (
	DefaultTemplateName      = "default.docx"
	DefaultConvertTimeoutSec = 60
	DefaultPort              = 8080
)

// Config represents the service configuration loadable from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags or environment.
type Config struct {
	// Paths
	TemplatesDir    string `json:"templates_dir,omitempty"`    // Folder holding .docx templates
	DefaultTemplate string `json:"default_template,omitempty"` // Template used when none is requested
	OutputDir       string `json:"output_dir,omitempty"`       // Folder for generated documents
	AnnualDir       string `json:"annual_dir,omitempty"`       // Folder for annual archive PDFs
	RegistryPath    string `json:"registry_path,omitempty"`    // Technician registry JSON file
	NotesPath       string `json:"notes_path,omitempty"`       // Notes JSON file

	// External services
	DatabaseURL string `json:"database_url,omitempty"` // Optional Postgres registry backend
	RAGBaseURL  string `json:"rag_base_url,omitempty"` // Retrieval service base URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key for context condensation

	// Conversion
	SofficePath       string `json:"soffice_path,omitempty"`        // LibreOffice binary
	ConvertTimeoutSec int    `json:"convert_timeout_sec,omitempty"` // Subprocess timeout

	// Server
	Port      int    `json:"port,omitempty"`
	JWTSecret string `json:"jwt_secret,omitempty"` // Enables bearer auth when set

	Verbose bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills unset fields from environment variables.
func (c *Config) FromEnv() {
	setIfEmpty := func(target *string, key string) {
		if *target == "" {
			*target = os.Getenv(key)
		}
	}
	setIfEmpty(&c.TemplatesDir, "PDP_TEMPLATES_DIR")
	setIfEmpty(&c.OutputDir, "PDP_OUTPUT_DIR")
	setIfEmpty(&c.AnnualDir, "PDP_ANNUAL_DIR")
	setIfEmpty(&c.RegistryPath, "PDP_REGISTRY_PATH")
	setIfEmpty(&c.NotesPath, "PDP_NOTES_PATH")
	setIfEmpty(&c.DatabaseURL, "DATABASE_URL")
	setIfEmpty(&c.RAGBaseURL, "RAG_BASE_URL")
	setIfEmpty(&c.APIKey, "GEMINI_API_KEY")
	setIfEmpty(&c.SofficePath, "SOFFICE_PATH")
	setIfEmpty(&c.JWTSecret, "JWT_SECRET")
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.TemplatesDir == "" {
		return fmt.Errorf("config error: 'templates_dir' is required")
	}
	if _, err := os.Stat(c.TemplatesDir); os.IsNotExist(err) {
		return fmt.Errorf("config error: templates folder not found: %s", c.TemplatesDir)
	}
	if c.ConvertTimeoutSec < 0 {
		return fmt.Errorf("config error: 'convert_timeout_sec' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.TemplatesDir == "" {
		result.TemplatesDir = defaults.TemplatesDir
	}
	if result.DefaultTemplate == "" {
		result.DefaultTemplate = defaults.DefaultTemplate
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.AnnualDir == "" {
		result.AnnualDir = defaults.AnnualDir
	}
	if result.RegistryPath == "" {
		result.RegistryPath = defaults.RegistryPath
	}
	if result.NotesPath == "" {
		result.NotesPath = defaults.NotesPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RAGBaseURL == "" {
		result.RAGBaseURL = defaults.RAGBaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.SofficePath == "" {
		result.SofficePath = defaults.SofficePath
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.ConvertTimeoutSec == 0 {
		result.ConvertTimeoutSec = defaults.ConvertTimeoutSec
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}

// Defaults returns the built-in fallback configuration.
func Defaults() Config {
	return Config{
		DefaultTemplate:   DefaultTemplateName,
		ConvertTimeoutSec: DefaultConvertTimeoutSec,
		Port:              DefaultPort,
	}
}
