// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"numpycheck/internal/models"
)

// Config represents the configuration for numpycheck
type Config struct {
	// General settings
	Version     string `yaml:"version" json:"version"`
	ProjectName string `yaml:"project_name,omitempty" json:"project_name,omitempty"`

	// Analysis settings
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// File patterns
	Files FilesConfig `yaml:"files" json:"files"`
}

type AnalysisConfig struct {
	// Library whose API usage is checked
	Library string `yaml:"library" json:"library"`

	// Prefixes stripped from rule keys before indexing
	StripPrefixes []string `yaml:"strip_prefixes" json:"strip_prefixes"`

	// Path to the API change rules file
	RulesPath string `yaml:"rules_path" json:"rules_path"`

	// Parallel analysis
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// Exit non-zero when a finding of this severity (or worse) exists.
	// Empty disables the gate.
	FailOnSeverity string `yaml:"fail_on_severity,omitempty" json:"fail_on_severity,omitempty"`
}

type OutputConfig struct {
	// Default output format
	Format string `yaml:"format" json:"format"`

	// Colorized output
	Colors bool `yaml:"colors" json:"colors"`

	// Verbosity level
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Show migration suggestions
	ShowSuggestions bool `yaml:"show_suggestions" json:"show_suggestions"`

	// Output file path (optional)
	OutputFile string `yaml:"output_file,omitempty" json:"output_file,omitempty"`

	// Directory for markdown/html reports
	ReportDir string `yaml:"report_dir" json:"report_dir"`
}

type FilesConfig struct {
	// Include patterns
	Include []string `yaml:"include" json:"include"`

	// Exclude patterns
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Max file size (in KB)
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Analysis: AnalysisConfig{
			Library:        "numpy",
			StripPrefixes:  []string{"np.", "numpy."},
			RulesPath:      "data/api_changes.json",
			MaxWorkers:     4,
			FailOnSeverity: "",
		},
		Output: OutputConfig{
			Format:          "console",
			Colors:          true,
			Verbose:         false,
			ShowSuggestions: true,
			ReportDir:       "reports",
		},
		Files: FilesConfig{
			Include:     []string{"**/*.py"},
			Exclude:     []string{"venv/*", ".venv/*", "__pycache__/*", ".git/*"},
			MaxFileSize: 1024, // 1MB
		},
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig(configPath string) (*Config, error) {
	// If no config path provided, look for default config files
	if configPath == "" {
		configPath = findConfigFile()
	}

	// If still no config found, return default
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig() // Start with defaults

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	possiblePaths := []string{
		".numpycheck.yml",
		".numpycheck.yaml",
		"numpycheck.yml",
		"numpycheck.yaml",
		".config/numpycheck.yml",
		".config/numpycheck.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Analysis.Library == "" {
		return fmt.Errorf("analysis.library must not be empty")
	}

	if c.Analysis.RulesPath == "" {
		return fmt.Errorf("analysis.rules_path must not be empty")
	}

	validFormats := []string{"console", "json", "markdown", "html"}
	formatValid := false
	for _, format := range validFormats {
		if c.Output.Format == format {
			formatValid = true
			break
		}
	}
	if !formatValid {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, validFormats)
	}

	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1")
	}

	if s := c.Analysis.FailOnSeverity; s != "" && !models.Severity(s).Valid() {
		return fmt.Errorf("invalid fail_on_severity: %s", s)
	}

	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateConfig creates a sample configuration file
func GenerateConfig(configPath string) error {
	config := DefaultConfig()
	return config.SaveConfig(configPath)
}
