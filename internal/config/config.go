// Package config loads the headercvt configuration from
// .headercvt/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/headercvt/internal/filter"
)

// ConfigFileName is the name of the headercvt configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the headercvt configuration directory
const ConfigDirName = ".headercvt"

// Config holds all headercvt configuration
type Config struct {
	Patterns PatternsConfig `yaml:"patterns"`
	FrontEnd FrontEndConfig `yaml:"front_end"`
	Render   RenderConfig   `yaml:"render"`
	Output   OutputConfig   `yaml:"output"`
	Cache    CacheConfig    `yaml:"cache"`
}

// PatternsConfig holds the name patterns that select constants and API
// functions. Both are full-match regular expressions.
type PatternsConfig struct {
	Constants string `yaml:"constants"`
	Functions string `yaml:"functions"`
}

// FrontEndConfig holds configuration for header parsing
type FrontEndConfig struct {
	Language          string   `yaml:"language"`
	Defines           []string `yaml:"defines"`
	IgnoreIdentifiers []string `yaml:"ignore_identifiers"`
	Exclude           []string `yaml:"exclude"`
	KeepGoing         bool     `yaml:"keep_going"`
}

// RenderConfig holds configuration for declaration printing
type RenderConfig struct {
	Indentation         int  `yaml:"indentation"`
	FullyQualifiedNames bool `yaml:"fully_qualified_names"`
	FunctionSpecifiers  bool `yaml:"function_specifiers"`
}

// OutputConfig holds the destinations of the output channels. "-" is
// stdout.
type OutputConfig struct {
	Constants      string `yaml:"constants"`
	Declarations   string `yaml:"declarations"`
	Manifest       string `yaml:"manifest"`
	ManifestFormat string `yaml:"manifest_format"`
}

// CacheConfig holds configuration for the render cache
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .headercvt/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Merge with defaults
	merged := Merge(loaded, DefaultConfig())

	// Validate the merged config
	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .headercvt directory by walking up from
// startDir. Returns the path to the .headercvt directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		// Move to parent directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .headercvt directory if it doesn't exist.
// Returns the path to the .headercvt directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if _, err := filter.Compile(cfg.Patterns.Constants); err != nil {
		return fmt.Errorf("%w: patterns.constants: %v", ErrInvalidConfig, err)
	}
	if _, err := filter.Compile(cfg.Patterns.Functions); err != nil {
		return fmt.Errorf("%w: patterns.functions: %v", ErrInvalidConfig, err)
	}

	if !IsValidLanguage(cfg.FrontEnd.Language) {
		return fmt.Errorf("%w: language must be one of %v, got %q",
			ErrInvalidConfig, ValidLanguages, cfg.FrontEnd.Language)
	}

	if cfg.Render.Indentation < 1 || cfg.Render.Indentation > 8 {
		return fmt.Errorf("%w: indentation must be between 1 and 8, got %d",
			ErrInvalidConfig, cfg.Render.Indentation)
	}

	if cfg.Output.Constants == "" || cfg.Output.Declarations == "" {
		return fmt.Errorf("%w: output destinations must not be empty", ErrInvalidConfig)
	}

	if !IsValidManifestFormat(cfg.Output.ManifestFormat) {
		return fmt.Errorf("%w: manifest_format must be one of %v, got %q",
			ErrInvalidConfig, ValidManifestFormats, cfg.Output.ManifestFormat)
	}

	return nil
}

// SaveDefault writes the default configuration to .headercvt/config.yaml
// in workDir. Creates the .headercvt directory if it doesn't exist. An
// existing file is only replaced when force is set.
func SaveDefault(workDir string, force bool) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	// Add header comment
	header := "# headercvt configuration\n# Patterns are full-match regular expressions.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
