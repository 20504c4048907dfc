package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/deadscan/pkg/analyzer/deadcode"
)

// Config holds all configuration options for deadscan.
type Config struct {
	// Scan settings for file discovery
	Scan ScanConfig `koanf:"scan" toml:"scan" yaml:"scan"`

	// Directory and file exclusion rules
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	// Rules for the unused-export search
	Exports ExportsConfig `koanf:"exports" toml:"exports" yaml:"exports"`

	// Rules for the unused-dependency search
	Dependencies DependenciesConfig `koanf:"dependencies" toml:"dependencies" yaml:"dependencies"`

	// Persisted report settings
	Report ReportConfig `koanf:"report" toml:"report" yaml:"report"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`

	// Logging settings
	Log LogConfig `koanf:"log" toml:"log" yaml:"log"`
}

// ScanConfig controls which files are read.
type ScanConfig struct {
	Extensions        []string `koanf:"extensions" toml:"extensions" yaml:"extensions"`
	DeclarationSuffix string   `koanf:"declaration_suffix" toml:"declaration_suffix" yaml:"declaration_suffix"`
	Workers           int      `koanf:"workers" toml:"workers" yaml:"workers"`                   // 0 means 2x NumCPU
	MaxFileSize       int64    `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size"` // bytes, 0 means no limit
}

// ExcludeConfig defines directory and file exclusions.
type ExcludeConfig struct {
	Dirs        []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	DirPrefixes []string `koanf:"dir_prefixes" toml:"dir_prefixes" yaml:"dir_prefixes"`
	DirSuffixes []string `koanf:"dir_suffixes" toml:"dir_suffixes" yaml:"dir_suffixes"`
	Patterns    []string `koanf:"patterns" toml:"patterns" yaml:"patterns"` // gitignore syntax
	Gitignore   bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// ExportsConfig defines which files and names are exempt from the unused-export search.
type ExportsConfig struct {
	EntryPatterns []string `koanf:"entry_patterns" toml:"entry_patterns" yaml:"entry_patterns"`
	TestPatterns  []string `koanf:"test_patterns" toml:"test_patterns" yaml:"test_patterns"`
	ExternalNames []string `koanf:"external_names" toml:"external_names" yaml:"external_names"`
}

// DependenciesConfig controls the unused-dependency search.
type DependenciesConfig struct {
	Manifest string   `koanf:"manifest" toml:"manifest" yaml:"manifest"`
	Skip     []string `koanf:"skip" toml:"skip" yaml:"skip"`
}

// ReportConfig controls the persisted JSON report.
type ReportConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `koanf:"path" toml:"path" yaml:"path"` // relative to the scan root unless absolute
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level      string `koanf:"level" toml:"level" yaml:"level"`
	File       string `koanf:"file" toml:"file" yaml:"file"`
	MaxSize    int    `koanf:"max_size" toml:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `koanf:"max_backups" toml:"max_backups" yaml:"max_backups"`
	MaxAge     int    `koanf:"max_age" toml:"max_age" yaml:"max_age"` // days
	Compress   bool   `koanf:"compress" toml:"compress" yaml:"compress"`
}

// DefaultConfig returns a config with the stock detection rules.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extensions:        []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
			DeclarationSuffix: ".d.ts",
		},
		Exclude: ExcludeConfig{
			Dirs: []string{
				"node_modules",
				"dist",
				"build",
				".next",
				"coverage",
				".git",
				".venv",
				"venv",
				"__pycache__",
				".pytest_cache",
				"vendor",
				".turbo",
				".cache",
				"out",
				".output",
				"public",
				"storybook-static",
			},
			DirPrefixes: []string{".venv", "venv"},
			DirSuffixes: []string{"-venv"},
		},
		Exports: ExportsConfig{
			EntryPatterns: slices.Clone(deadcode.DefaultEntryPatterns),
			TestPatterns:  slices.Clone(deadcode.DefaultTestPatterns),
			ExternalNames: slices.Clone(deadcode.DefaultExternalNames),
		},
		Dependencies: DependenciesConfig{
			Manifest: "package.json",
			Skip:     slices.Clone(deadcode.DefaultSkipList),
		},
		Report: ReportConfig{
			Enabled: true,
			Path:    "dead-code-report.json",
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

// configNames are the file names searched for, in order.
var configNames = []string{
	"deadscan.toml",
	"deadscan.yaml",
	"deadscan.yml",
	"deadscan.json",
	".deadscan.toml",
	".deadscan.yaml",
	".deadscan.yml",
	".deadscan.json",
}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads exactly the given file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches for config files in dir and dir/.deadscan instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	return cfg, nil
}

// LoadConfig loads the explicit path if given, otherwise the first config file found
// in the search directories. A missing file falls back to defaults; a present but
// invalid file is an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{dir: "."}
	for _, opt := range opts {
		opt(o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range []string{o.dir, filepath.Join(o.dir, ".deadscan")} {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// Validate reports configuration values that would make a scan meaningless.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Scan.Extensions) == 0 {
		errs = append(errs, errors.New("scan.extensions must not be empty"))
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("scan.extensions: %q must start with a dot", ext))
		}
	}
	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers must be >= 0 (got %d)", c.Scan.Workers))
	}
	if c.Scan.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("scan.max_file_size must be >= 0 (got %d)", c.Scan.MaxFileSize))
	}
	if c.Dependencies.Manifest == "" {
		errs = append(errs, errors.New("dependencies.manifest must not be empty"))
	}
	if c.Report.Enabled && c.Report.Path == "" {
		errs = append(errs, errors.New("report.path must be set when the report is enabled"))
	}
	if _, err := CompilePatterns(c.Exports.EntryPatterns); err != nil {
		errs = append(errs, fmt.Errorf("exports.entry_patterns: %w", err))
	}
	if _, err := CompilePatterns(c.Exports.TestPatterns); err != nil {
		errs = append(errs, fmt.Errorf("exports.test_patterns: %w", err))
	}
	return errors.Join(errs...)
}

// CompilePatterns compiles each expression, failing on the first invalid one.
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// ReportPath resolves the report path against the scan root.
func (c *Config) ReportPath(root string) string {
	if filepath.IsAbs(c.Report.Path) {
		return c.Report.Path
	}
	return filepath.Join(root, c.Report.Path)
}

// ManifestPath resolves the dependency manifest path against the scan root.
func (c *Config) ManifestPath(root string) string {
	if filepath.IsAbs(c.Dependencies.Manifest) {
		return c.Dependencies.Manifest
	}
	return filepath.Join(root, c.Dependencies.Manifest)
}

// FileError identifies the config file that failed to load.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return "invalid config " + e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
