package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonsieve/internal/errors"
	"github.com/mcncl/jsonsieve/internal/policy"
)

// Config represents the complete configuration for jsonsieve
type Config struct {
	Selector       string       `yaml:"selector"`
	SelectorFormat string       `yaml:"selector_format"`
	Preset         string       `yaml:"preset"`
	Blacklist      []string     `yaml:"blacklist"`
	Rules          []RuleConfig `yaml:"rules"`
	Naming         NamingConfig `yaml:"naming"`
	Input          InputConfig  `yaml:"input"`
	Output         OutputConfig `yaml:"output"`
	Dev            DevConfig    `yaml:"dev"`
}

// RuleConfig is one scoped-skip rule
type RuleConfig struct {
	Trigger string   `yaml:"trigger"`
	Allow   []string `yaml:"allow"`
	Drop    []string `yaml:"drop"`
}

// NamingConfig controls how configured member names are compared
type NamingConfig struct {
	// Normalize is "none" or "snake". With "snake", blacklist, drop and
	// allow names are converted so that "visitedZones" also names "visited_zones".
	Normalize string `yaml:"normalize"`
}

// InputConfig controls how the document is read
type InputConfig struct {
	Compression string        `yaml:"compression"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second, 0 disables
	MaxBytes    int64         `yaml:"max_bytes"`  // 0 means unlimited
}

// OutputConfig controls what is written
type OutputConfig struct {
	Format string `yaml:"format"`
	Digest bool   `yaml:"digest"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

var (
	compressions    = []string{"auto", "none", "gzip", "zstd", "lz4"}
	outputFormats   = []string{"paths", "summary"}
	normalizations  = []string{"none", "snake"}
	selectorFormats = []string{string(policy.FormatRaw), string(policy.FormatUUID)}
)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		SelectorFormat: string(policy.FormatRaw),
		Blacklist:      []string{},
		Rules:          []RuleConfig{},
		Naming: NamingConfig{
			Normalize: "none",
		},
		Input: InputConfig{
			Compression: "auto",
			Timeout:     30 * time.Second,
		},
		Output: OutputConfig{
			Format: "paths",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(fmt.Sprintf("config file %s not found", path), errors.ErrFileNotFound)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonsieve.yml", ".jsonsieve.yaml", "jsonsieve.yml", "jsonsieve.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate rejects values the rest of the program cannot act on
func (c *Config) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"selector_format", c.SelectorFormat, selectorFormats},
		{"input.compression", c.Input.Compression, compressions},
		{"output.format", c.Output.Format, outputFormats},
		{"naming.normalize", c.Naming.Normalize, normalizations},
	}
	for _, chk := range checks {
		if chk.value != "" && !slices.Contains(chk.allowed, chk.value) {
			return errors.NewConfigError(fmt.Sprintf("%s must be one of %s, got %q",
				chk.field, strings.Join(chk.allowed, ", "), chk.value), nil)
		}
	}

	if c.Preset != "" {
		if _, ok := presets[c.Preset]; !ok {
			return errors.NewConfigError(fmt.Sprintf("unknown preset %q (available: %s)",
				c.Preset, strings.Join(PresetNames(), ", ")), nil)
		}
	}
	for i, r := range c.Rules {
		if strings.TrimSpace(r.Trigger) == "" {
			return errors.NewConfigError(fmt.Sprintf("rule %d has an empty trigger", i), errors.ErrInvalidPattern)
		}
	}
	if c.Input.MaxBytes < 0 {
		return errors.NewConfigError("input.max_bytes must not be negative", nil)
	}
	if c.Input.RateLimit < 0 {
		return errors.NewConfigError("input.rate_limit must not be negative", nil)
	}
	return nil
}

// PolicyConfig returns the skip configuration: the preset's rules first, then
// the file's and the command line's, with names normalized when requested.
func (c *Config) PolicyConfig() policy.Config {
	var out policy.Config

	if p, ok := presets[c.Preset]; ok {
		out.Blacklist = append(out.Blacklist, p.Blacklist...)
		for _, r := range p.Rules {
			out.Rules = append(out.Rules, r.policyRule())
		}
	}

	out.Blacklist = append(out.Blacklist, c.Blacklist...)
	for _, r := range c.Rules {
		out.Rules = append(out.Rules, r.policyRule())
	}

	if c.Naming.Normalize == "snake" {
		out.Blacklist = normalizeNames(out.Blacklist)
		for i := range out.Rules {
			out.Rules[i].Drop = normalizeNames(out.Rules[i].Drop)
			out.Rules[i].Allow = normalizePaths(out.Rules[i].Allow)
		}
	}
	return out
}

// PolicySelector returns the entity selector.
func (c *Config) PolicySelector() policy.Selector {
	return policy.Selector{Value: c.Selector, Format: policy.SelectorFormat(c.SelectorFormat)}
}

func (r RuleConfig) policyRule() policy.Rule {
	return policy.Rule{
		Trigger: r.Trigger,
		Allow:   slices.Clone(r.Allow),
		Drop:    slices.Clone(r.Drop),
	}
}

func normalizeNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strcase.ToSnake(n)
	}
	return out
}

// normalizePaths converts each segment of dotted allow entries, leaving
// wildcards and indices alone.
func normalizePaths(entries []string) []string {
	out := make([]string, len(entries))
	for i, entry := range entries {
		parts := strings.Split(entry, ".")
		for j, part := range parts {
			if part == "*" || isIndex(part) {
				continue
			}
			parts[j] = strcase.ToSnake(part)
		}
		out[i] = strings.Join(parts, ".")
	}
	return out
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CLIOverrides carries command line values. Zero values leave the file's
// settings in place.
type CLIOverrides struct {
	Selector       string
	SelectorFormat string
	Preset         string
	Blacklist      []string
	Trigger        string
	Allow          []string
	Compression    string
	Format         string
	Digest         bool
	Debug          bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, cli CLIOverrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if cli.Selector != "" {
		cfg.Selector = cli.Selector
	}
	if cli.SelectorFormat != "" {
		cfg.SelectorFormat = cli.SelectorFormat
	}
	if cli.Preset != "" {
		cfg.Preset = cli.Preset
	}
	if cli.Compression != "" {
		cfg.Input.Compression = cli.Compression
	}
	if cli.Format != "" {
		cfg.Output.Format = cli.Format
	}

	// list flags add to the file's entries
	cfg.Blacklist = append(cfg.Blacklist, cli.Blacklist...)
	if cli.Trigger != "" {
		cfg.Rules = append(cfg.Rules, RuleConfig{Trigger: cli.Trigger, Allow: cli.Allow})
	} else if len(cli.Allow) > 0 {
		return nil, errors.NewConfigError("--allow needs --trigger", nil)
	}

	// boolean flags can only switch things on
	cfg.Output.Digest = cfg.Output.Digest || cli.Digest
	cfg.Dev.Debug = cfg.Dev.Debug || cli.Debug

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
