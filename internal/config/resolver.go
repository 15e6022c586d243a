// Package config resolves adscope configuration from file, environment and
// CLI flags, in that precedence order.
//
// Besides the db path it carries the analysis tables — perspective
// allow-lists, brand stopwords, platform fragments — as injectable data
// rather than package constants, so tests can substitute fixture tables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a config value together with where it came from.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// Tables holds the injectable analysis data described above. Names in
// Perspectives are competitor display names resolved against the
// directory at analysis time; an empty list means "no restriction".
type Tables struct {
	Perspectives map[string][]string `yaml:"perspectives"`
	Stopwords    []string            `yaml:"stopwords"`
	Platforms    map[string][]string `yaml:"platforms"`
	TopTags      int                 `yaml:"top_tags"`
}

// ResolveOptions carries CLI-level overrides into ResolveConfig.
type ResolveOptions struct {
	ConfigPath string
	CLIDBPath  string
}

// ResolvedConfig is the fully resolved configuration.
type ResolvedConfig struct {
	ConfigPath string        `json:"config_path"`
	DBPath     ResolvedValue `json:"db_path"`
	Tables     Tables        `json:"-"`
}

type fileConfig struct {
	DBPath   string              `yaml:"db_path"`
	Analysis struct {
		Perspectives map[string][]string `yaml:"perspectives"`
		Stopwords    []string            `yaml:"stopwords"`
		Platforms    map[string][]string `yaml:"platforms"`
		TopTags      int                 `yaml:"top_tags"`
	} `yaml:"analysis"`
}

// DefaultConfigPath returns ~/.adscope/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".adscope", "config.yaml")
}

// DefaultTables returns the built-in analysis tables, mirroring the
// original deployment: Brazilian payment acquirers and the ad platforms
// they advertise on. Brand names double as the tag stopword set because
// they appear in nearly every record of their own competitor.
func DefaultTables() Tables {
	return Tables{
		Perspectives: map[string][]string{
			"adquirencia": {"Stone", "Cielo", "PagBank", "SumUp", "Ton"},
			"bancos":      {"Mercado Pago", "PagBank", "Nubank"},
			"maquininhas": {"SumUp", "Ton", "Stone", "Cielo"},
		},
		Stopwords: []string{
			"stone", "cielo", "pagbank", "pagseguro", "sumup", "ton",
			"mercado pago", "mercadopago", "nubank", "infinitepay",
		},
		Platforms: map[string][]string{
			"meta":     {"facebook.", "fb.com", "instagram."},
			"google":   {"google.", "youtube."},
			"tiktok":   {"tiktok."},
			"kwai":     {"kwai."},
			"linkedin": {"linkedin."},
		},
		TopTags: 20,
	}
}

// ResolveConfig resolves the configuration. A missing config file is not
// an error; built-in defaults apply.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("ADSCOPE_CONFIG"))
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		Tables:     DefaultTables(),
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		if len(cfg.Analysis.Perspectives) > 0 {
			out.Tables.Perspectives = cfg.Analysis.Perspectives
		}
		if len(cfg.Analysis.Stopwords) > 0 {
			out.Tables.Stopwords = cfg.Analysis.Stopwords
		}
		if len(cfg.Analysis.Platforms) > 0 {
			out.Tables.Platforms = cfg.Analysis.Platforms
		}
		if cfg.Analysis.TopTags > 0 {
			out.Tables.TopTags = cfg.Analysis.TopTags
		}
	}

	applyEnv(&out.DBPath, "ADSCOPE_DB")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
