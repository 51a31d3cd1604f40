package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// OutputPrefix is prepended to the input base name to form the output file name.
	OutputPrefix string `json:"output_prefix,omitempty"`

	// SourceField is the recording field holding the [delay, content] events.
	SourceField string `json:"source_field,omitempty"`

	// OutputField is the recording field the annotated events are written to.
	OutputField string `json:"output_field,omitempty"`

	// RewriteSource also overwrites SourceField with the annotated events,
	// for players that only read "stdout".
	RewriteSource bool `json:"rewrite_source,omitempty"`

	// LexiconPath is a YAML lexicon file. Empty means the embedded default.
	// Relative paths are resolved against the working directory.
	LexiconPath string `json:"lexicon_path,omitempty"`

	// OutputDir is where annotated files are written. Empty means next to the input.
	OutputDir string `json:"output_dir,omitempty"`

	// HistoryDisabled skips recording runs in the history database.
	HistoryDisabled bool `json:"history_disabled,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// All tools are enabled by default. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputPrefix: "fancy-",
		SourceField:  "stdout",
		OutputField:  "commands",
		LogLevel:     "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.castpaint.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.castpaint) and repo (.castpaint) directories.
// Repo config is found by walking upward from startDir to find the nearest .castpaint/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}
	// A repo lexicon is relative to the repo, not to wherever the command runs.
	if repo.LexiconPath != "" && !filepath.IsAbs(repo.LexiconPath) {
		repo.LexiconPath = filepath.Join(filepath.Dir(filepath.Dir(repoConfigPath)), repo.LexiconPath)
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .castpaint/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".castpaint", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		OutputPrefix:   pick(overlay.OutputPrefix, base.OutputPrefix),
		SourceField:    pick(overlay.SourceField, base.SourceField),
		OutputField:    pick(overlay.OutputField, base.OutputField),
		LexiconPath:    pick(overlay.LexiconPath, base.LexiconPath),
		OutputDir:      pick(overlay.OutputDir, base.OutputDir),
		LogLevel:       pick(overlay.LogLevel, base.LogLevel),
		DBMaxOpenConns: pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns: pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	// Booleans: overlay wins if true, else base
	result.RewriteSource = base.RewriteSource || overlay.RewriteSource
	result.HistoryDisabled = base.HistoryDisabled || overlay.HistoryDisabled

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// pick returns overlay if it is non-zero, else base.
func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
