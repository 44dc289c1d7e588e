package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Crawl contains the category seeds and rendition preferences used by the
// crawler.
type Crawl struct {
	Categories    []string `toml:"categories"`
	Exclude       []string `toml:"exclude"`
	Language      string   `toml:"language"`
	Quality       int      `toml:"quality"`
	HardSubtitles bool     `toml:"hard_subtitles"`
	// MinDate drops media first published before this day (YYYY-MM-DD).
	MinDate string `toml:"min_date"`
	Quiet   int    `toml:"quiet"`
}

// API contains configuration for the remote catalog endpoint.
type API struct {
	BaseURL         string `toml:"base_url"`
	UserAgent       string `toml:"user_agent"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// Paths contains directory and database locations.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	OutputDir   string `toml:"output_dir"`
	HistoryDB   string `toml:"history_db"`
	LogDir      string `toml:"log_dir"`
}

// Download contains configuration for fetching media files.
type Download struct {
	Subtitles   bool `toml:"subtitles"`
	Checksums   bool `toml:"checksums"`
	KeepFreeMiB int  `toml:"keep_free_mib"`
}

// Output contains configuration for index writers.
type Output struct {
	Mode string `toml:"mode"`
}

// Server contains configuration for the HTTP index server.
type Server struct {
	Bind           string `toml:"bind"`
	RefreshMinutes int    `toml:"refresh_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for jwb-index.
//
// Configuration sections by subsystem:
//   - Crawl: seed/excluded categories, language, quality and date filters
//   - API: catalog endpoint, user agent, timeouts and response caching
//   - Paths: download, output, history database and log locations
//   - Download: subtitle tracks, checksum verification, free space floor
//   - Output: index writer mode
//   - Server: bind address and refresh interval for `jwb-index serve`
//   - Logging: log format and level
type Config struct {
	Crawl    Crawl    `toml:"crawl"`
	API      API      `toml:"api"`
	Paths    Paths    `toml:"paths"`
	Download Download `toml:"download"`
	Output   Output   `toml:"output"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/jwb-index/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jwb-index.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the downloader and writers use.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.OutputDir, c.Paths.LogDir, filepath.Dir(c.Paths.HistoryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MinDate returns the parsed publish-date cutoff. The zero time means no cutoff.
func (c *Config) MinDate() (time.Time, error) {
	value := strings.TrimSpace(c.Crawl.MinDate)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.ParseInLocation(minDateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("crawl.min_date: expected YYYY-MM-DD, got %q", value)
	}
	return parsed, nil
}

// EffectiveLogLevel folds the crawl quiet level into the configured log level.
// Progress and skip messages are logged at info, so a quiet level of one hides
// them and two or more leaves only errors.
func (c *Config) EffectiveLogLevel() string {
	switch {
	case c.Crawl.Quiet >= 2:
		return "error"
	case c.Crawl.Quiet == 1:
		return "warn"
	default:
		return c.Logging.Level
	}
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched catalog documents are reused.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

// KeepFreeBytes returns the free space floor the downloader must respect.
func (c *Config) KeepFreeBytes() uint64 {
	if c.Download.KeepFreeMiB <= 0 {
		return 0
	}
	return uint64(c.Download.KeepFreeMiB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
