// Package config loads and validates shiplink configuration from a
// TOML file, with environment overrides for deployment details.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener settings. An empty AuthToken leaves
// the API open; set one to require a bearer token on /api routes.
type Server struct {
	Listen     string `toml:"listen"`
	AuthToken  string `toml:"auth_token"`
	CORSOrigin string `toml:"cors_origin"`
}

// Database contains the archive store location.
type Database struct {
	Path string `toml:"path"`
}

// Archives points at an optional registry manifest override. Empty
// means the embedded manifest.
type Archives struct {
	Manifest string `toml:"manifest"`
}

// Trail contains settings for the optional Postgres link trail.
type Trail struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

// Matching contains the tunable resolution parameters. The weights
// are renormalized at scoring time when a record has no usable date,
// so they need not sum to exactly one here.
type Matching struct {
	Threshold         float64 `toml:"threshold"`
	DateWindowDays    int     `toml:"date_window_days"`
	SoundexLength     int     `toml:"soundex_length"`
	MaxResults        int     `toml:"max_results"`
	PruneRatio        float64 `toml:"prune_ratio"`
	NameWeight        float64 `toml:"name_weight"`
	DateWeight        float64 `toml:"date_weight"`
	NationalityWeight float64 `toml:"nationality_weight"`
	PhoneticWeight    float64 `toml:"phonetic_weight"`
}

// Search contains limits for the interactive search endpoints.
type Search struct {
	CrewMinScore   float64 `toml:"crew_min_score"`
	CrewMaxResults int     `toml:"crew_max_results"`
	NearbyRadiusKM float64 `toml:"nearby_radius_km"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all shiplink settings.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Archives Archives `toml:"archives"`
	Trail    Trail    `toml:"trail"`
	Matching Matching `toml:"matching"`
	Search   Search   `toml:"search"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/shiplink/config.toml")
}

// Load locates, parses, and validates a configuration file. Settings
// start from the defaults, the file overrides them, and environment
// variables override the file. The returned path is the file that was
// used (or would have been); the bool reports whether it existed.
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

	cfg.applyEnv()

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
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shiplink.toml")
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

// normalize expands the store path so the daemon and one-shot commands
// agree on the file regardless of working directory.
func (c *Config) normalize() error {
	path, err := ExpandPath(c.Database.Path)
	if err != nil {
		return err
	}
	c.Database.Path = path
	if c.Archives.Manifest != "" {
		manifest, err := ExpandPath(c.Archives.Manifest)
		if err != nil {
			return err
		}
		c.Archives.Manifest = manifest
	}
	c.Server.AuthToken = strings.TrimSpace(c.Server.AuthToken)
	c.Server.CORSOrigin = strings.TrimSpace(c.Server.CORSOrigin)
	c.Trail.DSN = strings.TrimSpace(c.Trail.DSN)
	return nil
}

// CreateSample writes a commented sample configuration to path.
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

// ExpandPath resolves a leading ~ against the home directory and
// returns the cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
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
