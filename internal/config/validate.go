package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateTrail(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen must be set")
	}
	if !strings.Contains(c.Server.Listen, ":") {
		return errors.New("server.listen must be a host:port address")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path must be set")
	}
	return nil
}

func (c *Config) validateTrail() error {
	if c.Trail.Enabled && c.Trail.DSN == "" {
		return errors.New("trail.dsn must be set when trail.enabled is true (or set SHIPLINK_TRAIL_DSN)")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be between 0 and 1")
	}
	if c.Matching.DateWindowDays <= 0 {
		return errors.New("matching.date_window_days must be positive")
	}
	if c.Matching.SoundexLength < 0 {
		return errors.New("matching.soundex_length must be >= 0")
	}
	if c.Matching.MaxResults <= 0 {
		return errors.New("matching.max_results must be positive")
	}
	if c.Matching.PruneRatio <= 0 || c.Matching.PruneRatio > 1 {
		return errors.New("matching.prune_ratio must be between 0 and 1")
	}
	weights := []struct {
		name  string
		value float64
	}{
		{"matching.name_weight", c.Matching.NameWeight},
		{"matching.date_weight", c.Matching.DateWeight},
		{"matching.nationality_weight", c.Matching.NationalityWeight},
		{"matching.phonetic_weight", c.Matching.PhoneticWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", w.name)
		}
		sum += w.value
	}
	if sum <= 0 {
		return errors.New("matching weights must not all be zero")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.CrewMinScore < 0 || c.Search.CrewMinScore > 1 {
		return errors.New("search.crew_min_score must be between 0 and 1")
	}
	if c.Search.CrewMaxResults <= 0 {
		return errors.New("search.crew_max_results must be positive")
	}
	if c.Search.NearbyRadiusKM <= 0 {
		return errors.New("search.nearby_radius_km must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be debug, info, warn or error")
	}
	return nil
}
