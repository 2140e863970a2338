package config

import "os"

// Environment variables recognized as overrides. They beat the config
// file so containers can point at a different store or listener
// without editing it.
const (
	EnvDB        = "SHIPLINK_DB"
	EnvListen    = "SHIPLINK_LISTEN"
	EnvTrailDSN  = "SHIPLINK_TRAIL_DSN"
	EnvAuthToken = "SHIPLINK_AUTH_TOKEN"
)

func (c *Config) applyEnv() {
	c.Database.Path = getEnv(EnvDB, c.Database.Path)
	c.Server.Listen = getEnv(EnvListen, c.Server.Listen)
	c.Server.AuthToken = getEnv(EnvAuthToken, c.Server.AuthToken)
	if dsn := os.Getenv(EnvTrailDSN); dsn != "" {
		c.Trail.DSN = dsn
		c.Trail.Enabled = true
	}
}

// getEnv gets an environment variable with a fallback.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
