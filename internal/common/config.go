// Package common provides shared utilities for KI7MT IRI applications.
package common

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
)

// Config holds common configuration for all applications.
type Config struct {
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	SolarDatabase      string
	IRIHome            string // install directory holding data/
	IRIDriver          string // driver executable
	DataDir            string
	LogLevel           string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     getEnvInt("CLICKHOUSE_PORT", 9000),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "iri"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		SolarDatabase:      getEnv("SOLAR_DATABASE", "solar"),
		IRIHome:            getEnv(iri.HomeEnv, ""),
		IRIDriver:          getEnv("IRI90_DRIVER", ""),
		DataDir:            getEnv("KI7MT_DATA_DIR", "/var/lib/ki7mt-iri"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// ClickHouseAddr returns host:port for the native protocol.
func (c *Config) ClickHouseAddr() string {
	if strings.Contains(c.ClickHouseHost, ":") {
		return c.ClickHouseHost
	}
	return c.ClickHouseHost + ":" + strconv.Itoa(c.ClickHousePort)
}

// Debug reports whether LOG_LEVEL is debug.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// SolarDataDir returns the solar data directory path.
func (c *Config) SolarDataDir() string {
	return filepath.Join(c.DataDir, "solar")
}

// ResolveIRIHome returns IRIHome, or the directory of the running
// executable when unset.
func (c *Config) ResolveIRIHome() (string, error) {
	if c.IRIHome != "" {
		return filepath.Abs(c.IRIHome)
	}
	return iri.InstallDir()
}

// ResolveDriver returns IRIDriver, or <home>/iri90drv when unset.
func (c *Config) ResolveDriver(home string) string {
	if c.IRIDriver != "" {
		return c.IRIDriver
	}
	return filepath.Join(home, "iri90drv")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
