package logger

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds configuration for the logger.
type LoggerConfig struct {
	Level       string
	Format      string
	OutputFile  string
	ServiceName string
}

// DefaultConfig reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT_FILE and
// SERVICE_NAME from the environment. The logger is built before viper runs,
// so it cannot use the service config.
func DefaultConfig() *LoggerConfig {
	cfg := &LoggerConfig{
		Level:       "info",
		Format:      "json",
		OutputFile:  "stdout",
		ServiceName: "listing-wizard",
	}
	for key, dst := range map[string]*string{
		"LOG_LEVEL":       &cfg.Level,
		"LOG_FORMAT":      &cfg.Format,
		"LOG_OUTPUT_FILE": &cfg.OutputFile,
		"SERVICE_NAME":    &cfg.ServiceName,
	} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	cfg.Level = strings.ToLower(cfg.Level)
	cfg.Format = strings.ToLower(cfg.Format)
	return cfg
}

// ToZapLevel converts the configured level, falling back to info.
func (c *LoggerConfig) ToZapLevel() zapcore.Level {
	if c.Level == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}
