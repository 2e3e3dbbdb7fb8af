// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the runtime configuration and exposes the catalog of
// sources the pipeline knows how to process.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment override, e.g.
// LEONRADARES_SOURCES_DGT_PUNTOS_URL.
const EnvPrefix = "LEONRADARES"

// Config holds the full application configuration.
type Config struct {
	OutputDir string          `yaml:"output_dir" mapstructure:"output_dir"`
	UserAgent string          `yaml:"user_agent" mapstructure:"user_agent"`
	Reference ReferenceConfig `yaml:"reference" mapstructure:"reference"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	DuckDB    DuckDBConfig    `yaml:"duckdb" mapstructure:"duckdb"`
	Kafka     KafkaConfig     `yaml:"kafka" mapstructure:"kafka"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`

	// Per-source overrides keyed by source name.
	Sources map[string]SourceConfig `yaml:"sources" mapstructure:"sources"`
}

// ReferenceConfig is the place radius-filtered sources measure from.
type ReferenceConfig struct {
	Lat      float64 `yaml:"lat" mapstructure:"lat"`
	Lng      float64 `yaml:"lng" mapstructure:"lng"`
	RadiusKm float64 `yaml:"radius_km" mapstructure:"radius_km"`
	Area     string  `yaml:"area" mapstructure:"area"`
}

// HTTPConfig tunes the fetcher.
type HTTPConfig struct {
	Trace     bool `yaml:"trace" mapstructure:"trace"`
	TraceBody bool `yaml:"trace_body" mapstructure:"trace_body"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the Prometheus textfile written after a run.
type MetricsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// DuckDBConfig enables the snapshot table sink when Path is set.
type DuckDBConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// KafkaConfig enables the Kafka sink when Brokers is not empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// SourceConfig overrides catalog values for a single source. Zero values keep
// the catalog default.
type SourceConfig struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Output   string        `yaml:"output" mapstructure:"output"`
	RadiusKm float64       `yaml:"radius_km" mapstructure:"radius_km"`
	Area     string        `yaml:"area" mapstructure:"area"`
	Disabled bool          `yaml:"disabled" mapstructure:"disabled"`
}

// Load reads the configuration. An empty path looks for leon-radares.yaml in
// the working directory and tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("leon-radares")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("user_agent", "") // empty: leon-radares/<version>
	v.SetDefault("reference.lat", LeonLat)
	v.SetDefault("reference.lng", LeonLng)
	v.SetDefault("reference.radius_km", DefaultRadiusKm)
	v.SetDefault("reference.area", DefaultArea)
	v.SetDefault("http.trace", false)
	v.SetDefault("http.trace_body", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.file", "")
	v.SetDefault("duckdb.path", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "leon-radares.snapshots")
	v.SetDefault("server.addr", ":8080")

	// Registering every source key lets AutomaticEnv resolve overrides for
	// sources that have no entry in the config file.
	for _, src := range defaultSources {
		prefix := "sources." + src.Name + "."
		v.SetDefault(prefix+"url", src.URL)
		v.SetDefault(prefix+"timeout", src.Timeout)
		v.SetDefault(prefix+"output", src.Output)
		v.SetDefault(prefix+"radius_km", 0.0)
		v.SetDefault(prefix+"area", "")
		v.SetDefault(prefix+"disabled", false)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}

	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}

	zap.ReplaceGlobals(logger)

	return nil
}
