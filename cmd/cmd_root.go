// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ATorbado/leon-radares/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootOptions = struct {
	ConfigFile    string
	OutputDir     string
	MetricsFile   string
	DuckDB        string
	KafkaBrokers  []string
	KafkaTopic    string
	TraceHTTP     bool
	TraceHTTPBody bool
}{}

// cfg is loaded once per invocation, before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leon-radares",
	Short: "radares y cortes de tráfico en León",
	Long: `
leon-radares descarga las fuentes públicas de radares de tráfico (DGT), avisos
de cortes del Ayuntamiento y listados mensuales de controles, las normaliza a
un esquema común, las filtra al entorno de León y publica los ficheros que
consume el mapa.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(rootOptions.ConfigFile)
		if err != nil {
			return err
		}

		applyFlagOverrides(cmd, c)

		if err := config.InitLogger(c.Log); err != nil {
			return err
		}

		cfg = c

		return nil
	},
}

// applyFlagOverrides lets explicit flags win over file and environment values.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("output-dir") {
		c.OutputDir = rootOptions.OutputDir
	}

	if flags.Changed("metrics-file") {
		c.Metrics.File = rootOptions.MetricsFile
	}

	if flags.Changed("duckdb") {
		c.DuckDB.Path = rootOptions.DuckDB
	}

	if flags.Changed("kafka-brokers") {
		c.Kafka.Brokers = rootOptions.KafkaBrokers
	}

	if flags.Changed("kafka-topic") {
		c.Kafka.Topic = rootOptions.KafkaTopic
	}

	if flags.Changed("trace-http") {
		c.HTTP.Trace = rootOptions.TraceHTTP
	}

	if flags.Changed("trace-http-body") {
		c.HTTP.TraceBody = rootOptions.TraceHTTPBody
	}
}

var Version = "dev"

func userAgent() string {
	if cfg != nil && cfg.UserAgent != "" {
		return cfg.UserAgent
	}

	return fmt.Sprintf("leon-radares/%s (+https://github.com/ATorbado/leon-radares)", Version)
}

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	_ = zap.L().Sync()

	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.ConfigFile, "config", "", "Fichero de configuración (por defecto ./leon-radares.yaml)")
	flags.StringVar(&rootOptions.OutputDir, "output-dir", ".", "Directorio raíz de los ficheros generados")
	flags.StringVar(&rootOptions.MetricsFile, "metrics-file", "", "Escribe las métricas Prometheus en este fichero al terminar")
	flags.StringVar(&rootOptions.DuckDB, "duckdb", "", "Base DuckDB donde guardar una copia de cada fuente")
	flags.StringSliceVar(&rootOptions.KafkaBrokers, "kafka-brokers", nil, "Brokers Kafka donde publicar cada fichero generado")
	flags.StringVar(&rootOptions.KafkaTopic, "kafka-topic", "", "Topic Kafka de publicación")
	flags.BoolVar(&rootOptions.TraceHTTP, "trace-http", false, "Display HTTP requests-responses")
	flags.BoolVar(&rootOptions.TraceHTTPBody, "trace-http-body", false, "Display HTTP requests-responses bodies")
}
