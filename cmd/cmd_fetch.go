// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/fetch"
	"github.com/ATorbado/leon-radares/metrics"
	"github.com/ATorbado/leon-radares/pipeline"
	"github.com/ATorbado/leon-radares/sink"
	"github.com/ATorbado/leon-radares/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sourceArgs validates that every argument names a catalog source.
func sourceArgs(_ *cobra.Command, args []string) error {
	catalog := config.DefaultCatalog()

	for _, a := range args {
		if _, err := catalog.Find(a); err != nil {
			return err
		}
	}

	return nil
}

// selectSources returns the catalog restricted to args, or the whole catalog.
func selectSources(catalog config.Catalog, args []string) (config.Catalog, error) {
	if len(args) == 0 {
		return catalog, nil
	}

	ret := make(config.Catalog, 0, len(args))

	for _, a := range args {
		src, err := catalog.Find(a)
		if err != nil {
			return nil, err
		}

		ret = append(ret, *src)
	}

	return ret, nil
}

// openSinks builds the artifact file store plus the optional snapshot sinks.
func openSinks(c *config.Config) (sink.Multi, error) {
	sinks := sink.Multi{sink.NewFileStore(c.OutputDir)}

	if c.DuckDB.Path != "" {
		db, err := sink.OpenDuckDB(c.DuckDB.Path, zap.L())
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, db)
	}

	if len(c.Kafka.Brokers) > 0 {
		if c.Kafka.Topic == "" {
			_ = sinks.Close()
			return nil, errors.New("kafka brokers configured without a topic")
		}

		sinks = append(sinks, sink.NewKafkaPublisher(c.Kafka.Brokers, c.Kafka.Topic))
	}

	return sinks, nil
}

func newPipeline(c *config.Config, sinks sink.Sink, m *metrics.Metrics) *pipeline.Pipeline {
	client := fetch.NewClient(&fetch.ClientOptions{
		UserAgent:           userAgent(),
		EnableHTTPTrace:     c.HTTP.Trace,
		EnableHTTPBodyTrace: c.HTTP.TraceBody,
		BaseDir:             c.OutputDir,
	})

	return pipeline.New(client, sinks, pipeline.WithMetrics(m), pipeline.WithLogger(zap.L()))
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [source...]",
	Short: "Descarga, normaliza y publica las fuentes (todas por defecto)",
	Args:  sourceArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := selectSources(cfg.Catalog(), args)
		if err != nil {
			return err
		}

		sinks, err := openSinks(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := sinks.Close(); err != nil {
				zap.L().Warn("closing sinks", zap.Error(err))
			}
		}()

		m := metrics.New()
		p := newPipeline(cfg, sinks, m)

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(catalog),
				progressbar.OptionSetDescription("Fuentes"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		results, runErr := p.RunAll(cmd.Context(), catalog, func(src *config.Source, _ *pipeline.Result) {
			if bar != nil {
				bar.Describe(src.Name)
				_ = bar.Add(1)
			}
		})

		if bar != nil {
			_ = bar.Finish()
		}

		printResults(results)

		if cfg.Metrics.File != "" {
			if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
				return errors.Join(runErr, err)
			}
		}

		return runErr
	},
}

func printResults(results []*pipeline.Result) {
	a, b, c, d := strings.Repeat("─", 14), strings.Repeat("─", 8), strings.Repeat("─", 8), strings.Repeat("─", 30)
	fmt.Printf("╭─%-14s─┬─%8s─┬─%8s─┬─%-30s╮\n", a, b, c, d)
	fmt.Printf("│ %-14s │ %8s │ %8s │ %-30s│\n", "Fuente", "Leídos", "Salida", "Estado")
	fmt.Printf("├─%-14s─┼─%8s─┼─%8s─┼─%-30s┤\n", a, b, c, d)

	for _, r := range results {
		status := "ok"
		if r.Failure != nil {
			status = "vacío: fallo de " + r.Failure.Kind.String()
			if pipeline.IsTimeout(r.Failure) {
				status += " (timeout)"
			}
		}

		fmt.Printf("│ %-14s │ %8s │ %8s │ %-30s│\n",
			r.Source,
			textutils.FormatInt(int64(r.Records)),
			textutils.FormatInt(int64(r.Entries)),
			status,
		)
	}

	fmt.Printf("╰─%-14s─┴─%8s─┴─%8s─┴─%-30s╯\n", a, b, c, d)
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
