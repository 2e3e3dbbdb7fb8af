// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/ATorbado/leon-radares/metrics"
	"github.com/ATorbado/leon-radares/server"
	"github.com/ATorbado/leon-radares/sink"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveOptions = struct {
	Addr          string
	EnableRefresh bool
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sirve los ficheros generados mediante una API HTTP de solo lectura",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveOptions.Addr
		}

		store := sink.NewFileStore(cfg.OutputDir)
		m := metrics.New()

		var runner server.Runner

		if serveOptions.EnableRefresh {
			sinks, err := openSinks(cfg)
			if err != nil {
				return err
			}
			defer sinks.Close()

			runner = newPipeline(cfg, sinks, m)
		}

		zap.L().Info("serving artifacts",
			zap.String("addr", addr),
			zap.String("output_dir", cfg.OutputDir),
			zap.Bool("refresh", runner != nil))

		return server.NewServer(cfg.Catalog(), store, runner, m).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", ":8080", "Dirección de escucha")
	serveCmd.Flags().BoolVar(
		&serveOptions.EnableRefresh,
		"enable-refresh",
		false,
		"Permite regenerar una fuente con POST /api/sources/:source/refresh",
	)
}
