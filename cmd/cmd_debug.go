// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/output"
	"github.com/ATorbado/leon-radares/sources"
	"github.com/ATorbado/leon-radares/spatial"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugReadOptions = struct {
	Kind        string
	Mapping     string
	ContentType string
}{}

var debugReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Lee un documento de stdin con el lector indicado e imprime los registros normalizados",
	Long: `Lee un documento de stdin con el lector de --kind, lo normaliza y lo imprime
como JSON, un registro por línea. No filtra ni deduplica.

$ curl -s https://www.aytoleon.es/es/actualidad/avisos | leon-radares debug read --kind avisos
{"id":"avisos-…","tipo":"Corte","categoria":"closure","descripcion":"Corte de tráfico en …"}
	`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if isatty.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(os.Stderr, "Esperando el documento en stdin…")
		}

		reader, err := sources.Lookup(debugReadOptions.Kind)
		if err != nil {
			return err
		}

		name := debugReadOptions.Mapping
		if name == "" {
			name = debugReadOptions.Kind
		}

		mapping, err := normalize.MappingFor(name)
		if err != nil {
			return err
		}

		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}

		records, err := reader.Read(sources.Payload{Body: body, ContentType: debugReadOptions.ContentType})
		if err != nil {
			return err
		}

		n := &normalize.Normalizer{Mapping: mapping, Source: "debug", IDPrefix: debugReadOptions.Kind}
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)

		for _, rec := range records {
			e, ok := n.Normalize(rec)
			if !ok {
				continue
			}

			if err := enc.Encode(output.NewRecord(e)); err != nil {
				return err
			}
		}

		return nil
	},
}

var debugDistanceCmd = &cobra.Command{
	Use:   "distance <lat> <lon>",
	Short: "Distancia en km desde el punto de referencia de León",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		lat, err := normalize.Decimal(args[0])
		if err != nil {
			return err
		}

		lng, err := normalize.Decimal(args[1])
		if err != nil {
			return err
		}

		if err := spatial.Validate(lat, lng); err != nil {
			return err
		}

		ref := spatial.Point{Lat: cfg.Reference.Lat, Lng: cfg.Reference.Lng}
		p := spatial.Point{Lat: lat, Lng: lng}
		d := ref.DistanceKm(p)

		radius := cfg.Reference.RadiusKm
		if radius <= 0 {
			radius = config.DefaultRadiusKm
		}

		cell, err := p.H3Cell(output.H3Resolution)
		if err != nil {
			return err
		}

		fmt.Printf("%s km\tdentro del radio de %s km: %t\th3: %s\n",
			strconv.FormatFloat(spatial.Round(d, 3), 'f', -1, 64),
			strconv.FormatFloat(radius, 'f', -1, 64),
			d <= radius,
			cell,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugReadCmd)
	debugCmd.AddCommand(debugDistanceCmd)
	debugReadCmd.Flags().StringVar(&debugReadOptions.Kind, "kind", "avisos", "Lector: "+fmt.Sprint(sources.Kinds()))
	debugReadCmd.Flags().StringVar(&debugReadOptions.Mapping, "mapping", "", "Tabla de normalización, por defecto la del lector")
	debugReadCmd.Flags().StringVar(&debugReadOptions.ContentType, "content-type", "", "Content-Type del documento")
}
