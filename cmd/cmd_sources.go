// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/ATorbado/leon-radares/config"
	"github.com/spf13/cobra"
)

func geoLabel(src *config.Source) string {
	switch src.Geo {
	case config.GeoArea:
		return "área " + src.Area
	case config.GeoRadius:
		return fmt.Sprintf("radio %g km", src.RadiusKm)
	default:
		return "-"
	}
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lista las fuentes disponibles",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, b, c, d := strings.Repeat("─", 14), strings.Repeat("─", 8), strings.Repeat("─", 16), strings.Repeat("─", 42)
		fmt.Println("Fuentes disponibles:")
		fmt.Printf("╭─%-14s─┬─%-8s─┬─%-16s─┬─%-42s╮\n", a, b, c, d)
		fmt.Printf("│ %-14s │ %-8s │ %-16s │ %-42s│\n", "Nombre", "Tipo", "Filtro", "Salida")
		fmt.Printf("├─%-14s─┼─%-8s─┼─%-16s─┼─%-42s┤\n", a, b, c, d)
		err := cfg.Catalog().Each(func(src config.Source) error {
			fmt.Printf("│ %-14s │ %-8s │ %-16s │ %-42s│\n", src.Name, src.Kind, geoLabel(&src), src.Output)

			return nil
		})
		fmt.Printf("╰─%-14s─┴─%-8s─┴─%-16s─┴─%-42s╯\n", a, b, c, d)

		return err
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
