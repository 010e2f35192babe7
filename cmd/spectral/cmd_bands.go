package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spectral/internal/catalog"
)

var bandsWavelength float64

// bandsCmd lists telescope bands
var bandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "List telescope bands and their wavelength coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bandsWavelength > 0 {
			matches := catalog.BandsForWavelength(bandsWavelength)
			if len(matches) == 0 {
				fmt.Printf("no band covers %g Angstrom\n", bandsWavelength)
				return nil
			}
			for _, name := range matches {
				fmt.Println(name)
			}
			return nil
		}
		for _, b := range catalog.TelescopeBands {
			fmt.Printf("%-20s [%.4e, %.4e] Angstrom\n", b.Name, b.LambdaMin, b.LambdaMax)
		}
		return nil
	},
}

func init() {
	bandsCmd.Flags().Float64Var(&bandsWavelength, "wavelength", 0, "show only bands covering this wavelength (Angstrom)")
}
