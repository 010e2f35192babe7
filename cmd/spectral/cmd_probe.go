package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spectral/internal/lines"
)

var (
	probeLambdaMin float64
	probeLambdaMax float64
	probeSpecies   []string
	probeNodes     []string
	probeJSON      bool
)

// probeCmd runs the metadata-only pipeline
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe nodes without fetching any data",
	Long: `Issues the HEAD probes for the requested interval and prints the
server-reported count headers per fragment. Nothing is downloaded and no
artifact files are written.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().Float64Var(&probeLambdaMin, "lambda-min", 0, "lower wavelength bound (Angstrom)")
	probeCmd.Flags().Float64Var(&probeLambdaMax, "lambda-max", 0, "upper wavelength bound (Angstrom)")
	probeCmd.Flags().StringArrayVar(&probeSpecies, "species", nil, "species as InChIKey:kind (repeatable)")
	probeCmd.Flags().StringArrayVar(&probeNodes, "node", nil, "node as identifier=endpoint or bare endpoint (repeatable)")
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "emit one JSON record per fragment")
}

func runProbe(cmd *cobra.Command, args []string) error {
	species, err := parseSpecies(probeSpecies)
	if err != nil {
		return err
	}
	nodes, err := parseNodes(probeNodes)
	if err != nil {
		return err
	}

	svc := lines.NewService(cfg, logger)
	records, err := svc.ProbeLines(cmd.Context(), lines.Request{
		LambdaMin: probeLambdaMin,
		LambdaMax: probeLambdaMax,
		Species:   species,
		Nodes:     nodes,
	})
	if err != nil {
		return err
	}

	if probeJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s [%g, %g] %s truncated=%v headers=%v\n",
			r.Endpoint, r.LambdaMin, r.LambdaMax, r.InChIKey, r.Truncated, r.CountHeaders)
	}
	fmt.Printf("%d fragments probed\n", len(records))
	return nil
}
