package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spectral/internal/catalog"
	"spectral/internal/config"
	"spectral/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger, built in PersistentPreRunE
	logger *zap.Logger

	// Effective configuration
	cfg config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "spectral",
	Short: "spectral - federated VAMDC spectral-line retrieval",
	Long: `spectral retrieves spectroscopic line data from the federated VAMDC
infrastructure. It fans a wavelength-interval query out across every
selected node, recursively splits queries the nodes report as truncated,
converts the XSAMS payloads to tabular artifacts and merges them per node
and species kind.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Env vars may come from a local .env file.
		_ = godotenv.Load(".env")

		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "spectral.yaml", "path to the YAML config file")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(bandsCmd)
	rootCmd.AddCommand(filterCmd)
}

// parseSpecies parses repeated --species values of the form
// "InChIKey:kind", e.g. "XLYOFNOQVQJJNP-UHFFFAOYSA-N:molecule".
func parseSpecies(values []string) ([]catalog.Species, error) {
	var out []catalog.Species
	for _, v := range values {
		key, kindStr, found := strings.Cut(v, ":")
		if !found || key == "" {
			return nil, fmt.Errorf("species %q: want InChIKey:kind", v)
		}
		kind, err := catalog.ParseKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("species %q: %w", v, err)
		}
		out = append(out, catalog.Species{InChIKey: key, Kind: kind})
	}
	return out, nil
}

// parseNodes parses repeated --node values of the form "identifier=endpoint"
// or a bare endpoint URL.
func parseNodes(values []string) ([]catalog.Node, error) {
	var out []catalog.Node
	for _, v := range values {
		id, endpoint, found := strings.Cut(v, "=")
		if !found {
			endpoint = v
			id = v
		}
		if endpoint == "" {
			return nil, fmt.Errorf("node %q: empty endpoint", v)
		}
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		out = append(out, catalog.Node{Identifier: id, TAPEndpoint: endpoint})
	}
	return out, nil
}
