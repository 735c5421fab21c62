package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/config"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/resolver"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/runner"
)

var cfgFile string

func main() {
	// Optional .env with local paths (HSPIP_DIR, PUBCHEM_BASE_URL).
	godotenv.Load()

	root := &cobra.Command{
		Use:          "cas-to-hspip",
		Short:        "Batch retrieval of Hansen Solubility Parameters from CAS numbers",
		Long:         "Resolves CAS registry numbers to SMILES via PubChem, feeds the structures\nthrough the HSPiP CLI and collects the solubility-parameter table.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	root.AddCommand(runCmd(), hspCmd(), resolveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the first-run contract: generate the config/input
// templates when absent and exit so the user can fill them in.
func loadConfig() (*config.Config, error) {
	cfg, shouldExit, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if shouldExit {
		fmt.Println("Exiting. Edit the generated file(s) and run again.")
		os.Exit(0)
	}
	return cfg, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: CAS list → PubChem SMILES → HSPiP properties → CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runner.New(cfg).RunAll()
		},
	}
}

func hspCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hsp <smiles-file>",
		Short: "Run the HSPiP pass only, over an existing SMILES list (.csv or .txt)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runner.New(cfg).RunHSP(args[0])
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <cas-number>",
		Short: "Look up one CAS number in PubChem and print its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A single lookup should run without generating config templates.
			cfg := config.Default()
			if _, err := os.Stat(cfgFile); err == nil {
				cfg, err = config.LoadFile(cfgFile)
				if err != nil {
					return err
				}
			} else {
				config.ApplyEnvOverrides(cfg)
			}

			client := resolver.NewClient(cfg.PubChem.BaseURL,
				time.Duration(cfg.PubChem.TimeoutSeconds)*time.Second,
				cfg.PubChem.MaxRetries)

			compound, err := client.Resolve(args[0])
			if errors.Is(err, resolver.ErrNotFound) {
				fmt.Printf("Error: CAS number %s not found in PubChem\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("CID: %d\n", compound.CID)
			fmt.Printf("MolecularFormula: %s\n", compound.MolecularFormula)
			fmt.Printf("MolecularWeight: %s\n", compound.MolecularWeight)
			fmt.Printf("CanonicalSMILES: %s\n", compound.CanonicalSMILES)
			fmt.Printf("IsomericSMILES: %s\n", compound.IsomericSMILES)
			fmt.Printf("InChI: %s\n", compound.InChI)
			fmt.Printf("InChIKey: %s\n", compound.InChIKey)
			fmt.Printf("IUPACName: %s\n", compound.IUPACName)
			for _, p := range compound.Extra {
				fmt.Printf("%s: %s\n", p.Name, p.Value)
			}
			return nil
		},
	}
}
