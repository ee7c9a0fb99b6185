// Package cmd provides the CLI commands for taxmap.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxmap/internal/config"
	"taxmap/internal/logging"
)

// Version is set at build time with -ldflags "-X taxmap/cmd/cli/cmd.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taxmap",
	Short: "Compare income tax burdens across countries",
	Long: `taxmap estimates the annual tax burden of a monthly salary in every
country of its catalog: progressive or flat income tax, special levies and
VAT on spending, converted into a currency of your choice and ranked.

Examples:
  taxmap calculate --salary 5000
  taxmap calculate --salary 4000 --input-currency EUR --display-currency GBP --top 10
  taxmap country germany --salary 5000 --input-currency EUR
  taxmap catalog validate --catalog ./overrides.hcl`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.taxmap/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(versionCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func initConfig() {
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if noColor {
		cfg.Output.NoColor = true
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "taxmap version %s\n", Version)
	},
}
