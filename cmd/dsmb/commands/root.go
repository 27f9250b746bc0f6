// Package commands implements the dsmb command line.
package commands

import (
	"github.com/marmos91/dittosmb/cmd/dsmb/commands/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "dsmb",
	Short: "dittosmb - SMB1 attribute service",
	Long: `dittosmb serves SMB1 SET_INFORMATION requests against a node store
(in-memory or BadgerDB) and lets you inspect and seed that store.

Every command reads the configuration file given by --config, or
$XDG_CONFIG_HOME/dittosmb/config.yaml. Create one with "dsmb config init".

Use "dsmb [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dittosmb/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(setinfoCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(mkfileCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(sharesCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(config.Cmd)
}
