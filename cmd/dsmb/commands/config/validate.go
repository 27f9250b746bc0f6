package config

import (
	"fmt"

	"github.com/marmos91/dittosmb/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the dittosmb configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  dsmb config validate

  # Validate specific config file
  dsmb config validate --config /etc/dittosmb/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Metadata store:  %s\n", cfg.Metadata.Type)
	_, _ = fmt.Fprintf(out, "  Shares:          %d\n", len(cfg.Shares))
	_, _ = fmt.Fprintf(out, "  Time zone:       %s\n", cfg.Server.TimeZone)
	_, _ = fmt.Fprintf(out, "  Break timeout:   %s\n", cfg.Oplock.BreakTimeout)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}

// configWarnings reports settings that are valid but probably unintended.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Metadata.Type == "memory" {
		warnings = append(warnings, "memory metadata store: changes are lost when the process exits")
	}
	if cfg.Identity.Guest {
		warnings = append(warnings, "identity is guest: requests run without a named principal")
	}
	disk := 0
	for _, s := range cfg.Shares {
		if s.Type == "" || s.Type == "disk" {
			disk++
		}
	}
	if disk == 0 {
		warnings = append(warnings, "no disk shares: SET_INFORMATION will never reach the store")
	}
	return warnings
}
