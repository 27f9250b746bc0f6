package commands

import (
	"context"
	"strconv"

	"github.com/marmos91/dittosmb/internal/cli/output"
	"github.com/spf13/cobra"
)

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "List configured shares",
	Long: `List the shares defined in the configuration.

Examples:
  dsmb shares
  dsmb shares -o yaml`,
	RunE: runShares,
}

// shareInfo is the printable form of a share.
type shareInfo struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	ReadOnly bool   `json:"read_only" yaml:"read_only"`
	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

func runShares(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background()) }()

	shares := rt.registry.ListShares()
	if printer.Format() != output.FormatTable {
		list := make([]shareInfo, 0, len(shares))
		for _, s := range shares {
			list = append(list, shareInfo{Name: s.Name, Type: s.Type.String(), ReadOnly: s.ReadOnly, Comment: s.Comment})
		}
		return printer.Print(list)
	}

	table := output.NewTableData("Name", "Type", "Read Only", "Comment")
	for _, s := range shares {
		table.AddRow(s.Name, s.Type.String(), strconv.FormatBool(s.ReadOnly), s.Comment)
	}
	return printer.Print(table)
}
