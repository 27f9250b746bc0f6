package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	statShare string
	statPath  string
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Show the attributes of a file or directory",
	Long: `Show the committed attributes of a node, following symlinks.

Examples:
  dsmb stat --share public --path '\docs\report.txt'
  dsmb stat --share public --path '\docs' -o json`,
	RunE: runStat,
}

func init() {
	statCmd.Flags().StringVar(&statShare, "share", "", "Share name (required)")
	statCmd.Flags().StringVar(&statPath, "path", "", "Path of the file or directory (required)")
	_ = statCmd.MarkFlagRequired("share")
	_ = statCmd.MarkFlagRequired("path")
}

func runStat(cmd *cobra.Command, args []string) error {
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

	tree, err := rt.connect(ctx, statShare)
	if err != nil {
		return err
	}
	defer rt.registry.TreeDisconnect(tree)

	h, err := rt.resolve(ctx, tree, statPath)
	if err != nil {
		return err
	}
	defer h.Release()

	return printer.Print(newNodeInfo(tree.Share.Name, statPath, h, rt.location))
}
