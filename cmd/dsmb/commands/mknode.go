package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/spf13/cobra"
)

var (
	mkShare   string
	mkPath    string
	mkAttrs   string
	mkSymlink string
)

var mkfileCmd = &cobra.Command{
	Use:   "mkfile",
	Short: "Create an empty file (or a symlink)",
	Long: `Create an empty file in a share, for seeding a persistent store.

Examples:
  dsmb mkfile --share public --path '\docs\report.txt' --attrs archive
  dsmb mkfile --share public --path '\link' --symlink-to 'docs\report.txt'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		attr := metadata.FileAttr{Type: metadata.FileTypeRegular, Mode: 0o644}
		if mkSymlink != "" {
			attr = metadata.FileAttr{Type: metadata.FileTypeSymlink, Mode: 0o777, LinkTarget: mkSymlink}
		}
		return runMknode(cmd, attr)
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir",
	Short: "Create a directory",
	Long: `Create a directory in a share, for seeding a persistent store.

Examples:
  dsmb mkdir --share public --path '\docs'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMknode(cmd, metadata.FileAttr{
			Type:          metadata.FileTypeDirectory,
			Mode:          0o755,
			DosAttributes: uint32(types.FileAttributeDirectory),
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{mkfileCmd, mkdirCmd} {
		c.Flags().StringVar(&mkShare, "share", "", "Share name (required)")
		c.Flags().StringVar(&mkPath, "path", "", "Path to create (required)")
		c.Flags().StringVar(&mkAttrs, "attrs", "", "Initial DOS attributes")
		_ = c.MarkFlagRequired("share")
		_ = c.MarkFlagRequired("path")
	}
	mkfileCmd.Flags().StringVar(&mkSymlink, "symlink-to", "", "Create a symlink to this target instead of a file")
}

func runMknode(cmd *cobra.Command, attr metadata.FileAttr) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	if mkAttrs != "" {
		attrs, err := parseAttributes(mkAttrs)
		if err != nil {
			return err
		}
		attr.DosAttributes |= uint32(attrs)
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

	tree, err := rt.connect(ctx, mkShare)
	if err != nil {
		return err
	}
	defer rt.registry.TreeDisconnect(tree)
	if !tree.Share.IsDisk() {
		return fmt.Errorf("share %q is not a disk share", tree.Share.Name)
	}

	store := rt.registry.Store()
	dir, name, err := store.ResolvePath(ctx, rt.identity, tree.Root, tree.Cwd, mkPath)
	if err != nil {
		return err
	}
	h, err := store.Create(ctx, rt.identity, dir, name, attr)
	dir.Release()
	if err != nil {
		return fmt.Errorf("create %s: %w", mkPath, err)
	}
	defer h.Release()

	return printer.Print(newNodeInfo(tree.Share.Name, mkPath, h, rt.location))
}
