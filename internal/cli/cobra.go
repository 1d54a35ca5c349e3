package cli

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photocat/internal/catalog"
	"photocat/internal/config"
)

// NewRootCmd creates the root Cobra command
func NewRootCmd(cfg *config.Config, log *slog.Logger, store *catalog.Store) *cobra.Command {
	root := NewRoot(cfg, log, store)

	rootCmd := &cobra.Command{
		Use:   "photocat",
		Short: "Photocat extracts and catalogs photo metadata",
		Long: `Photocat walks a staging directory of JPEG and RAW images, extracts
EXIF, IPTC and XMP metadata (including sidecar files), and keeps a
content-addressed SQLite catalog of the results.`,
	}

	rootCmd.AddCommand(newScanCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newRecentCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd(root))

	return rootCmd
}

func newScanCmd(root *Root) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "scan [staging_directory]",
		Short: "Extract metadata from staged photos into the catalog",
		Long: `Scan the staging directory for JPEG and RAW files, extract their
metadata and write the records to the catalog. Files the catalog has
already seen at the same modification time are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := root.cfg.Paths.StagingDir
			if len(args) > 0 {
				dir = args[0]
			}
			return root.runScan(cmd.Context(), dir, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-extract assets the catalog already knows")

	return cmd
}

func newWatchCmd(root *Root) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "watch [staging_directory]",
		Short: "Watch the staging directory and extract new photos as they arrive",
		Long: `Run an initial scan, then keep watching the staging directory.
New or rewritten assets, and sidecar edits, trigger re-extraction of the
affected files. Stops on SIGINT or SIGTERM.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := root.cfg.Paths.StagingDir
			if len(args) > 0 {
				dir = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return root.runWatch(ctx, dir, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-extract assets the catalog already knows on the initial scan")

	return cmd
}

func newRecentCmd(root *Root) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently captured photos in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runRecent(limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of photos to list")

	return cmd
}

func newVersionCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			root.cmdVersion(cmd)
		},
	}
}
