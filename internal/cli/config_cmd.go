package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long:  "Show or validate photocat configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.configShow()
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.configValidate(); err != nil {
				return err
			}
			fmt.Println("Configuration is valid")
			return nil
		},
	}

	cmd.AddCommand(showCmd, validateCmd)
	return cmd
}

func (r *Root) configShow() error {
	fmt.Printf("Current configuration:\n")
	cfgPath := os.Getenv("PHOTOCAT_CONFIG")
	if cfgPath == "" {
		cfgPath = "(default) ~/.config/photocat/config.json"
	}
	fmt.Printf("Config file: %s\n", cfgPath)
	fmt.Printf("\nPaths:\n")
	fmt.Printf("  Staging directory: %s\n", r.cfg.Paths.StagingDir)
	fmt.Printf("  Catalog database: %s\n", r.cfg.Paths.CatalogPath)
	fmt.Printf("\nExtraction:\n")
	fmt.Printf("  Workers: %d\n", r.cfg.Extraction.Workers)
	fmt.Printf("  Per-asset timeout: %s\n", r.cfg.Extraction.AssetTimeout())
	fmt.Printf("  Max IFD depth: %d\n", r.cfg.Extraction.MaxIFDDepth)
	fmt.Printf("  Keep unknown tags: %t\n", r.cfg.Extraction.KeepUnknownTags)
	fmt.Printf("\nWatch:\n")
	fmt.Printf("  Debounce: %s\n", r.cfg.Watch.Debounce())
	fmt.Printf("\nLogging:\n")
	fmt.Printf("  Level: %s\n", r.cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", r.cfg.Logging.Format)
	fmt.Printf("  File output: %t\n", r.cfg.Logging.FileOutput)
	fmt.Printf("  Log directory: %s\n", r.cfg.Logging.LogDir)
	return nil
}

func (r *Root) configValidate() error {
	if r.cfg.Extraction.Workers < 1 {
		return fmt.Errorf("extraction.workers must be at least 1, got %d", r.cfg.Extraction.Workers)
	}
	if r.cfg.Extraction.MaxIFDDepth < 1 {
		return fmt.Errorf("extraction.max_ifd_depth must be at least 1, got %d", r.cfg.Extraction.MaxIFDDepth)
	}
	if r.cfg.Extraction.AssetTimeoutSeconds < 0 {
		return fmt.Errorf("extraction.asset_timeout_seconds must not be negative")
	}
	if r.cfg.Paths.StagingDir == "" {
		return fmt.Errorf("paths.staging_dir must not be empty")
	}
	if r.cfg.Paths.CatalogPath == "" {
		return fmt.Errorf("paths.catalog_path must not be empty")
	}
	switch r.cfg.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", r.cfg.Logging.Format)
	}
	return nil
}

func (r *Root) cmdVersion(cmd *cobra.Command) {
	cmd.Printf("Photocat v1.0.0\n")
	cmd.Printf("Built with Go %s\n", runtime.Version())
}
