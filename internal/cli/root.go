// Package cli implements the tumorboard command line: catalog inspection,
// case analysis, terminal consultations and archived run review.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rpggio/tumorboard/internal/config"
	"github.com/rpggio/tumorboard/internal/domain/participant"
)

// RootCmd returns the tumorboard command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tumorboard",
		Short: "Simulated multidisciplinary tumor board",
		Long: `tumorboard convenes a simulated panel of medical specialists around a
free-text case, plays back their discussion and extracts a consensus report.

The same panel engine backs tumorboard-server, which exposes it over MCP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor {
				color.NoColor = true
			}
			path, _ := cmd.Flags().GetString("config")
			if path != "" {
				return os.Setenv("TUMORBOARD_CONFIG_PATH", path)
			}
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "path to a tumorboard YAML config file")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")
	root.PersistentFlags().Bool("verbose", false, "log engine events to stderr")

	root.AddCommand(CatalogCmd())
	root.AddCommand(AnalyzeCmd())
	root.AddCommand(RunCmd())
	root.AddCommand(ArchiveCmd())
	return root
}

// environment is the configuration shared by every subcommand.
type environment struct {
	cfg     config.Config
	catalog *participant.Catalog
	logger  *slog.Logger
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	catalog := participant.DefaultCatalog()
	if cfg.Catalog.Path != "" {
		catalog, err = participant.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
	}

	logger := slog.New(slog.DiscardHandler)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return &environment{cfg: cfg, catalog: catalog, logger: logger}, nil
}
