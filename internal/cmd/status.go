package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/store"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		configDir, err := config.FindConfigDir(cwd)
		if err != nil {
			return fmt.Errorf("no .doclens directory found; run 'doclens scan --store' first")
		}

		cfg, err := loadConfig(cwd)
		if err != nil {
			return err
		}

		idx, err := store.OpenIn(configDir, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer idx.Close()

		stats, err := idx.GetStats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "index:       %s\n", idx.Path())
		fmt.Fprintf(out, "files:       %d\n", stats.FileCount)
		fmt.Fprintf(out, "entities:    %d\n", stats.EntityCount)
		fmt.Fprintf(out, "diagnostics: %d\n", stats.DiagnosticCount)
		if last, err := idx.LastScanned(); err == nil && !last.IsZero() {
			fmt.Fprintf(out, "last scan:   %s\n", last.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
