package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doclens/doclens/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a default .doclens configuration",
	Long: `Init writes a default config.yaml into a .doclens directory at the given
path (or the current directory), creating the directory if needed. It
refuses to overwrite an existing configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir := "."
		if len(args) > 0 {
			workDir = args[0]
		}

		path, err := config.SaveDefault(workDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
