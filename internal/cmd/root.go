// Package cmd contains all CLI commands for doclens.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of doclens
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doclens",
	Short: "Structural entity extractor for C++ sources",
	Long: `doclens scans C++ source text and extracts a structured inventory of its
declarations: functions, classes, structs, namespaces, extern "C" blocks,
variables and constants, each with its qualified name, signature, template
parameters and associated documentation comment.

Extraction works on raw source text. Nothing is compiled or preprocessed:
export macros are captured as opaque decorations, unparseable fragments are
skipped with a diagnostic, and scopes left open at end of input are closed
implicitly.

Examples:
  doclens scan                       # Scan current directory, JSON to stdout
  doclens scan include/ --format yaml
  doclens scan --store               # Persist results to .doclens/doclens.db
  doclens query 'webrtc::%'          # Look up indexed entities
  doclens init                       # Write a default .doclens/config.yaml

See 'doclens <command> --help' for command-specific options.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .doclens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (json|yaml|text)")
}
