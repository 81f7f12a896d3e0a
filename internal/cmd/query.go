package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/extract"
	"github.com/doclens/doclens/internal/store"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [pattern]",
	Short: "Look up entities in the index",
	Long: `Query searches the entity index built by 'doclens scan --store'. The
pattern matches qualified names with SQL LIKE semantics: % matches any
sequence, _ matches one character. Without a pattern, all entities are
listed.

Examples:
  doclens query 'webrtc::%'          # Everything under a namespace
  doclens query '%::Send' --kind function
  doclens query --file include/api.h`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

var (
	queryKind  string
	queryFile  string
	queryLimit int
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryKind, "kind", "", "Restrict to one entity kind (function|class|struct|namespace|variable|constant)")
	queryCmd.Flags().StringVar(&queryFile, "file", "", "Restrict to entities from one file")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum number of rows (0 = unlimited)")
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	filter := store.Filter{
		Kind:  extract.EntityKind(queryKind),
		File:  queryFile,
		Limit: queryLimit,
	}
	if len(args) > 0 {
		filter.Name = args[0]
	}

	rows, err := idx.QueryEntities(filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no entities matched")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "KIND\tQUALIFIED NAME\tSIGNATURE\tLOCATION")
	for _, row := range rows {
		location := fmt.Sprintf("%s:%d", filepath.ToSlash(row.FilePath), row.StartLine)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Kind, row.QualifiedName, row.Signature, location)
	}
	return nil
}
