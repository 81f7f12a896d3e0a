package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/exclude"
	"github.com/doclens/doclens/internal/extract"
	"github.com/doclens/doclens/internal/output"
	"github.com/doclens/doclens/internal/store"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Extract entities from C++ sources",
	Long: `Scan traverses the given directory (or file), extracts structural entities
from every C++ source it finds, and writes the results to stdout.

The scan process:
  1. Discovers source files matching the configured extensions
  2. Parses each file and recovers from syntax errors
  3. Extracts functions, classes, structs, namespaces, extern "C" blocks,
     variables and constants with docs, templates and qualified names
  4. Renders a report, and optionally persists it to .doclens/doclens.db

Examples:
  doclens scan                      # Scan current directory
  doclens scan include/rtc          # Scan a subdirectory
  doclens scan api.h --format text  # Scan a single file
  doclens scan --store --force      # Reindex everything`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

// Command-line flags
var (
	scanExclude      []string
	scanDeclarations bool
	scanJobs         int
	scanStore        bool
	scanForce        bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Exclude patterns (comma-separated globs)")
	scanCmd.Flags().BoolVar(&scanDeclarations, "declarations", true, "Include function prototypes at namespace scope")
	scanCmd.Flags().IntVar(&scanJobs, "jobs", 0, "Number of files extracted concurrently (0 = number of CPUs)")
	scanCmd.Flags().BoolVar(&scanStore, "store", false, "Persist results to the entity index")
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "Rescan files even if unchanged")
}

// fileJob is one source file queued for extraction.
type fileJob struct {
	path    string
	relPath string
}

func runScan(cmd *cobra.Command, args []string) error {
	scanPath := "."
	if len(args) > 0 {
		scanPath = args[0]
	}
	absPath, err := filepath.Abs(scanPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := loadConfig(absPath)
	if err != nil {
		return err
	}

	excludes := cfg.Scan.Exclude
	if len(scanExclude) > 0 {
		excludes = append(excludes, scanExclude...)
	}

	opts := extract.Options{
		IncludeDeclarations: cfg.Scan.IncludeDeclarations,
	}
	if cmd.Flags().Changed("declarations") {
		opts.IncludeDeclarations = scanDeclarations
	}

	jobs := cfg.Scan.Jobs
	if scanJobs > 0 {
		jobs = scanJobs
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	root := absPath
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", scanPath, err)
	}
	if !info.IsDir() {
		root = filepath.Dir(absPath)
	}

	auto := exclude.DetectAutoExcludes(root)
	for _, dir := range auto.Directories {
		excludes = append(excludes, filepath.ToSlash(dir)+"/**")
		if verbose {
			fmt.Fprintf(os.Stderr, "doclens: excluding %s: %s\n", dir, auto.Reasons[dir])
		}
	}

	files, err := collectFiles(absPath, root, cfg.Scan.Extensions, excludes)
	if err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found under %s", scanPath)
	}

	var idx *store.Store
	if scanStore {
		configDir, err := config.EnsureConfigDir(root)
		if err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		idx, err = store.OpenIn(configDir, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer idx.Close()
	}

	results, failures := scanFiles(cmd.Context(), files, opts, jobs, idx)

	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "doclens: %v\n", f)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "doclens: scanned %d files, %d failed\n", len(results), len(failures))
	}

	if idx != nil {
		for i := range results {
			if err := idx.SaveFileResult(&results[i]); err != nil {
				return fmt.Errorf("indexing %s: %w", results[i].File, err)
			}
		}
	}

	format, pretty, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	report := output.NewReport(results)
	if err := output.Write(os.Stdout, report, format, pretty); err != nil {
		return err
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d files failed to scan", len(failures))
	}
	return nil
}

// scanFiles runs one extraction session per file, bounded by the jobs limit.
// Results come back in the same deterministic order as the input paths.
// Files whose scan hash is unchanged in the index are skipped unless --force.
func scanFiles(ctx context.Context, files []fileJob, opts extract.Options, jobs int, idx *store.Store) ([]extract.FileResult, []error) {
	type slot struct {
		result *extract.FileResult
		err    error
	}
	slots := make([]slot, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, job := range files {
		g.Go(func() error {
			source, err := os.ReadFile(job.path)
			if err != nil {
				slots[i].err = fmt.Errorf("reading %s: %w", job.relPath, err)
				return nil
			}

			hash := contentHash(source)
			if idx != nil && !scanForce {
				needed, err := idx.NeedsScan(job.relPath, hash)
				if err == nil && !needed {
					return nil
				}
			}

			res, err := extract.Source(ctx, job.relPath, source, opts)
			if err != nil {
				slots[i].err = fmt.Errorf("scanning %s: %w", job.relPath, err)
				return nil
			}
			slots[i].result = res

			if idx != nil {
				if err := idx.MarkScanned(job.relPath, hash); err != nil {
					slots[i].err = err
				}
			}
			return nil
		})
	}
	g.Wait()

	var results []extract.FileResult
	var failures []error
	for _, s := range slots {
		if s.err != nil {
			failures = append(failures, s.err)
		}
		if s.result != nil {
			results = append(results, *s.result)
		}
	}
	return results, failures
}

// collectFiles walks scanPath and returns the matching source files in
// sorted order. File identifiers are relative to root, slash-separated.
func collectFiles(scanPath, root string, extensions, excludes []string) ([]fileJob, error) {
	var files []fileJob

	err := filepath.Walk(scanPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != scanPath && shouldExcludeDir(path, root, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExtension(path, extensions) {
			return nil
		}
		if shouldExcludeFile(path, root, excludes) {
			return nil
		}
		files = append(files, fileJob{path: path, relPath: getRelativePath(path, root)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// getRelativePath returns path relative to basePath, slash-separated.
func getRelativePath(path, basePath string) string {
	rel, err := filepath.Rel(basePath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// shouldExcludeDir checks if a directory should be skipped during the walk.
func shouldExcludeDir(path, basePath string, patterns []string) bool {
	relPath := getRelativePath(path, basePath)
	base := filepath.Base(path)

	// Always exclude hidden directories
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}

	for _, pattern := range patterns {
		dirPattern := strings.TrimSuffix(pattern, "/**")
		dirPattern = strings.TrimSuffix(dirPattern, "/*")

		if base == dirPattern || relPath == dirPattern {
			return true
		}
		if matched, _ := filepath.Match(dirPattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(dirPattern, base); matched {
			return true
		}
	}

	return false
}

// shouldExcludeFile checks if a file should be excluded from scanning.
func shouldExcludeFile(path, basePath string, patterns []string) bool {
	relPath := getRelativePath(path, basePath)
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	for _, pattern := range patterns {
		// ** patterns match against the filename
		if strings.Contains(pattern, "**") {
			simplePattern := strings.ReplaceAll(pattern, "**/", "")
			simplePattern = strings.ReplaceAll(simplePattern, "**", "")
			if matched, _ := filepath.Match(simplePattern, base); matched {
				return true
			}
		}
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// loadConfig loads config from the explicit --config path or by searching
// upward from dir.
func loadConfig(dir string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveFormat picks the output format from the --format flag, falling back
// to the configured default.
func resolveFormat(cfg *config.Config) (output.Format, bool, error) {
	name := outputFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return "", false, err
	}
	return format, cfg.Output.Pretty, nil
}
