package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doclens/doclens/internal/extract"
)

// Report is the top-level document written by a scan.
type Report struct {
	Files   []extract.FileResult `json:"files" yaml:"files"`
	Summary Summary              `json:"summary" yaml:"summary"`
}

// Summary aggregates counts across all scanned files.
type Summary struct {
	Files       int `json:"files" yaml:"files"`
	Entities    int `json:"entities" yaml:"entities"`
	Diagnostics int `json:"diagnostics" yaml:"diagnostics"`
}

// NewReport assembles a report from per-file results, computing the summary.
func NewReport(files []extract.FileResult) *Report {
	r := &Report{Files: files}
	r.Summary.Files = len(files)
	for _, f := range files {
		r.Summary.Entities += countEntities(f.Entities)
		r.Summary.Diagnostics += len(f.Diagnostics)
	}
	return r
}

func countEntities(entities []extract.Entity) int {
	n := len(entities)
	for _, e := range entities {
		n += countEntities(e.Children)
	}
	return n
}

// Write renders the report to w in the given format.
func Write(w io.Writer, report *Report, format Format, pretty bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		return writeText(w, report)
	default:
		return fmt.Errorf("unsupported format: %q", format)
	}
}

// writeText prints a compact per-entity listing followed by diagnostics.
func writeText(w io.Writer, report *Report) error {
	for _, file := range report.Files {
		if _, err := fmt.Fprintf(w, "%s\n", file.File); err != nil {
			return err
		}
		for i := range file.Entities {
			if err := writeEntityText(w, &file.Entities[i], 1); err != nil {
				return err
			}
		}
		for _, d := range file.Diagnostics {
			if _, err := fmt.Fprintf(w, "  ! %s:%d %s\n", d.Kind, d.Line, d.Message); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d files, %d entities, %d diagnostics\n",
		report.Summary.Files, report.Summary.Entities, report.Summary.Diagnostics)
	return err
}

func writeEntityText(w io.Writer, ent *extract.Entity, depth int) error {
	indent := strings.Repeat("  ", depth)

	name := ent.QualifiedName
	if name == "" {
		name = string(ent.Kind)
	}

	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(name)
	sb.WriteString(": ")
	sb.WriteString(string(ent.Kind))
	if ent.Signature != "" {
		sb.WriteString(" ")
		sb.WriteString(ent.Signature)
	}
	if ent.Template != nil {
		sb.WriteString(" template")
	}
	if ent.Linkage == extract.LinkageC {
		sb.WriteString(" [C]")
	}
	if ent.ForwardDecl {
		sb.WriteString(" (forward)")
	}
	if ent.OpenEnded {
		sb.WriteString(" (open-ended)")
	}
	fmt.Fprintf(&sb, " @ %d-%d", ent.StartLine, ent.EndLine)

	if _, err := fmt.Fprintln(w, sb.String()); err != nil {
		return err
	}

	for i := range ent.Children {
		if err := writeEntityText(w, &ent.Children[i], depth+1); err != nil {
			return err
		}
	}
	return nil
}
