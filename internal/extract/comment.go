package extract

import (
	"strings"

	"github.com/doclens/doclens/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// CommentStyle identifies a recognized comment form.
type CommentStyle string

const (
	// StyleBlockDoxygen is /** ... */.
	StyleBlockDoxygen CommentStyle = "block-doxygen"
	// StyleLineDoxygen is ///.
	StyleLineDoxygen CommentStyle = "line-doxygen"
	// StyleBangLine is //!.
	StyleBangLine CommentStyle = "bang-line"
	// StyleBangBlock is /*! ... */.
	StyleBangBlock CommentStyle = "bang-block"
	// StylePlain is an ordinary // or /* */ comment. Plain comments are
	// recorded but never associated with a following entity.
	StylePlain CommentStyle = "plain"
)

// ClassifyComment determines the style of a raw comment span.
func ClassifyComment(text string) CommentStyle {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "/**"):
		return StyleBlockDoxygen
	case strings.HasPrefix(trimmed, "///"):
		return StyleLineDoxygen
	case strings.HasPrefix(trimmed, "//!"):
		return StyleBangLine
	case strings.HasPrefix(trimmed, "/*!"):
		return StyleBangBlock
	default:
		return StylePlain
	}
}

// DoxygenEligible reports whether comments of this style may be associated
// with a following declaration.
func (s CommentStyle) DoxygenEligible() bool {
	return s != StylePlain && s != ""
}

// DocTag is one parsed @tag or \tag directive (brief, param, return,
// details, tparam, ...). Tags repeat, so order is preserved.
type DocTag struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// DocComment is one logical documentation comment: a single block span, or a
// run of consecutive same-style line comments merged together.
type DocComment struct {
	Style CommentStyle `json:"style" yaml:"style"`
	// Raw is the original span including markers.
	Raw string `json:"-" yaml:"-"`
	// Text is the normalized content: markers and continuation asterisks
	// stripped, lines newline-joined, tag directives left in place.
	Text string `json:"text" yaml:"text"`
	// Tags are the parsed directives, in order of appearance.
	Tags      []DocTag `json:"tags,omitempty" yaml:"tags,omitempty"`
	StartLine uint32   `json:"line_start" yaml:"line_start"`
	EndLine   uint32   `json:"line_end" yaml:"line_end"`
}

// TagMap groups tag values by tag name for serialization.
func (d *DocComment) TagMap() map[string][]string {
	if len(d.Tags) == 0 {
		return nil
	}
	m := make(map[string][]string, len(d.Tags))
	for _, t := range d.Tags {
		m[t.Name] = append(m[t.Name], t.Value)
	}
	return m
}

// maxDocGap is the largest permitted line gap between a doc comment's last
// line and the declaration it documents: 1 means directly adjacent, 2 allows
// a single blank line. Anything further detaches the comment. Any
// non-comment, non-blank line (including preprocessor lines) breaks
// adjacency regardless of gap.
const maxDocGap = 2

// docFor finds the documentation comment associated with a declaration node.
// The anchor must be the outermost wrapper (the template_declaration for
// templated entities), since that is what the comment lexically precedes.
//
// Returns nil when no Doxygen-eligible comment is adjacent.
func (e *Extractor) docFor(anchor *sitter.Node) *DocComment {
	if anchor == nil {
		return nil
	}

	expectedRow := int(anchor.StartPoint().Row)
	sib := anchor.PrevNamedSibling()

	var run []*sitter.Node
	var runStyle CommentStyle

	for sib != nil && sib.Type() == parser.NodeComment {
		gap := expectedRow - int(sib.EndPoint().Row)
		style := ClassifyComment(e.text(sib))

		if len(run) == 0 {
			if gap > maxDocGap {
				break
			}
			if !style.DoxygenEligible() {
				// Plain comments are skipped: they never associate,
				// but a comment line does not break adjacency.
				expectedRow = int(sib.StartPoint().Row)
				sib = sib.PrevNamedSibling()
				continue
			}
			run = append(run, sib)
			runStyle = style
			// Block styles are single spans regardless of line count.
			if style == StyleBlockDoxygen || style == StyleBangBlock {
				break
			}
		} else {
			// Continuation of a line-comment run: same style, on the
			// directly preceding line. A style change or blank line
			// terminates the merge.
			if style != runStyle || gap != 1 {
				break
			}
			run = append([]*sitter.Node{sib}, run...)
		}

		expectedRow = int(sib.StartPoint().Row)
		sib = sib.PrevNamedSibling()
	}

	if len(run) == 0 {
		return nil
	}

	texts := make([]string, len(run))
	for i, n := range run {
		texts[i] = e.text(n)
	}
	raw := strings.Join(texts, "\n")
	text := normalizeComment(raw)

	return &DocComment{
		Style:     runStyle,
		Raw:       raw,
		Text:      text,
		Tags:      parseDocTags(text),
		StartLine: run[0].StartPoint().Row + 1,
		EndLine:   run[len(run)-1].EndPoint().Row + 1,
	}
}

// normalizeComment strips comment markers and continuation asterisks,
// returning the newline-joined non-empty content lines.
func normalizeComment(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))

	for _, line := range lines {
		s := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(s, "///"):
			s = s[3:]
		case strings.HasPrefix(s, "//!"):
			s = s[3:]
		case strings.HasPrefix(s, "/**"):
			s = s[3:]
		case strings.HasPrefix(s, "/*!"):
			s = s[3:]
		}
		s = strings.TrimSpace(s)

		if strings.HasSuffix(s, "*/") {
			s = strings.TrimSpace(s[:len(s)-2])
		}
		// Continuation '*' in multiline block comments.
		if strings.HasPrefix(s, "*") {
			s = strings.TrimSpace(s[1:])
		}

		if s != "" {
			cleaned = append(cleaned, s)
		}
	}

	return strings.Join(cleaned, "\n")
}

// parseDocTags extracts @tag / \tag directives from normalized comment text.
// A directive runs from its marker to the next directive; continuation lines
// are folded into the open directive's value.
func parseDocTags(text string) []DocTag {
	var tags []DocTag
	open := -1

	for _, line := range strings.Split(text, "\n") {
		if len(line) > 1 && (line[0] == '@' || line[0] == '\\') {
			name, value, _ := strings.Cut(line[1:], " ")
			tags = append(tags, DocTag{Name: name, Value: strings.TrimSpace(value)})
			open = len(tags) - 1
			continue
		}
		if open >= 0 {
			tags[open].Value = strings.TrimSpace(tags[open].Value + " " + strings.TrimSpace(line))
		}
	}

	return tags
}
