// Package parser provides tree-sitter based parsing of C++ source text.
//
// The parser package wraps the tree-sitter C++ grammar behind a small API
// that the extraction layer consumes. Parsing is recoverable: syntactically
// broken input still yields a tree, with error nodes marking the fragments
// that could not be matched.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps a tree-sitter parser configured for C++.
//
// A Parser is not safe for concurrent use; create one per scanning
// session (they are cheap).
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and the source it was parsed from.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the tree (translation_unit).
	Root *sitter.Node
	// Source is the original source text.
	Source []byte
	// FilePath identifies the source file (empty for in-memory parsing).
	// It is used only for record provenance.
	FilePath string
}

// New creates a parser for C++ source.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(cppLanguage())
	return &Parser{parser: p}
}

// Parse parses source text and returns the tree.
//
// Source that is not valid UTF-8 cannot be scanned and returns an
// InvalidEncodingError; this is the only fatal condition for a file.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	if !utf8.Valid(source) {
		return nil, &InvalidEncodingError{}
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	return &ParseResult{
		Tree:   tree,
		Root:   tree.RootNode(),
		Source: source,
	}, nil
}

// ParseFile parses a source file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	if !IsSourceFile(path) {
		return nil, &UnsupportedFileError{Path: path}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	result, err := p.Parse(ctx, source)
	if err != nil {
		switch e := err.(type) {
		case *ParseError:
			e.File = path
		case *InvalidEncodingError:
			e.Path = path
		}
		return nil, err
	}

	result.FilePath = path
	return result, nil
}

// Close releases parser resources. After Close the parser must not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors reports whether the tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	if r.Root == nil {
		return false
	}
	return r.Root.HasError()
}

// CountErrorNodes counts error and missing nodes in the tree. The count is
// surfaced as a per-file diagnostic, never as a fatal condition.
func (r *ParseResult) CountErrorNodes() int {
	count := 0
	r.WalkNodes(func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			count++
		}
		return true
	})
	return count
}

// WalkNodes traverses the tree depth-first, calling the visitor for each
// node. If the visitor returns false, traversal stops.
func (r *ParseResult) WalkNodes(visitor func(*sitter.Node) bool) {
	if r.Root == nil {
		return
	}
	walkNode(r.Root, visitor)
}

func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) bool {
	if !visitor(node) {
		return false
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if !walkNode(node.Child(int(i)), visitor) {
			return false
		}
	}
	return true
}

// NodeText returns the source text for a node.
func (r *ParseResult) NodeText(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}

// SourceExtensions lists the file extensions accepted as C++ source.
var SourceExtensions = []string{
	".cpp", ".cc", ".cxx", ".c",
	".h", ".hpp", ".hxx",
}

// IsSourceFile reports whether path has a recognized C++ extension.
func IsSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
