package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestParseWellFormed(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.Parse(context.Background(), []byte("int add(int a, int b) { return a + b; }\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer res.Close()

	if res.Root == nil || res.Root.Type() != "translation_unit" {
		t.Fatalf("root = %v", res.Root)
	}
	if res.HasErrors() {
		t.Error("well-formed source reported errors")
	}
}

func TestParseRecoversFromBrokenInput(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.Parse(context.Background(), []byte("int broken( {{{\nvoid ok();\n"))
	if err != nil {
		t.Fatalf("broken input aborted the parse: %v", err)
	}
	defer res.Close()

	if !res.HasErrors() {
		t.Error("broken input reported no errors")
	}
	if res.CountErrorNodes() == 0 {
		t.Error("no error nodes counted")
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse(context.Background(), []byte{0xff, 0xfe, 0x41})
	var encErr *InvalidEncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("err = %v, want InvalidEncodingError", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.h")
	if err := os.WriteFile(path, []byte("namespace n { void f(); }\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New()
	defer p.Close()

	res, err := p.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	defer res.Close()

	if res.FilePath != path {
		t.Errorf("file path = %q, want %q", res.FilePath, path)
	}
}

func TestParseFileRejectsUnsupported(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseFile(context.Background(), "readme.md")
	var unsupported *UnsupportedFileError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedFileError", err)
	}
}

func TestIsSourceFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"a.cpp", true},
		{"a.cc", true},
		{"include/a.h", true},
		{"a.hpp", true},
		{"a.go", false},
		{"a", false},
	}
	for _, c := range cases {
		if got := IsSourceFile(c.path); got != c.want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestWalkNodesVisitsAll(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.Parse(context.Background(), []byte("void f();\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	var count int
	res.WalkNodes(func(n *sitter.Node) bool {
		count++
		return true
	})
	if count < 3 {
		t.Errorf("visited %d nodes, expected the whole tree", count)
	}
}
