// Package exclude provides automatic detection of generated and build
// directories that should never be scanned as source.
package exclude

import (
	"os"
	"path/filepath"
	"strings"
)

// AutoExcludeResult contains the directories to exclude and why.
type AutoExcludeResult struct {
	// Directories to exclude (relative to project root)
	Directories []string
	// Reasons maps each directory to why it was excluded
	Reasons map[string]string
}

// DetectAutoExcludes scans the project root for build trees and generated
// directories. Only marker files with unambiguous meaning are used, so a
// directory is excluded only when it provably is not hand-written source.
// Nested build trees (e.g. tools/codegen/build/) are detected too.
func DetectAutoExcludes(projectRoot string) *AutoExcludeResult {
	result := &AutoExcludeResult{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't read
		}
		if path == projectRoot {
			return nil
		}

		relPath, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if result.has(relPath) {
				return filepath.SkipDir
			}
			for _, excluded := range result.Directories {
				if strings.HasPrefix(relPath, excluded+string(filepath.Separator)) {
					return filepath.SkipDir
				}
			}
			// Hidden directories are excluded by the walk itself.
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		dirPath := filepath.Dir(path)
		relDirPath, err := filepath.Rel(projectRoot, dirPath)
		if err != nil || relDirPath == "." {
			return nil
		}

		switch d.Name() {
		case "CMakeCache.txt":
			// A CMake build tree; everything under it is generated.
			result.add(relDirPath, "CMake build tree (CMakeCache.txt detected)")
		case ".ninja_log", "build.ninja":
			result.add(relDirPath, "Ninja build tree (ninja files detected)")
		case "pyvenv.cfg":
			// Python tooling venvs show up in C++ repos too.
			result.add(relDirPath, "Python virtual environment (pyvenv.cfg detected)")
		case "conanbuildinfo.txt":
			result.add(relDirPath, "Conan build output (conanbuildinfo.txt detected)")
		}

		return nil
	})

	return result
}

func (r *AutoExcludeResult) add(dir, reason string) {
	if r.has(dir) {
		return
	}
	r.Directories = append(r.Directories, dir)
	r.Reasons[dir] = reason
}

func (r *AutoExcludeResult) has(dir string) bool {
	for _, d := range r.Directories {
		if d == dir {
			return true
		}
	}
	return false
}
