// Package fsutil resolves input arguments into file paths.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ScriptExtension is the extension of text scripts found in directories.
const ScriptExtension = ".mi"

// FindFilesByExtension recursively searches root for every file ending with
// extension, in lexical order.
func FindFilesByExtension(root, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}
	return doublestar.FilepathGlob(filepath.Join(root, "**", "*"+extension), doublestar.WithFilesOnly())
}

// Expand turns arguments into file paths. A directory stands for every
// script below it and a doublestar pattern for its matches; anything else is
// taken as a path. A pattern or directory that yields nothing is an error.
// Duplicates are dropped, keeping the first occurrence.
func Expand(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(paths ...string) {
		for _, p := range paths {
			p = filepath.Clean(p)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil {
			if !info.IsDir() {
				add(arg)
				continue
			}
			found, err := FindFilesByExtension(arg, ScriptExtension)
			if err != nil {
				return nil, fmt.Errorf("failed to search %s: %w", arg, err)
			}
			if len(found) == 0 {
				return nil, fmt.Errorf("no %s files found in %s", ScriptExtension, arg)
			}
			add(found...)
			continue
		}

		if !hasMeta(arg) {
			add(arg)
			continue
		}
		if !doublestar.ValidatePathPattern(arg) {
			return nil, fmt.Errorf("invalid pattern %q", arg)
		}
		found, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", arg, err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		add(found...)
	}
	return out, nil
}

func hasMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
