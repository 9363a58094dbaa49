package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/mitext/internal/fsutil"
	"github.com/specialistvlad/mitext/internal/source"
)

// InputError reports input that could not be resolved or read. It is
// raised before any file is parsed.
type InputError struct {
	// Path is the file that could not be read, if any.
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// readInputs expands args and reads every resulting file. The files are
// remembered so diagnostics can quote them.
func (a *App) readInputs(args []string) ([]*source.File, error) {
	if len(args) == 0 {
		return nil, &InputError{Err: errors.New("no input files")}
	}
	paths, err := fsutil.Expand(args)
	if err != nil {
		return nil, &InputError{Err: err}
	}

	files := make([]*source.File, 0, len(paths))
	for _, p := range paths {
		f, err := source.Read(p)
		if err != nil {
			return nil, &InputError{Path: p, Err: err}
		}
		files = append(files, f)
	}

	a.mu.Lock()
	for _, f := range files {
		a.sources[f.Name] = f
	}
	a.mu.Unlock()
	a.logger.Debug("Input files read.", "count", len(files))
	return files, nil
}

func countLines(files []*source.File) int {
	n := 0
	for _, f := range files {
		n += len(f.Lines())
	}
	return n
}
