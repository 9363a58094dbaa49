package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/mitext/internal/diag"
)

// Report writes err to w. Located compiler errors are rendered as HCL
// diagnostics quoting the offending line; anything else is printed as is.
func (a *App) Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	var de *diag.Error
	if !errors.As(err, &de) || de.File == "" {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	offset := 0
	files := make(map[string]*hcl.File)
	a.mu.Lock()
	if f, ok := a.sources[de.File]; ok {
		offset = f.Offset(de.Line)
		files[de.File] = &hcl.File{Bytes: f.Bytes}
	}
	a.mu.Unlock()

	wr := hcl.NewDiagnosticTextWriter(w, files, 0, false)
	if werr := wr.WriteDiagnostic(de.Diagnostic(offset)); werr != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
