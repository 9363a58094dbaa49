package session

import (
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/grammar"
)

// walker follows the section sequence of one file. Both phases use it so
// they agree on which lines are headers and where statements may appear.
type walker struct {
	g          *grammar.Grammar
	current    *grammar.Section
	statements int
}

func newWalker(g *grammar.Grammar) *walker {
	start, _ := g.Section(grammar.Start)
	return &walker{g: g, current: start}
}

// header reports whether text is a section header and, if so, moves to
// that section.
func (w *walker) header(text string) (string, bool, error) {
	name, ok := w.g.Recognize(text)
	if !ok {
		return "", false, nil
	}
	if err := w.g.ValidateTransition(w.current.Name, name); err != nil {
		return name, true, err
	}
	w.current, _ = w.g.Section(name)
	w.statements = 0
	return name, true, nil
}

// statement accounts for one statement line in the current section.
func (w *walker) statement() error {
	if w.current.Name == grammar.Start {
		return diag.Newf(diag.Syntax, "statement before the first section header")
	}
	w.statements++
	if w.current.Singular && w.statements > 1 {
		return diag.Newf(diag.Syntax, "section %q takes a single statement", w.current.Name)
	}
	return nil
}

func (w *walker) section() string {
	return w.current.Name
}
