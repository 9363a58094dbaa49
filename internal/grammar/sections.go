package grammar

import (
	"regexp"
	"slices"

	"github.com/specialistvlad/mitext/internal/diag"
)

// Section names.
const (
	// Start is the state before any header has been read.
	Start         = ""
	Model         = "model"
	Domain        = "domain"
	Types         = "types"
	Subsystem     = "subsystem"
	Classes       = "classes"
	Relationships = "relationships"
	Lifecycles    = "lifecycles"
	Cloops        = "cloops"
	Lineages      = "lineages"
	Bridges       = "bridges"
)

// Section describes one kind of section of a script.
type Section struct {
	Name      string
	Metaclass string
	// Singular sections define a single instance of their metaclass and so
	// accept at most one statement line.
	Singular bool
	// Next lists the sections that may legally follow this one.
	Next []string
}

// Allows reports whether next may follow s.
func (s *Section) Allows(next string) bool {
	return slices.Contains(s.Next, next)
}

var headerRegex = regexp.MustCompile(`^\s*(\w+)\s*$`)

func defaultSections() []*Section {
	tail := []string{Subsystem, Domain, Bridges}
	return []*Section{
		{Name: Start, Next: []string{Model, Domain}},
		{Name: Model, Metaclass: "model", Singular: true, Next: []string{Domain}},
		{Name: Domain, Metaclass: "domain", Singular: true, Next: []string{Types, Subsystem}},
		{Name: Types, Metaclass: "type", Next: []string{Subsystem}},
		{Name: Subsystem, Metaclass: "subsystem", Singular: true, Next: []string{Classes, Domain, Bridges}},
		{Name: Classes, Metaclass: "class", Next: append([]string{Relationships, Lifecycles, Cloops, Lineages}, tail...)},
		{Name: Relationships, Metaclass: "relationship", Next: append([]string{Lifecycles, Cloops, Lineages}, tail...)},
		{Name: Lifecycles, Metaclass: "lifecycle", Next: append([]string{Cloops, Lineages}, tail...)},
		{Name: Cloops, Metaclass: "loop", Next: append([]string{Lineages}, tail...)},
		{Name: Lineages, Metaclass: "lineage", Next: tail},
		{Name: Bridges, Metaclass: "bridge", Next: []string{Domain}},
	}
}

// Recognize reports whether text is a section header and returns the name
// it carries. Any single bare word is a header; whether it names a known
// section is decided by ValidateTransition.
func (g *Grammar) Recognize(text string) (string, bool) {
	m := headerRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Section looks up a section by name.
func (g *Grammar) Section(name string) (*Section, bool) {
	s, ok := g.sections[name]
	return s, ok
}

// ValidateTransition checks that next is a known section and may follow
// current.
func (g *Grammar) ValidateTransition(current, next string) error {
	to, ok := g.sections[next]
	if !ok || to.Name == Start {
		return diag.Newf(diag.Syntax, "unrecognized section %q", next)
	}
	from, ok := g.sections[current]
	if !ok {
		return diag.Newf(diag.Syntax, "unrecognized section %q", current)
	}
	if !from.Allows(next) {
		if current == Start {
			return diag.Newf(diag.Syntax, "section %q cannot begin a script", next)
		}
		return diag.Newf(diag.Syntax, "section %q cannot follow %q", next, current)
	}
	return nil
}

// ValidateSequence checks a whole sequence of section names from the start
// state, returning the index of the first rejected name.
func (g *Grammar) ValidateSequence(names []string) (int, error) {
	current := Start
	for i, name := range names {
		if err := g.ValidateTransition(current, name); err != nil {
			return i, err
		}
		current = name
	}
	return -1, nil
}
