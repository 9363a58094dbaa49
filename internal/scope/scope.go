// Package scope tracks the context a script line is read in: the current
// domain, subsystem and class.
package scope

import (
	"slices"

	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/zclconf/go-cty/cty"
)

// Scope entry names, outermost first.
const (
	Domain    = "domain"
	Subsystem = "subsystem"
	Class     = "class"
)

// Names lists the scope entries in declared order.
var Names = []string{Domain, Subsystem, Class}

// Entry is one set scope value.
type Entry struct {
	Name  string
	Value cty.Value
}

// Scope holds the active context values of one parse session.
type Scope struct {
	values [3]cty.Value
	set    [3]bool
}

// New returns an empty Scope.
func New() *Scope {
	return &Scope{}
}

func index(name string) int {
	return slices.Index(Names, name)
}

// Set overwrites a scope entry. Setting an entry clears every entry nested
// inside it, so a new domain forgets the previous subsystem and class.
func (s *Scope) Set(name string, v cty.Value) error {
	i := index(name)
	if i < 0 {
		return diag.Newf(diag.Semantic, "unknown scope %q", name)
	}
	s.values[i], s.set[i] = v, true
	for j := i + 1; j < len(Names); j++ {
		s.values[j], s.set[j] = cty.NilVal, false
	}
	return nil
}

// Get returns a scope entry and whether it is set.
func (s *Scope) Get(name string) (cty.Value, bool) {
	i := index(name)
	if i < 0 || !s.set[i] {
		return cty.NilVal, false
	}
	return s.values[i], true
}

// String returns a string scope entry, or "" when it is unset or not a
// string.
func (s *Scope) String(name string) string {
	v, ok := s.Get(name)
	if !ok || v.Type() != cty.String || v.IsNull() {
		return ""
	}
	return v.AsString()
}

// Values returns the set entries in declared order.
func (s *Scope) Values() []Entry {
	var out []Entry
	for i, name := range Names {
		if s.set[i] {
			out = append(out, Entry{Name: name, Value: s.values[i]})
		}
	}
	return out
}
