package grammar

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/registry"
)

// Grammar is the complete section and expression grammar.
type Grammar struct {
	sections    map[string]*Section
	order       []string
	expressions map[string][]*Expression
}

// Default returns the miUML text script grammar.
func Default() *Grammar {
	g := &Grammar{
		sections:    make(map[string]*Section),
		expressions: make(map[string][]*Expression),
	}
	for _, s := range defaultSections() {
		g.sections[s.Name] = s
		if s.Name != Start {
			g.order = append(g.order, s.Name)
		}
	}
	for _, e := range defaultExpressions() {
		g.expressions[e.Section] = append(g.expressions[e.Section], e)
	}
	return g
}

// Sections returns the section names in declaration order.
func (g *Grammar) Sections() []string {
	return g.order
}

// Expressions returns the statement alternatives of a section in the order
// they are tried.
func (g *Grammar) Expressions(section string) []*Expression {
	return g.expressions[section]
}

// Capture is one named group of a matched line.
type Capture struct {
	Name string
	Text string
}

// Match is a line accepted by an expression.
type Match struct {
	Expr *Expression
	// Captures holds the participating groups in pattern order, trimmed.
	// Optional groups that did not participate are absent.
	Captures []Capture
}

// Get returns the text of a capture and whether it is present.
func (m *Match) Get(field string) (string, bool) {
	for _, c := range m.Captures {
		if c.Name == field {
			return c.Text, true
		}
	}
	return "", false
}

// Match tries the section's expressions against text, which must already be
// stripped of comments and indentation.
func (g *Grammar) Match(section, text string) (*Match, bool) {
	for _, e := range g.expressions[section] {
		for _, re := range e.Patterns {
			idx := re.FindStringSubmatchIndex(text)
			if idx == nil {
				continue
			}
			m := &Match{Expr: e}
			for i, field := range re.SubexpNames() {
				if field == "" || idx[2*i] < 0 {
					continue
				}
				m.Captures = append(m.Captures, Capture{
					Name: field,
					Text: strings.TrimSpace(text[idx[2*i]:idx[2*i+1]]),
				})
			}
			return m, true
		}
	}
	return nil, false
}

// MatchLine is Match reporting a failure as a syntax error.
func (g *Grammar) MatchLine(section, text string) (*Match, error) {
	if m, ok := g.Match(section, text); ok {
		return m, nil
	}
	if len(g.expressions[section]) == 0 {
		return nil, diag.Newf(diag.Syntax, "section %q takes no statements", section)
	}
	return nil, diag.Newf(diag.Syntax, "statement not recognized in section %q", section)
}

// Validate checks the grammar against a constructor schema: every call an
// expression targets must exist, and every capture must be typed either by
// a parameter of that call or by a field type known to the schema.
func (g *Grammar) Validate(reg *registry.Registry) error {
	var errs []string
	for _, section := range g.order {
		for _, e := range g.expressions[section] {
			var spec *registry.CallSpec
			if target := e.Target(); target != "" {
				s, ok := reg.Call(target)
				if !ok {
					errs = append(errs, fmt.Sprintf("expression %s: unknown call %q", e.Name, target))
					continue
				}
				spec = s
			}
			for field, typeName := range e.FieldTypes {
				if _, ok := reg.Type(typeName); !ok {
					errs = append(errs, fmt.Sprintf("expression %s: field %q has unknown type %q", e.Name, field, typeName))
				}
			}
			for _, re := range e.Patterns {
				for _, field := range re.SubexpNames() {
					if field == "" {
						continue
					}
					if _, ok := e.FieldTypes[field]; ok {
						continue
					}
					if spec != nil {
						if _, ok := spec.Param(field); ok {
							continue
						}
					}
					errs = append(errs, fmt.Sprintf("expression %s: capture %q is untyped", e.Name, field))
				}
			}
		}
	}
	if len(errs) > 0 {
		return diag.Newf(diag.Schema, "grammar does not fit the constructor schema:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
