// Package command assembles constructor invocations. A Command accumulates
// parameter values from the context scope and from one or more script lines
// until every required parameter is present; it then completes and its
// parameter list is frozen.
package command

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/specialistvlad/mitext/internal/scope"
	"github.com/zclconf/go-cty/cty"
)

// Field is one named, typed value handed to a command.
type Field struct {
	Name  string
	Value cty.Value
}

// Origin locates the script line that began a command.
type Origin struct {
	File string
	Line int
	Text string
}

// Command is one constructor invocation.
type Command struct {
	Call   string
	Origin Origin

	spec      *registry.CallSpec
	values    map[string]cty.Value
	explicit  map[string]bool
	order     []string
	completed bool

	// Params and Values are set once the command completes: parameter names
	// in first-contribution order and their values at the same positions.
	Params []string
	Values []cty.Value
}

// Begin opens a command for spec. Set scope entries whose names are
// parameters of the call are copied in first, then fields are contributed.
func Begin(spec *registry.CallSpec, sc *scope.Scope, fields []Field) (*Command, error) {
	c := &Command{
		Call:     spec.Name,
		spec:     spec,
		values:   make(map[string]cty.Value),
		explicit: make(map[string]bool),
	}
	if sc != nil {
		for _, e := range sc.Values() {
			if _, ok := spec.Param(e.Name); ok {
				c.set(e.Name, e.Value)
			}
		}
	}
	if err := c.Contribute(fields); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Command) set(name string, v cty.Value) {
	if _, seen := c.values[name]; !seen {
		c.order = append(c.order, name)
	}
	c.values[name] = v
}

// Contribute merges explicitly supplied fields. An explicit value overrides
// one filled in from context, but a parameter may be supplied explicitly
// only once. Nothing is merged when an error is returned.
func (c *Command) Contribute(fields []Field) error {
	if c.completed {
		return diag.Newf(diag.Semantic, "%s is already complete", c.Call)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if _, ok := c.spec.Param(f.Name); !ok {
			return diag.Newf(diag.Semantic, "%s has no parameter %q", c.Call, f.Name)
		}
		if c.explicit[f.Name] || seen[f.Name] {
			return diag.Newf(diag.Semantic, "parameter %q of %s supplied twice", f.Name, c.Call)
		}
		seen[f.Name] = true
	}
	for _, f := range fields {
		c.set(f.Name, f.Value)
		c.explicit[f.Name] = true
	}
	if len(c.Missing()) == 0 {
		c.complete()
	}
	return nil
}

func (c *Command) complete() {
	c.completed = true
	c.Params = slices.Clone(c.order)
	c.Values = make([]cty.Value, len(c.Params))
	for i, name := range c.Params {
		c.Values[i] = c.values[name]
	}
}

// Missing returns the required parameters not yet supplied, in declaration
// order.
func (c *Command) Missing() []string {
	var out []string
	for _, name := range c.spec.Required() {
		if _, ok := c.values[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Completed reports whether every required parameter has been supplied.
func (c *Command) Completed() bool {
	return c.completed
}

// Spec returns the call the command invokes.
func (c *Command) Spec() *registry.CallSpec {
	return c.spec
}

// Value returns the accumulated value of a parameter.
func (c *Command) Value(name string) (cty.Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Signature renders the call with positional placeholders:
// `name(p1 => $1, p2 => $2)`.
func (c *Command) Signature() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = fmt.Sprintf("%s => $%d", p, i+1)
	}
	return fmt.Sprintf("%s(%s)", c.Call, strings.Join(parts, ", "))
}

// String renders the call with its values bound.
func (c *Command) String() string {
	names := c.Params
	if !c.completed {
		names = c.order
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " => " + Literal(c.values[name])
	}
	return fmt.Sprintf("%s(%s)", c.Call, strings.Join(parts, ", "))
}

// Literal renders a value the way it appears in a dumped script: strings are
// quoted, lists are bracketed.
func Literal(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return strconv.Quote(v.AsString())
	case ty.IsListType():
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			parts = append(parts, Literal(ev))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return registry.Format(v)
	}
}
