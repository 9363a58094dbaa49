package registry

import (
	"fmt"
	"strings"
)

// ParamSpec describes one parameter of a constructor call.
type ParamSpec struct {
	Name string
	Type *AppType
	// Optional parameters need not be supplied for the command to complete.
	Optional bool
	// Multiple parameters take a list of values.
	Multiple bool
	// Scope, when set, names the context scope entry this parameter's value
	// overwrites.
	Scope string
}

// CallSpec describes one metamodel constructor call.
type CallSpec struct {
	Metaclass string
	Name      string
	// Params is in declaration order.
	Params []*ParamSpec
	index  map[string]*ParamSpec
}

// Param looks up a parameter by name.
func (c *CallSpec) Param(name string) (*ParamSpec, bool) {
	p, ok := c.index[name]
	return p, ok
}

// Required returns the names of the non-optional parameters in declaration
// order.
func (c *CallSpec) Required() []string {
	var out []string
	for _, p := range c.Params {
		if !p.Optional {
			out = append(out, p.Name)
		}
	}
	return out
}

// String renders the call as `name(param:type, [param:type], ...)`.
func (c *CallSpec) String() string {
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		s := p.Name
		if p.Scope != "" {
			s += "->" + p.Scope
		}
		s += ":" + p.Type.Name
		if p.Multiple {
			s += "..."
		}
		if p.Optional {
			s = "[" + s + "]"
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// Registry holds the loaded constructor schema.
type Registry struct {
	types     map[string]*AppType
	typeOrder []string
	calls     map[string]*CallSpec
	callOrder []string
	metaclass map[string]*CallSpec
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		types:     make(map[string]*AppType),
		calls:     make(map[string]*CallSpec),
		metaclass: make(map[string]*CallSpec),
	}
}

// AddType registers an application type.
func (r *Registry) AddType(name string, ui UIType) error {
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("duplicate type %q", name)
	}
	r.types[name] = &AppType{Name: name, UI: ui}
	r.typeOrder = append(r.typeOrder, name)
	return nil
}

// AddCall registers a metaclass and its call. An empty call name defaults to
// new_<metaclass>.
func (r *Registry) AddCall(metaclass, call string) (*CallSpec, error) {
	if call == "" {
		call = "new_" + metaclass
	}
	if _, exists := r.metaclass[metaclass]; exists {
		return nil, fmt.Errorf("duplicate metaclass %q", metaclass)
	}
	if _, exists := r.calls[call]; exists {
		return nil, fmt.Errorf("duplicate call %q", call)
	}
	spec := &CallSpec{Metaclass: metaclass, Name: call, index: make(map[string]*ParamSpec)}
	r.calls[call] = spec
	r.metaclass[metaclass] = spec
	r.callOrder = append(r.callOrder, call)
	return spec, nil
}

// AddParam appends a parameter to a registered call.
func (r *Registry) AddParam(call string, p ParamSpec, typeName string) error {
	spec, ok := r.calls[call]
	if !ok {
		return fmt.Errorf("unknown call %q", call)
	}
	if _, dup := spec.index[p.Name]; dup {
		return fmt.Errorf("duplicate parameter %q in %s", p.Name, call)
	}
	t, ok := r.types[typeName]
	if !ok {
		return fmt.Errorf("parameter %q of %s has unknown type %q", p.Name, call, typeName)
	}
	p.Type = t
	param := &p
	spec.Params = append(spec.Params, param)
	spec.index[p.Name] = param
	return nil
}

// Type looks up an application type.
func (r *Registry) Type(name string) (*AppType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns the application types in declaration order.
func (r *Registry) Types() []*AppType {
	out := make([]*AppType, 0, len(r.typeOrder))
	for _, name := range r.typeOrder {
		out = append(out, r.types[name])
	}
	return out
}

// Call looks up a constructor call by name.
func (r *Registry) Call(name string) (*CallSpec, bool) {
	c, ok := r.calls[name]
	return c, ok
}

// Metaclass looks up a constructor call by its metaclass name.
func (r *Registry) Metaclass(name string) (*CallSpec, bool) {
	c, ok := r.metaclass[name]
	return c, ok
}

// Calls returns every call in declaration order.
func (r *Registry) Calls() []*CallSpec {
	out := make([]*CallSpec, 0, len(r.callOrder))
	for _, name := range r.callOrder {
		out = append(out, r.calls[name])
	}
	return out
}
