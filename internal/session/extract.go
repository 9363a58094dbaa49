package session

import (
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/grammar"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/specialistvlad/mitext/internal/scope"
)

// extraction is a matched line with every capture typed.
type extraction struct {
	match *grammar.Match
	spec  *registry.CallSpec
	// fields holds every typed capture in pattern order.
	fields []command.Field
	// params is the subset of fields that are parameters of spec.
	params []command.Field
	// scoped lists the parameters whose value sets a scope entry.
	scoped []scopeUpdate
}

type scopeUpdate struct {
	scope string
	field command.Field
}

// extract types the captures of m. A capture is typed by the expression's
// hint when it has one, otherwise by the parameter of the target call with
// the same name. Multi-valued parameters are split into lists.
func (s *Session) extract(m *grammar.Match) (*extraction, error) {
	e := m.Expr
	x := &extraction{match: m}
	if target := e.Target(); target != "" {
		spec, ok := s.reg.Call(target)
		if !ok {
			return nil, diag.Newf(diag.Semantic, "expression %s targets unknown call %q", e.Name, target)
		}
		x.spec = spec
	}

	for _, c := range m.Captures {
		var param *registry.ParamSpec
		if x.spec != nil {
			param, _ = x.spec.Param(c.Name)
		}

		typ, err := s.captureType(e, c.Name, param)
		if err != nil {
			return nil, err
		}

		f := command.Field{Name: c.Name}
		if param != nil && param.Multiple {
			f.Value, err = typ.ConvertList(e.Split(c.Name, c.Text))
		} else {
			f.Value, err = typ.Convert(c.Text)
		}
		if err != nil {
			return nil, &diag.Error{Kind: diag.Semantic, Msg: "bad value for " + c.Name, Err: err}
		}

		x.fields = append(x.fields, f)
		if param == nil {
			continue
		}
		x.params = append(x.params, f)
		if param.Scope != "" {
			x.scoped = append(x.scoped, scopeUpdate{scope: param.Scope, field: f})
		}
	}
	return x, nil
}

func (s *Session) captureType(e *grammar.Expression, field string, param *registry.ParamSpec) (*registry.AppType, error) {
	if hint, ok := e.FieldTypes[field]; ok {
		typ, ok := s.reg.Type(hint)
		if !ok {
			return nil, diag.Newf(diag.Semantic, "field %q has unknown type %q", field, hint)
		}
		return typ, nil
	}
	if param == nil {
		return nil, diag.Newf(diag.Semantic, "field %q is not a parameter of %s", field, e.Target())
	}
	return param.Type, nil
}

// applyScope writes the scope-setting values of x into sc.
func applyScope(sc *scope.Scope, x *extraction) error {
	for _, u := range x.scoped {
		if err := sc.Set(u.scope, u.field.Value); err != nil {
			return err
		}
	}
	return nil
}
