// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package metamodel

import (
	"slices"

	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/zclconf/go-cty/cty"
)

// Calls emitted when a domain is finalized.
const (
	CallFormalize = "formalize_rel"
	CallAddID     = "add_attr_to_id"
	CallRemoveID  = "remove_attr_from_id"
)

// Emission is a command the analyzer derives from the whole domain.
type Emission struct {
	Call   string
	Fields []command.Field
	Origin command.Origin
}

// Finalize validates everything buffered for the current domain and returns
// the commands that depend on it: one formalize_rel per relationship in
// ascending number order, then for every class in declaration order its
// identifier assignments followed by the removal of the placeholder
// identifier attribute. The analyzer is inactive afterwards.
func (a *Analyzer) Finalize() ([]Emission, error) {
	if !a.active {
		return nil, nil
	}
	a.active = false

	for _, e := range a.edges {
		if !a.deps.Has(e.to) {
			return nil, diag.Newf(diag.Semantic, "reference to unknown subsystem %q", e.to).
				At(e.origin.File, e.origin.Line, e.origin.Text)
		}
		if err := a.deps.AddEdge(e.from, e.to); err != nil {
			return nil, (&diag.Error{Kind: diag.Semantic, Msg: "bad subsystem dependency", Err: err}).
				At(e.origin.File, e.origin.Line, e.origin.Text)
		}
	}

	rnums := make([]int, 0, len(a.references))
	for rnum := range a.references {
		rnums = append(rnums, rnum)
	}
	slices.Sort(rnums)

	var out []Emission
	for _, rnum := range rnums {
		e, err := a.formalize(rnum)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	domain := cty.StringVal(a.domain)
	for _, c := range a.Classes() {
		class := cty.StringVal(c.Name)
		for i, attrs := range c.Identifiers {
			for _, attr := range attrs {
				out = append(out, Emission{Call: CallAddID, Origin: c.Origin, Fields: []command.Field{
					{Name: "class", Value: class},
					{Name: "id_num", Value: cty.NumberIntVal(int64(i + 1))},
					{Name: "attr", Value: cty.StringVal(attr)},
					{Name: "domain", Value: domain},
				}})
			}
		}
		out = append(out, Emission{Call: CallRemoveID, Origin: c.Origin, Fields: []command.Field{
			{Name: "class", Value: class},
			{Name: "id_num", Value: cty.NumberIntVal(1)},
			{Name: "attr", Value: cty.StringVal(DummyIDAttribute)},
			{Name: "domain", Value: domain},
		}})
	}
	return out, nil
}

func (a *Analyzer) formalize(rnum int) (Emission, error) {
	refs := a.references[rnum]
	first := refs[0].Origin
	if _, ok := a.declared[rnum]; !ok {
		return Emission{}, diag.Newf(diag.Semantic, "reference to undeclared relationship R%d", rnum).
			At(first.File, first.Line, first.Text)
	}

	var refClasses, refAttrs, toClasses, toAttrs []cty.Value
	constrained := false
	for _, r := range refs {
		target, ok := a.classes[r.ToClass]
		if !ok {
			return Emission{}, diag.Newf(diag.Semantic, "R%d refers to unknown class %q", rnum, r.ToClass).
				At(r.Origin.File, r.Origin.Line, r.Origin.Text)
		}
		if r.ToSubsystem != "" && target.Subsystem != r.ToSubsystem {
			return Emission{}, diag.Newf(diag.Semantic, "class %q is not in subsystem %q", r.ToClass, r.ToSubsystem).
				At(r.Origin.File, r.Origin.Line, r.Origin.Text)
		}
		refClasses = append(refClasses, cty.StringVal(r.FromClass))
		refAttrs = append(refAttrs, cty.StringVal(r.FromAttr))
		toClasses = append(toClasses, cty.StringVal(r.ToClass))
		toAttrs = append(toAttrs, cty.StringVal(r.ToAttr))
		constrained = constrained || r.Constrained
	}

	fields := []command.Field{
		{Name: "rnum", Value: cty.NumberIntVal(int64(rnum))},
		{Name: "ref_classes", Value: cty.ListVal(refClasses)},
		{Name: "ref_attrs", Value: cty.ListVal(refAttrs)},
		{Name: "to_classes", Value: cty.ListVal(toClasses)},
		{Name: "to_attrs", Value: cty.ListVal(toAttrs)},
	}
	if constrained {
		fields = append(fields, command.Field{Name: "constrained", Value: cty.True})
	}
	fields = append(fields, command.Field{Name: "domain", Value: cty.StringVal(a.domain)})
	return Emission{Call: CallFormalize, Fields: fields, Origin: first}, nil
}
