// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package metamodel

import (
	"math/big"

	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/grammar"
	"github.com/specialistvlad/mitext/internal/scope"
	"github.com/zclconf/go-cty/cty"
)

// Statement is an extracted, typed line as the analyzer sees it.
type Statement struct {
	Kind grammar.Kind
	// Fields holds every typed capture, including those that are not
	// parameters of the target call.
	Fields []command.Field
	// Scope is the context after the line's scope-setting values were
	// applied.
	Scope  *scope.Scope
	Origin command.Origin
}

// Value returns a field and whether it is present.
func (s *Statement) Value(name string) (cty.Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return cty.NilVal, false
}

// String returns a string field, or "" when absent.
func (s *Statement) String(name string) string {
	v, ok := s.Value(name)
	if !ok || v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

// Int returns a whole number field.
func (s *Statement) Int(name string) (int, bool) {
	v, ok := s.Value(name)
	if !ok || v.IsNull() || v.Type() != cty.Number {
		return 0, false
	}
	n, acc := v.AsBigFloat().Int64()
	if acc != big.Exact {
		return 0, false
	}
	return int(n), true
}

// wholeNumber is Int for fields the analyzer cannot work without.
func (s *Statement) wholeNumber(name string) (int, error) {
	n, ok := s.Int(name)
	if !ok {
		return 0, diag.Newf(diag.Semantic, "field %s is not a whole number in range", name)
	}
	return n, nil
}

// Bool returns a flag field; absent flags are false.
func (s *Statement) Bool(name string) bool {
	v, ok := s.Value(name)
	return ok && !v.IsNull() && v.Type() == cty.Bool && v.True()
}
