package registry

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// UIType is one of the primitive categories captured text is converted to.
type UIType int

const (
	UIString UIType = iota + 1
	UIInteger
	UIFloat
	UIBool
)

var uiTypeNames = map[string]UIType{
	"string":  UIString,
	"integer": UIInteger,
	"float":   UIFloat,
	"bool":    UIBool,
}

// ParseUIType resolves a ui type name from the [type] section.
func ParseUIType(name string) (UIType, bool) {
	t, ok := uiTypeNames[name]
	return t, ok
}

func (u UIType) String() string {
	for name, t := range uiTypeNames {
		if t == u {
			return name
		}
	}
	return "unknown"
}

// CtyType is the cty type values of u are held in.
func (u UIType) CtyType() cty.Type {
	switch u {
	case UIInteger, UIFloat:
		return cty.Number
	case UIBool:
		return cty.Bool
	default:
		return cty.String
	}
}

// AppType is a named application type mapped to a ui type.
type AppType struct {
	Name string
	UI   UIType
}

// Convert turns captured text into a typed value.
func (t *AppType) Convert(raw string) (cty.Value, error) {
	raw = strings.TrimSpace(raw)
	v, err := convert.Convert(cty.StringVal(raw), t.UI.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %q to %s (%s): %w", raw, t.Name, t.UI, err)
	}
	if t.UI == UIInteger && !v.AsBigFloat().IsInt() {
		return cty.NilVal, fmt.Errorf("cannot convert %q to %s (%s): a whole number is required", raw, t.Name, t.UI)
	}
	if t.UI == UIInteger {
		if _, acc := v.AsBigFloat().Int64(); acc != big.Exact {
			return cty.NilVal, fmt.Errorf("cannot convert %q to %s (%s): out of range", raw, t.Name, t.UI)
		}
	}
	return v, nil
}

// ConvertList converts each element and packs them into a list.
func (t *AppType) ConvertList(raws []string) (cty.Value, error) {
	if len(raws) == 0 {
		return cty.ListValEmpty(t.UI.CtyType()), nil
	}
	vals := make([]cty.Value, 0, len(raws))
	for _, raw := range raws {
		v, err := t.Convert(raw)
		if err != nil {
			return cty.NilVal, err
		}
		vals = append(vals, v)
	}
	return cty.ListVal(vals), nil
}

// Format renders a value in its canonical text form. Converting the result
// with the value's own type yields an equal value. List elements are joined
// with ", ".
func Format(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return ""
	}
	ty := v.Type()
	if ty.IsListType() || ty.IsTupleType() {
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			parts = append(parts, Format(ev))
		}
		return strings.Join(parts, ", ")
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return v.GoString()
	}
	return s.AsString()
}

// Native converts a value to the Go value a driver accepts: string, int64,
// float64, bool, or a slice of one of those.
func Native(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		if v.AsBigFloat().IsInt() {
			var n int64
			err := gocty.FromCtyValue(v, &n)
			return n, err
		}
		var f float64
		err := gocty.FromCtyValue(v, &f)
		return f, err
	case ty.IsListType():
		switch ty.ElementType() {
		case cty.String:
			var out []string
			err := gocty.FromCtyValue(v, &out)
			return out, err
		case cty.Bool:
			var out []bool
			err := gocty.FromCtyValue(v, &out)
			return out, err
		case cty.Number:
			return nativeNumbers(v)
		}
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}

func nativeNumbers(v cty.Value) (any, error) {
	var floats []float64
	if err := gocty.FromCtyValue(v, &floats); err != nil {
		return nil, err
	}
	ints := make([]int64, len(floats))
	for i, f := range floats {
		if f != float64(int64(f)) {
			return floats, nil
		}
		ints[i] = int64(f)
	}
	return ints, nil
}
