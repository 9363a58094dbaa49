package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func load(t *testing.T, data string) (*Registry, error) {
	t.Helper()
	rf, err := resource.Parse("api.mi", []byte(data))
	require.NoError(t, err)
	return Load(ctxlog.Discard(context.Background()), rf)
}

func TestDefault(t *testing.T) {
	r, err := Default(ctxlog.Discard(context.Background()))
	require.NoError(t, err)
	require.NoError(t, r.ValidateScopes([]string{"domain", "subsystem", "class"}))

	var names []string
	for _, c := range r.Calls() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"new_domain", "new_type", "new_subsystem", "new_class", "new_ind_attr",
		"new_bin_rel", "new_gen", "formalize_rel", "add_attr_to_id",
		"remove_attr_from_id", "new_bridge",
	}, names)

	class, ok := r.Call("new_class")
	require.True(t, ok)
	assert.Equal(t, "class", class.Metaclass)
	assert.Equal(t, []string{"name", "alias", "subsystem", "domain"}, class.Required())

	name, ok := class.Param("name")
	require.True(t, ok)
	assert.Equal(t, "class", name.Scope)

	cnum, ok := class.Param("cnum")
	require.True(t, ok)
	assert.True(t, cnum.Optional)
	assert.Equal(t, UIInteger, cnum.Type.UI)

	gen, ok := r.Metaclass("generalization")
	require.True(t, ok)
	subclasses, ok := gen.Param("subclasses")
	require.True(t, ok)
	assert.True(t, subclasses.Multiple)

	assert.Equal(t, "new_domain(name->domain:name, alias:alias, [type:domain_type])", mustCall(t, r, "new_domain").String())
}

func mustCall(t *testing.T, r *Registry, name string) *CallSpec {
	t.Helper()
	c, ok := r.Call(name)
	require.True(t, ok, "call %s", name)
	return c
}

func TestLoad_ParameterRecords(t *testing.T) {
	r, err := load(t, `
[type]
name string
count integer

[constructor]
thing / make_thing
  [ label : name ] , parts->class:name... ,
size:count,
`)
	require.NoError(t, err)

	c := mustCall(t, r, "make_thing")
	require.Len(t, c.Params, 3)

	assert.Equal(t, "label", c.Params[0].Name)
	assert.True(t, c.Params[0].Optional)

	assert.Equal(t, "parts", c.Params[1].Name)
	assert.Equal(t, "class", c.Params[1].Scope)
	assert.True(t, c.Params[1].Multiple)

	assert.Equal(t, "size", c.Params[2].Name)
	assert.Equal(t, []string{"parts", "size"}, c.Required())
}

func TestLoad_SchemaErrors(t *testing.T) {
	testCases := []struct {
		name        string
		data        string
		line        int
		errContains string
	}{
		{
			name:        "unknown ui type",
			data:        "[type]\nname text\n",
			line:        2,
			errContains: `unknown ui type "text"`,
		},
		{
			name:        "missing ui type",
			data:        "[type]\nname\n",
			line:        2,
			errContains: "needs an app type and a ui type",
		},
		{
			name:        "duplicate app type",
			data:        "[type]\nname string\nname integer\n",
			line:        3,
			errContains: `duplicate type "name"`,
		},
		{
			name:        "bad metaclass record",
			data:        "[type]\nname string\n[constructor]\nclass / new class\n",
			line:        4,
			errContains: "bad metaclass record",
		},
		{
			name:        "duplicate metaclass",
			data:        "[type]\nname string\n[constructor]\nclass\nname:name\nclass / other\n",
			line:        6,
			errContains: `duplicate metaclass "class"`,
		},
		{
			name:        "duplicate call",
			data:        "[type]\nname string\n[constructor]\nclass\nname:name\nthing / new_class\n",
			line:        6,
			errContains: `duplicate call "new_class"`,
		},
		{
			name:        "parameter with no metaclass",
			data:        "[type]\nname string\n[constructor]\nname:name\n",
			line:        4,
			errContains: "parameter with no metaclass",
		},
		{
			name:        "missing parameter name",
			data:        "[type]\nname string\n[constructor]\nclass\n:name\n",
			line:        5,
			errContains: "parameter name missing",
		},
		{
			name:        "missing parameter type",
			data:        "[type]\nname string\n[constructor]\nclass\nname:\n",
			line:        5,
			errContains: "parameter type missing",
		},
		{
			name:        "duplicate parameter",
			data:        "[type]\nname string\n[constructor]\nclass\nname:name, name:name\n",
			line:        5,
			errContains: `duplicate parameter "name"`,
		},
		{
			name:        "unknown parameter type",
			data:        "[type]\nname string\n[constructor]\nclass\nname:label\n",
			line:        5,
			errContains: `unknown type "label"`,
		},
		{
			name:        "parameter record without type separator",
			data:        "[type]\nname string\n[constructor]\nclass\nname:name, alias\n",
			line:        5,
			errContains: `bad parameter record "alias"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.data)
			require.Error(t, err)
			assert.Equal(t, diag.Schema, diag.KindOf(err))
			assert.Contains(t, err.Error(), tc.errContains)

			var de *diag.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "api.mi", de.File)
			assert.Equal(t, tc.line, de.Line)
		})
	}
}

func TestValidateScopes(t *testing.T) {
	r, err := load(t, "[type]\nname string\n[constructor]\nclass\nname->lineage:name\n")
	require.NoError(t, err)

	err = r.ValidateScopes([]string{"domain", "subsystem", "class"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown scope "lineage"`)
}

func TestConvert(t *testing.T) {
	testCases := []struct {
		name     string
		ui       UIType
		raw      string
		expected cty.Value
		wantErr  bool
	}{
		{name: "string", ui: UIString, raw: " Air Traffic Control ", expected: cty.StringVal("Air Traffic Control")},
		{name: "integer", ui: UIInteger, raw: "50", expected: cty.NumberIntVal(50)},
		{name: "float", ui: UIFloat, raw: "2.5", expected: cty.NumberFloatVal(2.5)},
		{name: "bool", ui: UIBool, raw: "true", expected: cty.True},
		{name: "integer rejects fraction", ui: UIInteger, raw: "2.5", wantErr: true},
		{name: "integer rejects text", ui: UIInteger, raw: "ten", wantErr: true},
		{name: "integer rejects values past 64 bits", ui: UIInteger, raw: "99999999999999999999", wantErr: true},
		{name: "integer accepts the largest 64-bit value", ui: UIInteger, raw: "9223372036854775807", expected: cty.NumberIntVal(9223372036854775807)},
		{name: "bool rejects text", ui: UIBool, raw: "maybe", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typ := &AppType{Name: "test", UI: tc.ui}
			v, err := typ.Convert(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "cannot convert")
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.RawEquals(v), "got %#v", v)
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	testCases := []struct {
		ui  UIType
		raw string
	}{
		{UIString, "Aircraft"},
		{UIInteger, "1"},
		{UIInteger, "50"},
		{UIFloat, "0.25"},
		{UIBool, "true"},
		{UIBool, "false"},
	}

	for _, tc := range testCases {
		t.Run(tc.ui.String()+"/"+tc.raw, func(t *testing.T) {
			typ := &AppType{Name: "test", UI: tc.ui}
			v, err := typ.Convert(tc.raw)
			require.NoError(t, err)

			text := Format(v)
			again, err := typ.Convert(text)
			require.NoError(t, err)
			assert.True(t, v.RawEquals(again))
			assert.Equal(t, tc.raw, text)
		})
	}
}

func TestConvertList(t *testing.T) {
	typ := &AppType{Name: "name", UI: UIString}

	v, err := typ.ConvertList([]string{"Pilot", "Controller"})
	require.NoError(t, err)
	assert.Equal(t, "Pilot, Controller", Format(v))

	empty, err := typ.ConvertList(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.LengthInt())
}

func TestNative(t *testing.T) {
	testCases := []struct {
		name     string
		value    cty.Value
		expected any
	}{
		{name: "string", value: cty.StringVal("ATC"), expected: "ATC"},
		{name: "whole number", value: cty.NumberIntVal(7), expected: int64(7)},
		{name: "fraction", value: cty.NumberFloatVal(0.5), expected: 0.5},
		{name: "bool", value: cty.True, expected: true},
		{name: "string list", value: cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}), expected: []string{"a", "b"}},
		{name: "number list", value: cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), expected: []int64{1, 2}},
		{name: "null", value: cty.NullVal(cty.String), expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Native(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
