package scope

import (
	"testing"

	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestScope_SetAndGet(t *testing.T) {
	s := New()
	_, ok := s.Get(Domain)
	assert.False(t, ok)

	require.NoError(t, s.Set(Domain, cty.StringVal("ATC")))
	require.NoError(t, s.Set(Subsystem, cty.StringVal("Runway")))
	require.NoError(t, s.Set(Class, cty.StringVal("Gate")))

	assert.Equal(t, "ATC", s.String(Domain))
	assert.Equal(t, "Runway", s.String(Subsystem))
	assert.Equal(t, "Gate", s.String(Class))
	assert.Len(t, s.Values(), 3)

	require.NoError(t, s.Set(Class, cty.StringVal("Taxiway")))
	assert.Equal(t, "Taxiway", s.String(Class))
	assert.Equal(t, "Runway", s.String(Subsystem))
}

func TestScope_ParentClearsChildren(t *testing.T) {
	testCases := []struct {
		name     string
		reset    string
		expected []string
	}{
		{name: "new domain", reset: Domain, expected: []string{Domain}},
		{name: "new subsystem", reset: Subsystem, expected: []string{Domain, Subsystem}},
		{name: "new class", reset: Class, expected: []string{Domain, Subsystem, Class}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			for _, name := range Names {
				require.NoError(t, s.Set(name, cty.StringVal("old "+name)))
			}
			require.NoError(t, s.Set(tc.reset, cty.StringVal("new")))

			var names []string
			for _, e := range s.Values() {
				names = append(names, e.Name)
			}
			assert.Equal(t, tc.expected, names)
			assert.Equal(t, "new", s.String(tc.reset))
		})
	}
}

func TestScope_UnknownName(t *testing.T) {
	s := New()
	err := s.Set("lineage", cty.StringVal("x"))
	require.Error(t, err)
	assert.Equal(t, diag.Semantic, diag.KindOf(err))

	_, ok := s.Get("lineage")
	assert.False(t, ok)
	assert.Empty(t, s.String("lineage"))
}
