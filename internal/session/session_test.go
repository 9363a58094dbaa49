package session

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/grammar"
	"github.com/specialistvlad/mitext/internal/memorybackend"
	"github.com/specialistvlad/mitext/internal/metamodel"
	"github.com/specialistvlad/mitext/internal/registry"
	"github.com/specialistvlad/mitext/internal/script"
	"github.com/specialistvlad/mitext/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newSession(t *testing.T) (*Session, context.Context) {
	t.Helper()
	ctx := ctxlog.Discard(context.Background())
	reg, err := registry.Default(ctx)
	require.NoError(t, err)
	s, err := New(grammar.Default(), reg)
	require.NoError(t, err)
	return s, ctx
}

func file(name, text string) *source.File {
	return source.Parse(name, []byte(strings.TrimLeft(text, "\n")))
}

func calls(s *script.Script) []string {
	var out []string
	for _, c := range s.Completed() {
		out = append(out, c.Call)
	}
	return out
}

func locate(t *testing.T, err error) *diag.Error {
	t.Helper()
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	return de
}

const airField = `
# Air traffic control
domain
Air Traffic Control / ATC

subsystem
Air Field / AF 1-50

classes
Pilot / P / 1
    Name : name / I
    Rank -> Rank.Title, R1
    Flying -> Aircraft.Tail Number, R2c   # constrained
Aircraft / AC / 2
    Tail Number : name / I
Rank / RK
    Title : name / I

relationships
R1: Pilot / holds > Rank
    Rank / is held by >> Pilot
R2: Pilot / flies >0 Aircraft
    Aircraft / is flown by >>0 Pilot
`

func TestBuild_ScenarioA(t *testing.T) {
	s, ctx := newSession(t)
	f := file("atc.mi", `
domain
Air Traffic Control / ATC
subsystem
Runway / RW 1-50
`)

	out, err := s.Compile(ctx, f)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, out.WriteText(&buf))
	expected := `new_domain(name => "Air Traffic Control", alias => "ATC")
new_subsystem(domain => "Air Traffic Control", name => "Runway", alias => "RW", floor => 1, ceiling => 50)
`
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("script mismatch (-want +got):\n%s", diff)
	}

	sub := out.Completed()[1]
	assert.Equal(t, 4, sub.Origin.Line)
	assert.Equal(t, "Runway / RW 1-50", sub.Origin.Text)
}

func TestBuild_FullDomain(t *testing.T) {
	s, ctx := newSession(t)

	out, err := s.Compile(ctx, file("atc.mi", airField))
	require.NoError(t, err)

	expected := []string{
		"new_domain", "new_subsystem",
		"new_class", "new_ind_attr",
		"new_class", "new_ind_attr",
		"new_class", "new_ind_attr",
		"new_bin_rel", "new_bin_rel",
		metamodel.CallFormalize, metamodel.CallFormalize,
		metamodel.CallAddID, metamodel.CallRemoveID,
		metamodel.CallAddID, metamodel.CallRemoveID,
		metamodel.CallAddID, metamodel.CallRemoveID,
	}
	if diff := cmp.Diff(expected, calls(out)); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, out.Len(), len(out.Completed()), "no command is left open")

	pilot := out.Completed()[2]
	assert.Equal(t, []string{"domain", "subsystem", "name", "alias", "cnum"}, pilot.Params)

	attr := out.Completed()[3]
	class, _ := attr.Value("class")
	assert.Equal(t, "Pilot", class.AsString(), "class is filled in from context")

	rel := out.Completed()[8]
	mult, _ := rel.Value("p_mult")
	assert.Equal(t, "M", mult.AsString())
	assert.Equal(t, 19, rel.Origin.Line)

	r2 := out.Completed()[11]
	constrained, ok := r2.Value("constrained")
	require.True(t, ok)
	assert.True(t, constrained.True())
	toAttrs, _ := r2.Value("to_attrs")
	assert.True(t, toAttrs.RawEquals(cty.ListVal([]cty.Value{cty.StringVal("Tail Number")})))

	remove := out.Completed()[13]
	dummy, _ := remove.Value("attr")
	assert.Equal(t, metamodel.DummyIDAttribute, dummy.AsString())
}

func TestBuild_ScenarioD(t *testing.T) {
	s, ctx := newSession(t)
	f := file("metamodel.mi", `
domain
miUML Metamodel / MM
subsystem
Class / CL 1-100
classes
Native Attribute / NA
    Type -> Type::Constrained Type.Name, I13, R24
relationships
R24: Native Attribute / is typed by > Constrained Type
    Constrained Type / types >>0 Native Attribute
subsystem
Type / TY 101-200
classes
Constrained Type / CT
    Name : name / I
`)

	out, err := s.Compile(ctx, f)
	require.NoError(t, err)

	var ids []string
	for _, c := range out.Completed() {
		if c.Call != metamodel.CallAddID {
			continue
		}
		class, _ := c.Value("class")
		num, _ := c.Value("id_num")
		attr, _ := c.Value("attr")
		ids = append(ids, class.AsString()+"/"+registry.Format(num)+"/"+attr.AsString())
	}
	expected := []string{
		"Native Attribute/1/Type",
		"Native Attribute/3/Type",
		"Constrained Type/1/Name",
	}
	if diff := cmp.Diff(expected, ids); diff != "" {
		t.Errorf("identifier assignments mismatch (-want +got):\n%s", diff)
	}

	var formalize []string
	for _, c := range out.Completed() {
		if c.Call == metamodel.CallFormalize {
			formalize = append(formalize, c.String())
		}
	}
	require.Len(t, formalize, 1)
	assert.Equal(t,
		`formalize_rel(rnum => 24, ref_classes => ["Native Attribute"], ref_attrs => ["Type"], `+
			`to_classes => ["Constrained Type"], to_attrs => ["Name"], domain => "miUML Metamodel")`,
		formalize[0])
}

func TestBuild_Bridges(t *testing.T) {
	s, ctx := newSession(t)
	f := file("two.mi", `
domain
Air Traffic Control / ATC
subsystem
Air Field / AF 1-50
classes
Pilot / P
    Name : name / I
bridges
ATC -> UI
domain
User Interface / UI
subsystem
Screens / SC 1-10
`)

	out, err := s.Compile(ctx, f)
	require.NoError(t, err)

	expected := []string{
		"new_domain", "new_subsystem", "new_class", "new_ind_attr",
		metamodel.CallAddID, metamodel.CallRemoveID,
		"new_bridge",
		"new_domain", "new_subsystem",
	}
	if diff := cmp.Diff(expected, calls(out)); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	last := out.Completed()[8]
	domain, _ := last.Value("domain")
	assert.Equal(t, "User Interface", domain.AsString())
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		kind        diag.Kind
		line        int
		text        string
		errContains string
	}{
		{
			name:        "classes right after model",
			input:       "model\nclasses\n",
			kind:        diag.Syntax,
			line:        2,
			text:        "classes",
			errContains: `section "classes" cannot follow "model"`,
		},
		{
			name:        "unknown section",
			input:       "domain\nATC / ATC\nstates\n",
			kind:        diag.Syntax,
			line:        3,
			text:        "states",
			errContains: `unrecognized section "states"`,
		},
		{
			name:        "statement before any section",
			input:       "# header\nATC / ATC\n",
			kind:        diag.Syntax,
			line:        2,
			text:        "ATC / ATC",
			errContains: "before the first section",
		},
		{
			name:        "second statement in a singular section",
			input:       "domain\nATC / ATC\nUI / UI\n",
			kind:        diag.Syntax,
			line:        3,
			text:        "UI / UI",
			errContains: "takes a single statement",
		},
		{
			name:        "unmatched statement",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field 1-50\n",
			kind:        diag.Syntax,
			line:        4,
			text:        "Air Field 1-50",
			errContains: `statement not recognized in section "subsystem"`,
		},
		{
			name:        "duplicate class",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nPilot / PP\n",
			kind:        diag.Semantic,
			line:        7,
			text:        "Pilot / PP",
			errContains: `class "Pilot" already declared`,
		},
		{
			name:        "floor above ceiling",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 50-1\n",
			kind:        diag.Semantic,
			line:        4,
			text:        "Air Field / AF 50-1",
			errContains: "floor above ceiling",
		},
		{
			name:        "subsystem ceiling past 64 bits",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-99999999999999999999\n",
			kind:        diag.Semantic,
			line:        4,
			errContains: "bad value for ceiling",
		},
		{
			name:        "relationship number past 64 bits",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nrelationships\nR99999999999999999999: Pilot / flies > Aircraft\n",
			kind:        diag.Semantic,
			line:        8,
			text:        "R99999999999999999999: Pilot / flies > Aircraft",
			errContains: "out of range",
		},
		{
			name:        "unterminated association at bridges",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nrelationships\nR1: Pilot / flies > Aircraft\nbridges\n",
			kind:        diag.Semantic,
			line:        8,
			text:        "R1: Pilot / flies > Aircraft",
			errContains: "new_bin_rel is missing p_phrase, p_mult",
		},
		{
			name:        "unterminated association at end of input",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nrelationships\nR1: Pilot / flies > Aircraft\n",
			kind:        diag.Semantic,
			line:        8,
			text:        "R1: Pilot / flies > Aircraft",
			errContains: "new_bin_rel is missing",
		},
		{
			name:        "passive perspective first",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nrelationships\nAircraft / is flown by > Pilot\n",
			kind:        diag.Semantic,
			line:        8,
			errContains: "passive perspective without an active perspective",
		},
		{
			name:        "subclasses without superclass",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nrelationships\nJet | Prop\n",
			kind:        diag.Semantic,
			line:        8,
			errContains: "subclasses without a superclass",
		},
		{
			name:        "reference to undeclared relationship",
			input:       "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\n  Plane -> Pilot.Name, R7\n",
			kind:        diag.Semantic,
			line:        7,
			errContains: "undeclared relationship R7",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, ctx := newSession(t)
			out, err := s.Compile(ctx, file("bad.mi", tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)

			de := locate(t, err)
			assert.Equal(t, tc.kind, de.Kind)
			assert.Equal(t, "bad.mi", de.File)
			assert.Equal(t, tc.line, de.Line)
			if tc.text != "" {
				assert.Equal(t, tc.text, de.Text)
			}
			require.NotNil(t, out)
		})
	}
}

func TestCheck_Idempotent(t *testing.T) {
	g := grammar.Default()
	inputs := []string{
		airField,
		"model\nclasses\n",
		"domain\nATC / ATC\nsubsystem\nAir Field 1-50\n",
		"domain\nATC / ATC\nUI / UI\n",
		"domain\nATC / ATC\ntypes\nAltitude : integer\nsubsystem\nAir Field / AF 1-50\n",
	}

	for _, input := range inputs {
		f := file("check.mi", input)
		first := Check(f, g)
		second := Check(f, g)
		if first == nil {
			assert.NoError(t, second)
			continue
		}
		require.Error(t, second)
		a, b := locate(t, first), locate(t, second)
		assert.Equal(t, a.Line, b.Line)
		assert.Equal(t, a.Text, b.Text)
		assert.Equal(t, a.Error(), b.Error())
	}
}

// Phase 1 accepts what the analyzer later rejects.
func TestCheck_IgnoresSemantics(t *testing.T) {
	g := grammar.Default()
	f := file("dup.mi", "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nPilot / PP\n")
	require.NoError(t, Check(f, g))
}

func TestExecute_Atomic(t *testing.T) {
	t.Run("compiled script commits", func(t *testing.T) {
		s, ctx := newSession(t)
		out, err := s.Compile(ctx, file("atc.mi", airField))
		store := memorybackend.New()
		require.NoError(t, out.Execute(ctx, store, err))
		assert.Equal(t, calls(out), store.Calls())
	})

	t.Run("syntax error executes nothing", func(t *testing.T) {
		s, ctx := newSession(t)
		out, err := s.Compile(ctx, file("c.mi", "model\nclasses\n"))
		require.Error(t, err)
		store := memorybackend.New()
		assert.ErrorIs(t, out.Execute(ctx, store, err), err)
		assert.Empty(t, store.Records())
	})

	t.Run("semantic error rolls back the replayed prefix", func(t *testing.T) {
		s, ctx := newSession(t)
		out, err := s.Compile(ctx, file("dup.mi", "domain\nATC / ATC\nsubsystem\nAir Field / AF 1-50\nclasses\nPilot / P\nPilot / PP\n"))
		require.Error(t, err)
		assert.Len(t, out.Completed(), 3)

		store := memorybackend.New()
		assert.ErrorIs(t, out.Execute(ctx, store, err), err)
		assert.Empty(t, store.Records())
		commits, rollbacks := store.Stats()
		assert.Equal(t, 0, commits)
		assert.Equal(t, 1, rollbacks)
	})

	t.Run("backend failure names the line", func(t *testing.T) {
		s, ctx := newSession(t)
		out, err := s.Compile(ctx, file("atc.mi", airField))
		require.NoError(t, err)

		store := memorybackend.New()
		store.FailOn = memorybackend.FailCall("new_bin_rel")
		err = out.Execute(ctx, store, nil)
		require.Error(t, err)

		de := locate(t, err)
		assert.Equal(t, diag.Execution, de.Kind)
		assert.Equal(t, 19, de.Line)
		assert.Empty(t, store.Records())
	})
}
