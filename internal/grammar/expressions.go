package grammar

import (
	"regexp"
	"strings"
)

// Kind identifies the semantic handling an expression receives.
type Kind int

const (
	KindNone Kind = iota
	KindDomain
	KindType
	KindSubsystem
	KindClass
	KindAttribute
	KindReference
	KindActivePerspective
	KindPassivePerspective
	KindSuperclass
	KindSubclasses
	KindBridge

	// KindCount is the number of kinds; tables indexed by Kind use it as
	// their length.
	KindCount
)

var kindNames = [KindCount]string{
	KindNone:               "none",
	KindDomain:             "domain",
	KindType:               "type",
	KindSubsystem:          "subsystem",
	KindClass:              "class",
	KindAttribute:          "attribute",
	KindReference:          "reference",
	KindActivePerspective:  "active_perspective",
	KindPassivePerspective: "passive_perspective",
	KindSuperclass:         "superclass",
	KindSubclasses:         "subclasses",
	KindBridge:             "bridge",
}

func (k Kind) String() string {
	if k < 0 || k >= KindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Transform is a post-extraction rewrite of raw captures.
type Transform int

const (
	TransformNone Transform = iota
	// TransformMultiplicity rewrites multiplicity tokens to 1, M, 1c or Mc.
	TransformMultiplicity
	// TransformFlags rewrites present flag captures to "true".
	TransformFlags
)

// Expression is one statement alternative of a section.
type Expression struct {
	Section  string
	Name     string
	Kind     Kind
	Patterns []*regexp.Regexp
	// Call is the constructor the captures are handed to. Empty for
	// expressions that only stage data for later.
	Call string
	// Extends names the call whose open command this line continues.
	Extends string
	Transform Transform
	// FieldTypes gives the application type of captures that are not
	// parameters of the target call.
	FieldTypes map[string]string
	// ListSeparators splits the named multi-valued captures. Captures not
	// listed use ListSeparator.
	ListSeparators map[string]string
}

// ListSeparator splits multi-valued captures by default.
const ListSeparator = "/"

// Target is the call whose parameters type this expression's captures.
func (e *Expression) Target() string {
	if e.Call != "" {
		return e.Call
	}
	return e.Extends
}

// Split breaks a multi-valued capture into its trimmed elements.
func (e *Expression) Split(field, text string) []string {
	sep, ok := e.ListSeparators[field]
	if !ok {
		sep = ListSeparator
	}
	var out []string
	for _, part := range strings.Split(text, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Pattern building blocks.
const (
	name     = `\w[\w\s]*`
	lazyName = `\w[\w\s]*?`
	targets  = `\w[\w\s:.,]*?`
	list     = `\s*/\s*`
	sep      = `\s*[,/]\s*`
	typed    = `\s*:\s*`
	ref      = `\s*->\s*`
	idTags   = `(?P<id>I\d*)`
	rnum     = `R(?P<rnum>\d+)`
	mult     = `>>?0?`
	derived  = `(?P<derived>\\)?\s*`
)

func group(field, pattern string) string {
	return `(?P<` + field + `>` + pattern + `)`
}

func line(parts ...string) *regexp.Regexp {
	return regexp.MustCompile(`^` + strings.Join(parts, "") + `$`)
}

func defaultExpressions() []*Expression {
	attrName := derived + group("name", name)
	referential := attrName + ref + group("to_attrs", targets)
	relationship := rnum + typed

	return []*Expression{
		{
			Section:  Domain,
			Name:     "new_domain",
			Kind:     KindDomain,
			Call:     "new_domain",
			Patterns: []*regexp.Regexp{line(group("name", name), list, group("alias", name), `(?:`, list, group("type", `modeled|realized`), `)?`)},
		},
		{
			Section:  Types,
			Name:     "new_type",
			Kind:     KindType,
			Call:     "new_type",
			Patterns: []*regexp.Regexp{line(group("name", name), typed, group("base", name))},
		},
		{
			Section: Subsystem,
			Name:    "new_subsystem",
			Kind:    KindSubsystem,
			Call:    "new_subsystem",
			Patterns: []*regexp.Regexp{line(
				group("name", name), list, group("alias", lazyName),
				`\s*(?:/\s*)?`, group("floor", `\d+`), `\s*-\s*`, group("ceiling", `\d+`),
			)},
		},
		{
			Section:   Classes,
			Name:      "new_ref_attr",
			Kind:      KindReference,
			Transform: TransformFlags,
			Patterns: []*regexp.Regexp{
				line(referential, sep, idTags, sep, rnum, `(?P<constrained>c)?`),
				line(referential, sep, rnum, `(?P<constrained>c)?`, sep, idTags),
				line(referential, sep, rnum, `(?P<constrained>c)?`),
			},
			FieldTypes: map[string]string{
				"name":        "name",
				"derived":     "flag",
				"to_attrs":    "ref_targets",
				"id":          "id_tags",
				"rnum":        "rnum",
				"constrained": "flag",
			},
		},
		{
			Section:   Classes,
			Name:      "new_ind_attr",
			Kind:      KindAttribute,
			Call:      "new_ind_attr",
			Transform: TransformFlags,
			Patterns: []*regexp.Regexp{
				line(attrName, typed, group("type", name), list, idTags),
				line(attrName, typed, group("type", name)),
				line(attrName, list, idTags),
			},
			FieldTypes: map[string]string{"id": "id_tags"},
		},
		{
			Section:  Classes,
			Name:     "new_class",
			Kind:     KindClass,
			Call:     "new_class",
			Patterns: []*regexp.Regexp{line(group("name", name), list, group("alias", name), `(?:`, list, group("cnum", `\d+`), `)?`)},
		},
		{
			Section:   Relationships,
			Name:      "active_perspective",
			Kind:      KindActivePerspective,
			Call:      "new_bin_rel",
			Transform: TransformMultiplicity,
			Patterns: []*regexp.Regexp{line(
				relationship, group("a_class", name), list,
				group("a_phrase", name), group("a_mult", mult), `\s*`, group("p_class", name),
			)},
		},
		{
			Section:   Relationships,
			Name:      "passive_perspective",
			Kind:      KindPassivePerspective,
			Extends:   "new_bin_rel",
			Transform: TransformMultiplicity,
			Patterns: []*regexp.Regexp{line(
				group("p_view", name), list,
				group("p_phrase", name), group("p_mult", mult), `\s*`, group("a_view", name),
			)},
			FieldTypes: map[string]string{"p_view": "name", "a_view": "name"},
		},
		{
			Section:  Relationships,
			Name:     "superclass",
			Kind:     KindSuperclass,
			Call:     "new_gen",
			Patterns: []*regexp.Regexp{line(relationship, group("superclass", name), `\s*<`)},
		},
		{
			Section:        Relationships,
			Name:           "subclasses",
			Kind:           KindSubclasses,
			Extends:        "new_gen",
			Patterns:       []*regexp.Regexp{line(group("subclasses", name+`(?:\|\s*`+name+`)+`))},
			ListSeparators: map[string]string{"subclasses": "|"},
		},
		{
			Section:  Bridges,
			Name:     "new_bridge",
			Kind:     KindBridge,
			Call:     "new_bridge",
			Patterns: []*regexp.Regexp{line(group("client", name), ref, group("service", name))},
		},
	}
}
