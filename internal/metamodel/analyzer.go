// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package metamodel

import (
	"github.com/specialistvlad/mitext/internal/attrref"
	"github.com/specialistvlad/mitext/internal/command"
	"github.com/specialistvlad/mitext/internal/dag"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/grammar"
	"github.com/specialistvlad/mitext/internal/scope"
)

// Subsystem is a declared subsystem and its class number range.
type Subsystem struct {
	Name    string
	Floor   int
	Ceiling int
}

// Class is a declared class.
type Class struct {
	Name      string
	Subsystem string
	// Number is the class number, 0 when none was given.
	Number      int
	Identifiers IdentifierGroup
	Origin      command.Origin
}

// PendingReference is one referential attribute target waiting for its
// relationship to be formalized.
type PendingReference struct {
	FromClass string
	FromAttr  string
	// ToSubsystem is set for a qualified target.
	ToSubsystem string
	ToClass     string
	ToAttr      string
	Constrained bool
	// Subsystem owns the referring class.
	Subsystem string
	Origin    command.Origin
}

// RelationshipKind tells binary associations from generalizations.
type RelationshipKind int

const (
	Association RelationshipKind = iota + 1
	Generalization
)

// Relationship is a declared relationship number.
type Relationship struct {
	Number    int
	Kind      RelationshipKind
	Subsystem string
	// Classes holds the active and passive classes of an association, or the
	// superclass of a generalization.
	Classes []string
	Origin  command.Origin
}

type dependency struct {
	from, to string
	origin   command.Origin
}

// Analyzer holds the semantic state of the domain being parsed.
type Analyzer struct {
	domain     string
	active     bool
	subsystems map[string]*Subsystem
	classes    map[string]*Class
	classOrder []string
	references map[int][]PendingReference
	declared   map[int]*Relationship
	lastRel    *Relationship
	deps       *dag.Graph
	edges      []dependency
}

// New returns an analyzer with no active domain.
func New() *Analyzer {
	a := &Analyzer{}
	a.reset("")
	a.active = false
	return a
}

func (a *Analyzer) reset(domain string) {
	a.domain = domain
	a.active = true
	a.subsystems = make(map[string]*Subsystem)
	a.classes = make(map[string]*Class)
	a.classOrder = nil
	a.references = make(map[int][]PendingReference)
	a.declared = make(map[int]*Relationship)
	a.lastRel = nil
	a.deps = dag.New()
	a.edges = nil
}

// Active reports whether a domain is open and not yet finalized.
func (a *Analyzer) Active() bool {
	return a.active
}

// Domain is the name of the domain under analysis.
func (a *Analyzer) Domain() string {
	return a.domain
}

// Class looks up a class of the current domain.
func (a *Analyzer) Class(name string) (*Class, bool) {
	c, ok := a.classes[name]
	return c, ok
}

// Classes returns the classes of the current domain in declaration order.
func (a *Analyzer) Classes() []*Class {
	out := make([]*Class, 0, len(a.classOrder))
	for _, name := range a.classOrder {
		out = append(out, a.classes[name])
	}
	return out
}

// References returns the pending references of a relationship.
func (a *Analyzer) References(rnum int) []PendingReference {
	return a.references[rnum]
}

// Dependencies returns the subsystem dependency graph. Edges are added to
// it when the domain is finalized.
func (a *Analyzer) Dependencies() *dag.Graph {
	return a.deps
}

// DependencyEdges returns the cross-subsystem references recorded so far as
// (from, to) subsystem pairs, in the order they were seen.
func (a *Analyzer) DependencyEdges() []dag.Edge {
	out := make([]dag.Edge, 0, len(a.edges))
	for _, e := range a.edges {
		out = append(out, dag.Edge{From: e.from, To: e.to})
	}
	return out
}

type handler func(a *Analyzer, st *Statement) error

// handlers maps every expression kind to its semantic handling. Kinds whose
// statements need nothing beyond the command they produce map to noop.
var handlers = [grammar.KindCount]handler{
	grammar.KindNone:               noop,
	grammar.KindDomain:             (*Analyzer).newDomain,
	grammar.KindType:               noop,
	grammar.KindSubsystem:          (*Analyzer).newSubsystem,
	grammar.KindClass:              (*Analyzer).newClass,
	grammar.KindAttribute:          (*Analyzer).newAttribute,
	grammar.KindReference:          (*Analyzer).newReference,
	grammar.KindActivePerspective:  (*Analyzer).activePerspective,
	grammar.KindPassivePerspective: (*Analyzer).passivePerspective,
	grammar.KindSuperclass:         (*Analyzer).superclass,
	grammar.KindSubclasses:         (*Analyzer).subclasses,
	grammar.KindBridge:             noop,
}

func noop(*Analyzer, *Statement) error { return nil }

// Handle runs the semantic handling for one statement.
func (a *Analyzer) Handle(st *Statement) error {
	if st.Kind < 0 || st.Kind >= grammar.KindCount || handlers[st.Kind] == nil {
		return diag.Newf(diag.Semantic, "no semantic handling for expression kind %s", st.Kind)
	}
	return handlers[st.Kind](a, st)
}

func (a *Analyzer) newDomain(st *Statement) error {
	a.reset(st.String("name"))
	return nil
}

func (a *Analyzer) newSubsystem(st *Statement) error {
	name := st.String("name")
	floor, err := st.wholeNumber("floor")
	if err != nil {
		return err
	}
	ceiling, err := st.wholeNumber("ceiling")
	if err != nil {
		return err
	}
	if floor > ceiling {
		return diag.Newf(diag.Semantic, "subsystem %q range %d-%d has floor above ceiling", name, floor, ceiling)
	}
	if _, dup := a.subsystems[name]; dup {
		return diag.Newf(diag.Semantic, "subsystem %q already declared in domain %q", name, a.domain)
	}
	a.subsystems[name] = &Subsystem{Name: name, Floor: floor, Ceiling: ceiling}
	a.deps.AddNode(name)
	return nil
}

func (a *Analyzer) newClass(st *Statement) error {
	name := st.Scope.String(scope.Class)
	if _, dup := a.classes[name]; dup {
		return diag.Newf(diag.Semantic, "class %q already declared in domain %q", name, a.domain)
	}
	c := &Class{Name: name, Subsystem: st.Scope.String(scope.Subsystem), Origin: st.Origin}
	if _, present := st.Value("cnum"); present {
		n, err := st.wholeNumber("cnum")
		if err != nil {
			return err
		}
		if sub, known := a.subsystems[c.Subsystem]; known && (n < sub.Floor || n > sub.Ceiling) {
			return diag.Newf(diag.Semantic, "class number %d of %q is outside subsystem %q range %d-%d",
				n, name, sub.Name, sub.Floor, sub.Ceiling)
		}
		c.Number = n
	}
	a.classes[name] = c
	a.classOrder = append(a.classOrder, name)
	return nil
}

func (a *Analyzer) currentClass(st *Statement) (*Class, error) {
	name := st.Scope.String(scope.Class)
	c, ok := a.classes[name]
	if name == "" || !ok {
		return nil, diag.Newf(diag.Semantic, "attribute declared outside of a class")
	}
	return c, nil
}

func (a *Analyzer) mergeIDs(c *Class, attr, tag string) error {
	if attr == DummyIDAttribute {
		return diag.Newf(diag.Semantic, "attribute name %q is reserved", DummyIDAttribute)
	}
	if tag == "" {
		return nil
	}
	numbers, err := ParseIDTags(tag)
	if err != nil {
		return err
	}
	return c.Identifiers.Merge(attr, numbers)
}

func (a *Analyzer) newAttribute(st *Statement) error {
	c, err := a.currentClass(st)
	if err != nil {
		return err
	}
	return a.mergeIDs(c, st.String("name"), st.String("id"))
}

func (a *Analyzer) newReference(st *Statement) error {
	c, err := a.currentClass(st)
	if err != nil {
		return err
	}
	attr := st.String("name")
	rnum, err := st.wholeNumber("rnum")
	if err != nil {
		return diag.Newf(diag.Semantic, "reference %q has no usable relationship number", attr)
	}
	targets, err := attrref.ParseList(st.String("to_attrs"))
	if err != nil {
		return err
	}
	subsystem := st.Scope.String(scope.Subsystem)
	constrained := st.Bool("constrained")
	for _, t := range targets {
		a.references[rnum] = append(a.references[rnum], PendingReference{
			FromClass:   c.Name,
			FromAttr:    attr,
			ToSubsystem: t.Subsystem,
			ToClass:     t.Class,
			ToAttr:      t.Attribute,
			Constrained: constrained,
			Subsystem:   subsystem,
			Origin:      st.Origin,
		})
		if t.Qualified() && t.Subsystem != subsystem {
			a.edges = append(a.edges, dependency{from: subsystem, to: t.Subsystem, origin: st.Origin})
		}
	}
	return a.mergeIDs(c, attr, st.String("id"))
}

func (a *Analyzer) declare(st *Statement, kind RelationshipKind, classes ...string) error {
	rnum, err := st.wholeNumber("rnum")
	if err != nil {
		return err
	}
	if prev, dup := a.declared[rnum]; dup {
		return diag.Newf(diag.Semantic, "relationship R%d already declared on line %d", rnum, prev.Origin.Line)
	}
	rel := &Relationship{
		Number:    rnum,
		Kind:      kind,
		Subsystem: st.Scope.String(scope.Subsystem),
		Classes:   classes,
		Origin:    st.Origin,
	}
	a.declared[rnum] = rel
	a.lastRel = rel
	return nil
}

func (a *Analyzer) activePerspective(st *Statement) error {
	return a.declare(st, Association, st.String("a_class"), st.String("p_class"))
}

func (a *Analyzer) passivePerspective(st *Statement) error {
	rel := a.lastRel
	if rel == nil || rel.Kind != Association {
		return diag.Newf(diag.Semantic, "passive perspective without an active perspective")
	}
	active, passive := rel.Classes[0], rel.Classes[1]
	if st.String("p_view") != passive || st.String("a_view") != active {
		return diag.Newf(diag.Semantic, "passive perspective of R%d must read %s ... %s", rel.Number, passive, active)
	}
	return nil
}

func (a *Analyzer) superclass(st *Statement) error {
	return a.declare(st, Generalization, st.String("superclass"))
}

func (a *Analyzer) subclasses(st *Statement) error {
	rel := a.lastRel
	if rel == nil || rel.Kind != Generalization {
		return diag.Newf(diag.Semantic, "subclasses without a superclass")
	}
	v, _ := st.Value("subclasses")
	if !v.Type().IsListType() {
		return nil
	}
	for it := v.ElementIterator(); it.Next(); {
		_, sub := it.Element()
		if sub.AsString() == rel.Classes[0] {
			return diag.Newf(diag.Semantic, "class %q cannot be a subclass of itself in R%d", sub.AsString(), rel.Number)
		}
	}
	return nil
}
