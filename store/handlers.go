package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/nodeadmin/owlstore/dl"
	"github.com/nodeadmin/owlstore/vocab"
)

// listConsumer receives the members of a completed RDF list.
type listConsumer struct {
	head    quad.Value
	consume func(items []quad.Value) error
}

// restriction collects the parts of an owl:Restriction as they arrive.
type restriction struct {
	node     quad.Value
	property quad.Value
	some     quad.Value

	// card is the cardinality predicate, empty when none arrived yet.
	card quad.IRI
	n    int

	// onClass holds owl:onClass or owl:onDataRange.
	onClass   quad.Value
	dataRange bool
	parked    bool
}

// groupAxiom is an owl:members axiom. Its meaning depends on the type of
// its subject, which may arrive before or after the list.
type groupAxiom struct {
	kind quad.IRI
	head quad.Value
}

func (s *Store) installBuiltins() {
	t := s.table
	typeOf := func(class quad.IRI, h Handler) { t.Set(PredicateObject(vocab.Type, class), h) }

	typeOf(vocab.OWLClass, s.declareClass)
	typeOf(vocab.Class, s.declareClass)
	typeOf(vocab.ObjectProperty, s.declareKind(dl.KindObjectRole))
	typeOf(vocab.DatatypeProperty, s.declareKind(dl.KindDataRole))
	typeOf(vocab.FunctionalProperty, s.functional)
	typeOf(vocab.InverseFunctionalProperty, s.inverseFunctional)
	typeOf(vocab.TransitiveProperty, s.roleFlag(dl.Reasoner.SetTransitive))
	typeOf(vocab.SymmetricProperty, s.roleFlag(dl.Reasoner.SetSymmetric))
	typeOf(vocab.AnnotationProperty, s.declareAnnotation)
	typeOf(vocab.NamedIndividual, s.declareIndividual)
	typeOf(vocab.Property, s.declareUntyped)
	typeOf(vocab.Datatype, s.declareDatatype)
	for _, flag := range []quad.IRI{vocab.AsymmetricProperty, vocab.ReflexiveProperty, vocab.IrreflexiveProperty} {
		typeOf(flag, s.characteristic)
	}
	for _, group := range []quad.IRI{vocab.AllDifferent, vocab.AllDisjointClasses, vocab.AllDisjointProperties} {
		typeOf(group, s.groupType)
	}
	for _, inert := range []quad.IRI{vocab.Ontology, vocab.Restriction, vocab.List, vocab.Axiom} {
		typeOf(inert, s.inert)
	}

	t.Set(Predicate(vocab.Type), s.typeAssertion)
	t.Set(Predicate(vocab.SubClassOf), s.subClassOf)
	t.Set(Predicate(vocab.EquivalentClass), s.equivalentClass)
	t.Set(Predicate(vocab.DisjointWith), s.disjointWith)
	t.Set(Predicate(vocab.Domain), s.resolverOp(OpDomain))
	t.Set(Predicate(vocab.Range), s.resolverOp(OpRange))
	t.Set(Predicate(vocab.SubPropertyOf), s.resolverOp(OpSubPropertyOf))
	t.Set(Predicate(vocab.EquivalentProperty), s.resolverOp(OpEquivalentProperty))
	t.Set(Predicate(vocab.InverseOf), s.inverseOf)
	t.Set(Predicate(vocab.First), s.first)
	t.Set(Predicate(vocab.Rest), s.rest)
	t.Set(Predicate(vocab.IntersectionOf), s.intersectionOf)
	t.Set(Predicate(vocab.UnionOf), s.unionOf)
	t.Set(Predicate(vocab.DistinctMembers), s.distinctMembers)
	t.Set(Predicate(vocab.Members), s.members)
	t.Set(Predicate(vocab.OnProperty), s.onProperty)
	t.Set(Predicate(vocab.SomeValuesFrom), s.someValuesFrom)
	t.Set(Predicate(vocab.OnClass), s.onClass(false))
	t.Set(Predicate(vocab.OnDataRange), s.onClass(true))
	for _, p := range vocab.Cardinalities {
		t.Set(Predicate(p), s.cardinality)
	}
	for _, p := range vocab.Metadata {
		t.Set(Predicate(p), s.metadata)
	}
	for _, p := range vocab.Unmodelled {
		t.Set(Predicate(p), s.unmodelled)
	}
}

func (s *Store) inert(_, _, _ quad.Value) error { return nil }

func (s *Store) metadata(_, p, _ quad.Value) error {
	return ignored("metadata", nameOf(p))
}

func (s *Store) unmodelled(sub, p, _ quad.Value) error {
	return ignored("constructor", nameOf(p)+" on "+nameOf(sub))
}

// declareClass interns a class and installs the (rdf:type, class) handler
// that asserts membership.
func (s *Store) declareClass(class, _, _ quad.Value) error {
	ent, err := s.concept(class)
	if err != nil {
		return err
	}
	key := PredicateObject(vocab.Type, class)
	if s.table.Has(key) {
		return nil
	}
	s.table.Set(key, func(sub, _, _ quad.Value) error {
		ind, err := s.individual(sub)
		if err != nil {
			return err
		}
		return s.kb.InstanceOf(ind, ent)
	})
	s.logger.Debug("class declared", "class", nameOf(class))
	return nil
}

// typeAssertion handles rdf:type with an object that was never declared as
// a class: the object becomes a class and the subject its instance. Other
// RDF, RDFS and OWL vocabulary is not a class of the domain.
func (s *Store) typeAssertion(sub, p, class quad.Value) error {
	if !isResource(class) {
		return ignored("literal_class", quad.StringOf(class))
	}
	if iri, ok := class.(quad.IRI); ok && iri != vocab.Thing && iri != vocab.Nothing && vocab.Reserved(iri) {
		return ignored("reserved_class", nameOf(class)+" on "+nameOf(sub))
	}
	if err := s.declareClass(class, nil, nil); err != nil {
		return err
	}
	_, h := s.table.Lookup(sub, p, class)
	return h(sub, p, class)
}

func (s *Store) declareKind(kind dl.Kind) Handler {
	return func(p, _, _ quad.Value) error {
		_, err := s.declareProperty(p, kind)
		return err
	}
}

// declareProperty resolves p to kind, installs the handlers scoped to p,
// replays whatever p had buffered and completes the restrictions parked on
// p. It returns p's role.
func (s *Store) declareProperty(p quad.Value, kind dl.Kind) (dl.Entity, error) {
	if !isResource(p) {
		return dl.Entity{}, ignored("literal_property", quad.StringOf(p))
	}
	pp := s.property(p)
	switch pp.Kind() {
	case kind:
		role, _ := pp.Role()
		return role, nil
	case 0:
	default:
		return dl.Entity{}, fmt.Errorf("%w: %s is a %s, not a %s", ErrKindConflict, pp.Name(), pp.Kind(), kind)
	}

	name := nameOf(p)
	var role dl.Entity
	if kind == dl.KindObjectRole {
		role = s.kb.ObjectRole(name)
		s.objectProps[name] = struct{}{}
	} else {
		role = s.kb.DataRole(name)
		s.dataProps[name] = struct{}{}
	}

	scoped := map[quad.IRI]func(sub, obj quad.Value) error{
		vocab.Domain:             pp.Domain,
		vocab.Range:              pp.Range,
		vocab.SubPropertyOf:      pp.SubPropertyOf,
		vocab.EquivalentProperty: pp.EquivalentProperty,
	}
	for pred, op := range scoped {
		key := SubjectPredicate(p, pred)
		if !s.table.Has(key) {
			s.table.Set(key, func(sub, _, obj quad.Value) error { return op(sub, obj) })
		}
	}
	if !s.table.Has(Predicate(p)) {
		s.table.Set(Predicate(p), func(sub, _, obj quad.Value) error { return pp.Value(sub, obj) })
	}

	s.logger.Debug("property declared", "property", name, "kind", kind.String(), "pending", pp.Pending())
	err := pp.SetRole(kind, role)
	return role, errors.Join(err, s.resumeRestrictions(name))
}

// declareUntyped registers an rdf:Property whose kind is still unknown.
func (s *Store) declareUntyped(p, _, _ quad.Value) error {
	s.property(p)
	return nil
}

// declareAnnotation makes every later use of p inert.
func (s *Store) declareAnnotation(p, _, _ quad.Value) error {
	if !s.table.Has(Predicate(p)) {
		s.table.Set(Predicate(p), s.metadata)
	}
	return nil
}

// characteristic resolves p to an object property. The characteristic
// itself has no counterpart in the reasoner.
func (s *Store) characteristic(p, _, flag quad.Value) error {
	if _, err := s.declareProperty(p, dl.KindObjectRole); err != nil {
		return err
	}
	return ignored("property_characteristic", nameOf(flag)+" on "+nameOf(p))
}

func (s *Store) declareDatatype(dt, _, _ quad.Value) error {
	s.datatypes[nameOf(dt)] = struct{}{}
	return nil
}

// isDatatype reports whether v names a data range rather than a class.
func (s *Store) isDatatype(v quad.Value) bool {
	if iri, ok := v.(quad.IRI); ok && vocab.BuiltinDatatype(iri) {
		return true
	}
	_, ok := s.datatypes[nameOf(v)]
	return ok
}

func (s *Store) declareIndividual(sub, _, _ quad.Value) error {
	_, err := s.individual(sub)
	return err
}

func (s *Store) functional(p, _, obj quad.Value) error {
	if !isResource(p) {
		return ignored("literal_property", quad.StringOf(p))
	}
	return s.property(p).Functional(p, obj)
}

// inverseFunctional only applies to object properties, so it resolves p.
func (s *Store) inverseFunctional(p, _, obj quad.Value) error {
	if _, err := s.declareProperty(p, dl.KindObjectRole); err != nil {
		return err
	}
	return s.property(p).InverseFunctional(p, obj)
}

func (s *Store) roleFlag(set func(dl.Reasoner, dl.Entity) error) Handler {
	return func(p, _, _ quad.Value) error {
		role, err := s.declareProperty(p, dl.KindObjectRole)
		if err != nil {
			return err
		}
		return set(s.kb, role)
	}
}

// resolverOp routes a property axiom about sub to its PropertyParser. A
// sub-property or equivalent of an already resolved property takes its kind.
func (s *Store) resolverOp(op Op) Handler {
	return func(sub, _, obj quad.Value) error {
		if !isResource(sub) {
			return ignored("literal_property", quad.StringOf(sub))
		}
		pp := s.property(sub)
		if (op == OpSubPropertyOf || op == OpEquivalentProperty) && pp.Kind() == 0 && isResource(obj) {
			if other, ok := s.properties[nameOf(obj)]; ok && other.Kind() != 0 {
				if _, err := s.declareProperty(sub, other.Kind()); err != nil {
					return err
				}
			}
		}
		return pp.apply(op, sub, obj)
	}
}

func (s *Store) conceptPair(a, b quad.Value) (dl.Entity, dl.Entity, error) {
	ca, err := s.concept(a)
	if err != nil {
		return dl.Entity{}, dl.Entity{}, err
	}
	cb, err := s.concept(b)
	if err != nil {
		return dl.Entity{}, dl.Entity{}, err
	}
	return ca, cb, nil
}

func (s *Store) subClassOf(sub, _, obj quad.Value) error {
	a, b, err := s.conceptPair(sub, obj)
	if err != nil {
		return err
	}
	return s.kb.ImpliesConcepts(a, b)
}

func (s *Store) equivalentClass(sub, _, obj quad.Value) error {
	a, b, err := s.conceptPair(sub, obj)
	if err != nil {
		return err
	}
	return s.kb.EqualConcepts([]dl.Entity{a, b})
}

func (s *Store) disjointWith(sub, _, obj quad.Value) error {
	a, b, err := s.conceptPair(sub, obj)
	if err != nil {
		return err
	}
	return s.kb.DisjointConcepts([]dl.Entity{a, b})
}

func (s *Store) inverseOf(sub, _, obj quad.Value) error {
	r, err := s.declareProperty(sub, dl.KindObjectRole)
	if err != nil {
		return err
	}
	inv, err := s.declareProperty(obj, dl.KindObjectRole)
	if err != nil {
		return err
	}
	return s.kb.SetInverseRoles(r, inv)
}

func (s *Store) first(cell, _, value quad.Value) error {
	if !isResource(cell) {
		return ignored("literal_list", quad.StringOf(cell))
	}
	s.lists.SetValue(cell, value)
	return s.completeLists()
}

func (s *Store) rest(cell, _, next quad.Value) error {
	if !isResource(cell) || !isResource(next) {
		return ignored("literal_list", quad.StringOf(next))
	}
	if err := s.lists.Link(cell, next); err != nil {
		return err
	}
	return s.completeLists()
}

// awaitList registers consume for the list at head and runs it as soon as
// the list is complete, possibly right away.
func (s *Store) awaitList(head quad.Value, consume func([]quad.Value) error) error {
	if !isResource(head) {
		return ignored("literal_list", quad.StringOf(head))
	}
	name := nameOf(head)
	if _, dup := s.awaiting[name]; dup {
		return fmt.Errorf("%w: list %s is already consumed by another axiom", ErrContractViolation, name)
	}
	s.awaiting[name] = listConsumer{head: head, consume: consume}
	return s.completeLists()
}

// completeLists hands every list that became complete to its consumer.
func (s *Store) completeLists() error {
	if len(s.awaiting) == 0 {
		return nil
	}
	heads := make([]string, 0, len(s.awaiting))
	for name := range s.awaiting {
		heads = append(heads, name)
	}
	sort.Strings(heads)

	for _, name := range heads {
		lc := s.awaiting[name]
		if !s.lists.Ready(lc.head) {
			continue
		}
		delete(s.awaiting, name)
		items, err := Collect(s.lists, lc.head, func(v quad.Value) (quad.Value, error) { return v, nil })
		if err != nil {
			return err
		}
		s.metrics.ListsCollected.Inc()
		s.logger.Debug("list collected", "head", name, "items", len(items))
		if err := lc.consume(items); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) concepts(items []quad.Value) ([]dl.Entity, error) {
	out := make([]dl.Entity, len(items))
	for i, v := range items {
		c, err := s.concept(v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (s *Store) intersectionOf(sub, _, head quad.Value) error {
	c, err := s.concept(sub)
	if err != nil {
		return err
	}
	return s.awaitList(head, func(items []quad.Value) error {
		cs, err := s.concepts(items)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			return s.kb.EqualConcepts([]dl.Entity{c, s.kb.Top()})
		}
		both, err := s.kb.Intersection(cs)
		if err != nil {
			return err
		}
		return s.kb.EqualConcepts([]dl.Entity{c, both})
	})
}

func (s *Store) unionOf(sub, _, head quad.Value) error {
	c, err := s.concept(sub)
	if err != nil {
		return err
	}
	return s.awaitList(head, func(items []quad.Value) error {
		cs, err := s.concepts(items)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			return s.kb.EqualConcepts([]dl.Entity{c, s.kb.Concept(string(vocab.Nothing))})
		}
		either, err := s.kb.Union(cs)
		if err != nil {
			return err
		}
		return s.kb.EqualConcepts([]dl.Entity{c, either})
	})
}

func (s *Store) distinctMembers(_, _, head quad.Value) error {
	return s.awaitList(head, func(items []quad.Value) error {
		inds := make([]dl.Entity, len(items))
		for i, v := range items {
			ind, err := s.individual(v)
			if err != nil {
				return err
			}
			inds[i] = ind
		}
		if len(inds) < 2 {
			return nil
		}
		return s.kb.DifferentIndividuals(inds)
	})
}

func (s *Store) groupOf(node quad.Value) *groupAxiom {
	name := nameOf(node)
	g, ok := s.groups[name]
	if !ok {
		g = &groupAxiom{}
		s.groups[name] = g
	}
	return g
}

func (s *Store) groupType(node, _, kind quad.Value) error {
	g := s.groupOf(node)
	g.kind, _ = kind.(quad.IRI)
	return s.completeGroup(node)
}

func (s *Store) members(node, _, head quad.Value) error {
	if !isResource(head) {
		return ignored("literal_list", quad.StringOf(head))
	}
	s.groupOf(node).head = head
	return s.completeGroup(node)
}

// completeGroup consumes the members list once the axiom's type is known:
// different individuals, pairwise disjoint classes, or unsupported
// disjoint properties.
func (s *Store) completeGroup(node quad.Value) error {
	name := nameOf(node)
	g := s.groups[name]
	if g.kind == "" || g.head == nil {
		return nil
	}
	delete(s.groups, name)

	switch g.kind {
	case vocab.AllDifferent:
		return s.distinctMembers(node, nil, g.head)
	case vocab.AllDisjointClasses:
		return s.awaitList(g.head, func(items []quad.Value) error {
			cs, err := s.concepts(items)
			if err != nil {
				return err
			}
			if len(cs) < 2 {
				return nil
			}
			return s.kb.DisjointConcepts(cs)
		})
	}
	return ignored("disjoint_properties", name)
}

func (s *Store) restrictionOf(node quad.Value) *restriction {
	name := nameOf(node)
	r, ok := s.restrictions[name]
	if !ok {
		r = &restriction{node: node}
		s.restrictions[name] = r
	}
	return r
}

func (s *Store) onProperty(node, _, p quad.Value) error {
	if !isResource(node) || !isResource(p) {
		return ignored("literal_restriction", quad.StringOf(p))
	}
	s.restrictionOf(node).property = p
	return s.completeRestriction(node)
}

func (s *Store) someValuesFrom(node, _, filler quad.Value) error {
	if !isResource(node) || !isResource(filler) {
		return ignored("literal_restriction", quad.StringOf(filler))
	}
	s.restrictionOf(node).some = filler
	return s.completeRestriction(node)
}

func (s *Store) onClass(dataRange bool) Handler {
	return func(node, _, filler quad.Value) error {
		if !isResource(node) || !isResource(filler) {
			return ignored("literal_restriction", quad.StringOf(filler))
		}
		r := s.restrictionOf(node)
		r.onClass, r.dataRange = filler, dataRange
		return s.completeRestriction(node)
	}
}

func (s *Store) cardinality(node, p, value quad.Value) error {
	if !isResource(node) || !isLiteral(value) {
		return ignored("literal_restriction", quad.StringOf(value))
	}
	n, err := strconv.Atoi(strings.TrimSpace(lexical(value)))
	if err != nil || n < 0 {
		return ignored("cardinality", quad.StringOf(value)+" on "+nameOf(node))
	}
	r := s.restrictionOf(node)
	r.card, _ = p.(quad.IRI)
	r.n = n
	return s.completeRestriction(node)
}

func qualified(card quad.IRI) bool {
	switch card {
	case vocab.QualifiedCardinality, vocab.MinQualifiedCardinality, vocab.MaxQualifiedCardinality:
		return true
	}
	return false
}

// ready reports whether every part the restriction's shape needs is known.
func (r *restriction) ready() bool {
	if r.property == nil {
		return false
	}
	if r.some != nil {
		return true
	}
	return r.card != "" && (!qualified(r.card) || r.onClass != nil)
}

// completeRestriction defines the restriction node once its parts are
// known. A class filler implies an object property. Restrictions on data
// properties are not modelled, and an unqualified cardinality waits until
// its property's kind is known.
func (s *Store) completeRestriction(node quad.Value) error {
	name := nameOf(node)
	r := s.restrictions[name]
	if !r.ready() || r.parked {
		return nil
	}

	filler := r.some
	if filler == nil {
		filler = r.onClass
	}
	kind := s.property(r.property).Kind()
	switch {
	case r.dataRange || kind == dl.KindDataRole || (filler != nil && s.isDatatype(filler)):
		delete(s.restrictions, name)
		return ignored("data_restriction", nameOf(r.property)+" on "+name)
	case kind == 0 && filler == nil:
		r.parked = true
		pname := nameOf(r.property)
		s.parked[pname] = append(s.parked[pname], name)
		return nil
	}
	delete(s.restrictions, name)

	role, err := s.declareProperty(r.property, dl.KindObjectRole)
	if err != nil {
		return err
	}
	fill := s.kb.Top()
	if filler != nil {
		if fill, err = s.concept(filler); err != nil {
			return err
		}
	}
	c, err := s.concept(node)
	if err != nil {
		return err
	}
	if r.some != nil {
		some, err := s.kb.ObjectExists(role, fill)
		if err != nil {
			return err
		}
		return s.kb.EqualConcepts([]dl.Entity{c, some})
	}
	return s.cardinalityAxiom(c, r, role, fill)
}

// cardinalityAxiom maps a cardinality restriction onto the reasoner: ≤n is
// exact, ≥1 is an existential, = n keeps its upper bound and, for n > 0,
// the existential it implies.
func (s *Store) cardinalityAxiom(c dl.Entity, r *restriction, role, fill dl.Entity) error {
	switch r.card {
	case vocab.MaxCardinality, vocab.MaxQualifiedCardinality:
		most, err := s.kb.ObjectMaxCardinality(r.n, role, fill)
		if err != nil {
			return err
		}
		return s.kb.EqualConcepts([]dl.Entity{c, most})

	case vocab.Cardinality, vocab.QualifiedCardinality:
		most, err := s.kb.ObjectMaxCardinality(r.n, role, fill)
		if err != nil {
			return err
		}
		if err := s.kb.ImpliesConcepts(c, most); err != nil {
			return err
		}
		if r.n == 0 {
			return nil
		}
		some, err := s.kb.ObjectExists(role, fill)
		if err != nil {
			return err
		}
		return s.kb.ImpliesConcepts(c, some)
	}

	if r.n == 0 {
		return s.kb.EqualConcepts([]dl.Entity{c, s.kb.Top()})
	}
	some, err := s.kb.ObjectExists(role, fill)
	if err != nil {
		return err
	}
	if r.n == 1 {
		return s.kb.EqualConcepts([]dl.Entity{c, some})
	}
	return s.kb.ImpliesConcepts(c, some)
}

// resumeRestrictions completes the cardinality restrictions that waited for
// property to get its kind.
func (s *Store) resumeRestrictions(property string) error {
	nodes := s.parked[property]
	if len(nodes) == 0 {
		return nil
	}
	delete(s.parked, property)
	for _, name := range nodes {
		r, ok := s.restrictions[name]
		if !ok {
			continue
		}
		r.parked = false
		err := s.completeRestriction(r.node)
		if errors.Is(err, errIgnored) {
			s.skip(err, "restriction", name)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// propertyValue is the default handler: (s, p, o) asserts a value of p.
// An undeclared p takes its kind from the shape of its first value. RDF,
// RDFS and OWL terms without a handler are never treated as properties.
func (s *Store) propertyValue(sub, p, obj quad.Value) error {
	if iri, ok := p.(quad.IRI); ok && vocab.Reserved(iri) {
		return ignored("reserved_vocabulary", nameOf(p)+" on "+nameOf(sub))
	}
	pp := s.property(p)
	if pp.Kind() == 0 {
		kind := dl.KindObjectRole
		if isLiteral(obj) {
			kind = dl.KindDataRole
		}
		if _, err := s.declareProperty(p, kind); err != nil {
			return err
		}
	}
	return pp.Value(sub, obj)
}
