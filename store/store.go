// Package store routes RDF triples into a description-logic reasoner.
//
// Each triple is dispatched through a ParserTable to a handler chosen by
// key specificity: (predicate, object), then (subject, predicate), then
// predicate, then the default property-value handler. Declarations install
// more specific handlers as they arrive. Property axioms wait in a
// PropertyParser until the property is known to be object- or data-valued,
// and RDF lists are rebuilt by an RDFList once their last link arrives.
package store

import (
	"errors"
	"iter"
	"log/slog"
	"sort"
	"sync"

	"github.com/cayleygraph/quad"

	"github.com/nodeadmin/owlstore/dl"
	"github.com/nodeadmin/owlstore/vocab"
)

// Store adapts a dl.Reasoner to a triple interface. It is safe for
// concurrent use: each Add runs its whole handler cascade under one lock.
type Store struct {
	mu      sync.Mutex
	kb      dl.Reasoner
	logger  *slog.Logger
	metrics *Metrics

	table      *ParserTable
	lists      *RDFList
	properties map[string]*PropertyParser

	objectProps map[string]struct{}
	dataProps   map[string]struct{}
	classes     map[string]struct{}
	classOrder  []quad.Value
	individuals map[string]struct{}

	// values holds data property literals, which the reasoner does not
	// report back: property name -> subject name -> literals.
	values map[string]map[string][]quad.Value

	awaiting     map[string]listConsumer
	restrictions map[string]*restriction
	groups       map[string]*groupAxiom
	datatypes    map[string]struct{}

	// parked maps a property to the restrictions waiting for its kind.
	parked map[string][]string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the metrics sink; unregistered metrics are used otherwise.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a store feeding kb.
func New(kb dl.Reasoner, opts ...Option) *Store {
	s := &Store{
		kb:           kb,
		lists:        NewRDFList(),
		properties:   make(map[string]*PropertyParser),
		objectProps:  make(map[string]struct{}),
		dataProps:    make(map[string]struct{}),
		classes:      make(map[string]struct{}),
		individuals:  make(map[string]struct{}),
		values:       make(map[string]map[string][]quad.Value),
		awaiting:     make(map[string]listConsumer),
		restrictions: make(map[string]*restriction),
		groups:       make(map[string]*groupAxiom),
		datatypes:    make(map[string]struct{}),
		parked:       make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.table = NewParserTable(s.propertyValue)
	s.installBuiltins()
	return s
}

// Reasoner returns the reasoner the store feeds.
func (s *Store) Reasoner() dl.Reasoner { return s.kb }

// Add dispatches one triple. Contract violations and reasoner errors are
// returned; constructs the store does not model are logged and counted.
func (s *Store) Add(q quad.Quad) error {
	sub, pred, obj := normalize(q.Subject), normalize(q.Predicate), normalize(q.Object)
	if sub == nil || pred == nil || obj == nil {
		return wrap(ErrContractViolation, "Add", "read incomplete triple")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !isResource(sub) || !isResource(pred) {
		return s.report(ignored("literal_term", q.String()), q)
	}

	key, h := s.table.Lookup(sub, pred, obj)
	s.metrics.Triples.WithLabelValues(key.Kind.String()).Inc()

	if err := h(sub, pred, obj); err != nil {
		if errors.Is(err, errIgnored) {
			return s.report(err, q)
		}
		return wrap(err, "Add", "handle "+nameOf(pred))
	}
	return nil
}

func (s *Store) report(err error, q quad.Quad) error {
	s.skip(err, "triple", q.String())
	return nil
}

// skip logs and counts an ignored construct.
func (s *Store) skip(err error, args ...any) {
	reason := "unknown"
	var ig *ignoredError
	if errors.As(err, &ig) {
		reason = ig.reason
	}
	s.metrics.Unsupported.WithLabelValues(reason).Inc()
	if reason == "metadata" {
		s.logger.Debug("ignoring annotation", append(args, "error", err)...)
		return
	}
	s.logger.Warn("ignoring unsupported construct", append(args, "reason", reason, "error", err)...)
}

// Remove is not supported; it logs the pattern and does nothing.
func (s *Store) Remove(pattern quad.Quad) {
	s.metrics.Unsupported.WithLabelValues("remove").Inc()
	s.logger.Warn("triple removal is not supported", "pattern", pattern.String())
}

// Unresolved returns the properties that still hold buffered axioms because
// their kind was never determined.
func (s *Store) Unresolved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for name, pp := range s.properties {
		if pp.Pending() > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Triples yields the triples matching pattern. The predicate must be bound;
// a nil subject or object matches anything. The sequence re-runs its
// queries each time it is iterated.
func (s *Store) Triples(pattern quad.Quad) iter.Seq2[quad.Quad, error] {
	return func(yield func(quad.Quad, error) bool) {
		pred := normalize(pattern.Predicate)
		if pred == nil {
			yield(quad.Quad{}, wrap(ErrUnboundPredicate, "Triples", "match pattern"))
			return
		}
		sub, obj := normalize(pattern.Subject), normalize(pattern.Object)

		if pred == vocab.Type {
			s.typeTriples(sub, obj, yield)
			return
		}

		subjects, err := s.subjectsFor(pred, sub)
		if err != nil {
			yield(quad.Quad{}, wrap(err, "Triples", "enumerate subjects"))
			return
		}
		for _, subject := range subjects {
			objects, err := s.objectsFor(subject, pred)
			if err != nil {
				yield(quad.Quad{}, wrap(err, "Triples", "enumerate objects"))
				return
			}
			for _, o := range objects {
				if obj != nil && o.String() != obj.String() {
					continue
				}
				if !yield(quad.Quad{Subject: subject, Predicate: pred, Object: o}, nil) {
					return
				}
			}
		}
	}
}

func (s *Store) typeTriples(sub, class quad.Value, yield func(quad.Quad, error) bool) {
	s.mu.Lock()
	var classes []quad.Value
	switch {
	case class == nil:
		classes = append(classes, s.classOrder...)
	case class == vocab.Thing:
		classes = append(classes, class)
	default:
		if _, ok := s.classes[nameOf(class)]; ok {
			classes = append(classes, class)
		}
	}
	s.mu.Unlock()

	for _, c := range classes {
		members, err := s.instances(c)
		if err != nil {
			yield(quad.Quad{}, wrap(err, "Triples", "enumerate instances"))
			return
		}
		for _, m := range members {
			if sub != nil && nameOf(sub) != nameOf(m) {
				continue
			}
			if !yield(quad.Quad{Subject: m, Predicate: vocab.Type, Object: c}, nil) {
				return
			}
		}
	}
}

func (s *Store) instances(class quad.Value) ([]quad.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, err := s.kb.Instances(s.kb.Concept(nameOf(class)))
	if err != nil {
		return nil, err
	}
	out := make([]quad.Value, len(members))
	for i, m := range members {
		out[i] = termOf(m.Name)
	}
	return out, nil
}

// kindOf returns the resolved kind of a property, or zero.
func (s *Store) kindOf(pred quad.Value) dl.Kind {
	name := nameOf(pred)
	if _, ok := s.objectProps[name]; ok {
		return dl.KindObjectRole
	}
	if _, ok := s.dataProps[name]; ok {
		return dl.KindDataRole
	}
	return 0
}

// subjectsFor returns sub when bound, otherwise the instances of the
// property's domain.
func (s *Store) subjectsFor(pred, sub quad.Value) ([]quad.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := s.kindOf(pred)
	if kind == 0 {
		return nil, nil
	}
	if sub != nil {
		return []quad.Value{sub}, nil
	}

	role, _ := s.properties[nameOf(pred)].Role()
	var domain []dl.Entity
	var err error
	if kind == dl.KindObjectRole {
		domain, err = s.kb.ObjectDomain(role)
	} else {
		domain, err = s.kb.DataDomain(role)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []quad.Value
	for _, d := range domain {
		members, err := s.kb.Instances(d)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if _, dup := seen[m.Name]; dup {
				continue
			}
			seen[m.Name] = struct{}{}
			out = append(out, termOf(m.Name))
		}
	}
	return out, nil
}

func (s *Store) objectsFor(sub, pred quad.Value) ([]quad.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.kindOf(pred) {
	case dl.KindDataRole:
		cached := s.values[nameOf(pred)][nameOf(sub)]
		return append([]quad.Value(nil), cached...), nil
	case dl.KindObjectRole:
		if _, known := s.individuals[nameOf(sub)]; !known {
			return nil, nil
		}
		role, _ := s.properties[nameOf(pred)].Role()
		fillers, err := s.kb.RoleFillers(s.kb.Individual(nameOf(sub)), role)
		if err != nil {
			return nil, err
		}
		out := make([]quad.Value, len(fillers))
		for i, f := range fillers {
			out[i] = termOf(f.Name)
		}
		return out, nil
	}
	return nil, nil
}

// The methods below implement propertyEnv and are called with s.mu held.

func (s *Store) reasoner() dl.Reasoner { return s.kb }

func (s *Store) concept(v quad.Value) (dl.Entity, error) {
	if !isResource(v) {
		return dl.Entity{}, ignored("literal_class", quad.StringOf(v))
	}
	name := nameOf(v)
	if _, ok := v.(quad.IRI); ok {
		if _, seen := s.classes[name]; !seen {
			s.classes[name] = struct{}{}
			s.classOrder = append(s.classOrder, v)
		}
	}
	return s.kb.Concept(name), nil
}

func (s *Store) individual(v quad.Value) (dl.Entity, error) {
	if !isResource(v) {
		return dl.Entity{}, ignored("literal_individual", quad.StringOf(v))
	}
	name := nameOf(v)
	s.individuals[name] = struct{}{}
	return s.kb.Individual(name), nil
}

func (s *Store) relatedRole(v quad.Value, kind dl.Kind) (dl.Entity, error) {
	return s.declareProperty(v, kind)
}

func (s *Store) cacheValue(p, sub, o quad.Value) {
	pname, sname := nameOf(p), nameOf(sub)
	bySubject := s.values[pname]
	if bySubject == nil {
		bySubject = make(map[string][]quad.Value)
		s.values[pname] = bySubject
	}
	for _, existing := range bySubject[sname] {
		if existing.String() == o.String() {
			return
		}
	}
	bySubject[sname] = append(bySubject[sname], o)
}

func (s *Store) deferred(name string, op Op) {
	s.metrics.Deferred.Inc()
	s.logger.Debug("property axiom deferred", "property", name, "op", op.String())
}

func (s *Store) replayed(name string, op Op) {
	s.metrics.Replayed.Inc()
	s.logger.Debug("property axiom replayed", "property", name, "op", op.String())
}

func (s *Store) skipped(name string, op Op, err error) {
	s.skip(err, "property", name, "op", op.String())
}

// property returns the parser for a predicate, creating it on first use.
func (s *Store) property(p quad.Value) *PropertyParser {
	name := nameOf(p)
	pp, ok := s.properties[name]
	if !ok {
		pp = newPropertyParser(p, s)
		s.properties[name] = pp
	}
	return pp
}
