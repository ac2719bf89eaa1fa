package store

import "github.com/cayleygraph/quad"

// KeyKind tags the shape of a ParserTable key. Lookup tries the kinds from
// most to least specific.
type KeyKind uint8

const (
	KeyDefault KeyKind = iota
	KeyPredicate
	KeySubjectPredicate
	KeyPredicateObject
)

func (k KeyKind) String() string {
	switch k {
	case KeyPredicateObject:
		return "predicate_object"
	case KeySubjectPredicate:
		return "subject_predicate"
	case KeyPredicate:
		return "predicate"
	default:
		return "default"
	}
}

// Key selects a handler. Build one with PredicateObject, SubjectPredicate,
// Predicate or Default.
type Key struct {
	Kind KeyKind
	a, b string
}

func PredicateObject(p, o quad.Value) Key {
	return Key{Kind: KeyPredicateObject, a: nameOf(p), b: nameOf(o)}
}

func SubjectPredicate(s, p quad.Value) Key {
	return Key{Kind: KeySubjectPredicate, a: nameOf(s), b: nameOf(p)}
}

func Predicate(p quad.Value) Key {
	return Key{Kind: KeyPredicate, a: nameOf(p)}
}

func Default() Key { return Key{} }

// Handler consumes one triple.
type Handler func(s, p, o quad.Value) error

// ParserTable maps keys to handlers and always holds a default handler.
type ParserTable struct {
	handlers map[Key]Handler
}

func NewParserTable(fallback Handler) *ParserTable {
	return &ParserTable{handlers: map[Key]Handler{Default(): fallback}}
}

// Set installs h under k, replacing any previous handler. A nil handler
// removes the entry; the default entry cannot be removed.
func (t *ParserTable) Set(k Key, h Handler) {
	if h == nil {
		if k != Default() {
			delete(t.handlers, k)
		}
		return
	}
	t.handlers[k] = h
}

func (t *ParserTable) Has(k Key) bool {
	_, ok := t.handlers[k]
	return ok
}

// Lookup returns the most specific handler for the triple.
func (t *ParserTable) Lookup(s, p, o quad.Value) (Key, Handler) {
	for _, k := range [...]Key{PredicateObject(p, o), SubjectPredicate(s, p), Predicate(p)} {
		if h, ok := t.handlers[k]; ok {
			return k, h
		}
	}
	return Default(), t.handlers[Default()]
}

// Len returns the number of installed handlers, the default included.
func (t *ParserTable) Len() int { return len(t.handlers) }
