package store

import (
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"
)

// normalize expands prefixed IRIs so that "owl:Class" and the full IRI are
// the same key.
func normalize(v quad.Value) quad.Value {
	if iri, ok := v.(quad.IRI); ok {
		return iri.Full()
	}
	return v
}

// nameOf returns the kernel name for a resource term: the full IRI, or
// "_:id" for a blank node.
func nameOf(v quad.Value) string {
	switch t := v.(type) {
	case quad.IRI:
		return string(t.Full())
	case quad.BNode:
		return "_:" + string(t)
	case nil:
		return ""
	default:
		return t.String()
	}
}

// termOf reverses nameOf.
func termOf(name string) quad.Value {
	if id, ok := strings.CutPrefix(name, "_:"); ok {
		return quad.BNode(id)
	}
	return quad.IRI(name)
}

// isResource reports whether v can name an entity.
func isResource(v quad.Value) bool {
	switch v.(type) {
	case quad.IRI, quad.BNode:
		return true
	}
	return false
}

func isLiteral(v quad.Value) bool {
	return v != nil && !isResource(v)
}

// lexical returns the lexical form of a literal.
func lexical(v quad.Value) string {
	switch t := v.(type) {
	case quad.String:
		return string(t)
	case quad.TypedString:
		return string(t.Value)
	case quad.LangString:
		return string(t.Value)
	default:
		return fmt.Sprint(quad.NativeOf(v))
	}
}
