// Package ontology reads ontology files as streams of RDF triples and
// writes triples back out as N-Quads.
//
// Every reader pushes triples into a Sink as it goes, so a file is never
// held in memory as a whole. A store.Store is a Sink.
package ontology

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cayleygraph/quad"
)

// Input formats.
const (
	FormatAuto     = "auto"
	FormatRDFXML   = "rdfxml"
	FormatNTriples = "ntriples"
	FormatOBO      = "obo"
)

var (
	// ErrUnknownFormat is returned when a format cannot be detected or is
	// not supported.
	ErrUnknownFormat = errors.New("unknown input format")

	// ErrSyntax marks malformed input.
	ErrSyntax = errors.New("syntax error")
)

// Sink receives triples from a reader.
type Sink interface {
	Add(q quad.Quad) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(q quad.Quad) error

func (f SinkFunc) Add(q quad.Quad) error { return f(q) }

// DetectFormat returns explicit unless it is "auto" or empty, in which case
// the format is taken from the file extension.
func DetectFormat(path, explicit string) (string, error) {
	switch explicit {
	case FormatRDFXML, FormatNTriples, FormatOBO:
		return explicit, nil
	case "owl", "xml", "rdf":
		return FormatRDFXML, nil
	case "nt", "nq", "nquads":
		return FormatNTriples, nil
	case "", FormatAuto:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, explicit)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obo":
		return FormatOBO, nil
	case ".owl", ".xml", ".rdf":
		return FormatRDFXML, nil
	case ".nt", ".nq":
		return FormatNTriples, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %q", ErrUnknownFormat, path)
}

// Load reads r in the given format into sink and returns the number of
// triples delivered. base resolves relative IRIs in RDF/XML and names
// unprefixed OBO identifiers.
func Load(ctx context.Context, r io.Reader, format, base string, sink Sink) (int, error) {
	switch format {
	case FormatRDFXML:
		return ReadRDFXML(ctx, r, base, sink)
	case FormatNTriples:
		return ReadNTriples(ctx, r, sink)
	case FormatOBO:
		return ReadOBO(ctx, r, base, sink)
	}
	return 0, fmt.Errorf("ontology.Load: %w: %q", ErrUnknownFormat, format)
}

// emitter counts what it passes on and checks for cancellation.
type emitter struct {
	ctx  context.Context
	sink Sink
	n    int
}

func (e *emitter) emit(s, p, o quad.Value) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	q := quad.Quad{Subject: s, Predicate: p, Object: o}
	if err := e.sink.Add(q); err != nil {
		return fmt.Errorf("add %s: %w", q, err)
	}
	e.n++
	return nil
}
