package ontology

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cayleygraph/quad/nquads"
)

// ReadNTriples streams N-Triples or N-Quads into sink. Graph labels are
// passed through; typed literals of known XSD types arrive as native quad
// values (quad.Int, quad.Bool, ...).
func ReadNTriples(ctx context.Context, r io.Reader, sink Sink) (int, error) {
	e := &emitter{ctx: ctx, sink: sink}
	qr := nquads.NewReader(r, false)
	for {
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			return e.n, nil
		}
		if err != nil {
			return e.n, fmt.Errorf("ontology.ReadNTriples: %w: %v", ErrSyntax, err)
		}
		if err := e.emit(q.Subject, q.Predicate, q.Object); err != nil {
			return e.n, fmt.Errorf("ontology.ReadNTriples: %w", err)
		}
	}
}
