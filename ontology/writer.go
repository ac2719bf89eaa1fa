package ontology

import (
	"bufio"
	"fmt"
	"io"
	"iter"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
)

const writerBufferSize = 256 * 1024 // 256 KB

// WriteNQuads writes every triple of seq as an N-Quads line and returns the
// number written. The first error yielded by seq stops the output.
func WriteNQuads(w io.Writer, seq iter.Seq2[quad.Quad, error]) (int, error) {
	bw := bufio.NewWriterSize(w, writerBufferSize)
	qw := nquads.NewWriter(bw)

	n := 0
	for q, err := range seq {
		if err != nil {
			return n, fmt.Errorf("ontology.WriteNQuads: read triples failed: %w", err)
		}
		if err := qw.WriteQuad(q); err != nil {
			return n, fmt.Errorf("ontology.WriteNQuads: write failed: %w", err)
		}
		n++
	}
	if err := qw.Close(); err != nil {
		return n, fmt.Errorf("ontology.WriteNQuads: close failed: %w", err)
	}
	return n, bw.Flush()
}

