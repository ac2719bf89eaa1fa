package ontology

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlstore/reasoner"
	"github.com/nodeadmin/owlstore/store"
	"github.com/nodeadmin/owlstore/vocab"
)

const ex = "http://example.org/"

type collector struct {
	quads []quad.Quad
}

func (c *collector) Add(q quad.Quad) error {
	c.quads = append(c.quads, q)
	return nil
}

func tr(s, p, o quad.Value) quad.Quad {
	return quad.Quad{Subject: s, Predicate: p, Object: o}
}

func seqOf(qs []quad.Quad) iter.Seq2[quad.Quad, error] {
	return func(yield func(quad.Quad, error) bool) {
		for _, q := range qs {
			if !yield(q, nil) {
				return
			}
		}
	}
}

const familyRDF = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:ex="http://example.org/"
         xml:base="http://example.org/">
  <owl:Class rdf:about="Father">
    <owl:intersectionOf rdf:parseType="Collection">
      <owl:Class rdf:about="Male"/>
      <owl:Class rdf:about="Parent"/>
    </owl:intersectionOf>
  </owl:Class>
  <owl:Class rdf:ID="Person"/>
  <rdf:Description rdf:about="tom" ex:nick="T">
    <rdf:type rdf:resource="Male"/>
    <ex:hasChild rdf:resource="ann"/>
    <ex:age rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">42</ex:age>
    <rdfs:label xml:lang="en">Tom</rdfs:label>
  </rdf:Description>
</rdf:RDF>
`

func TestReadRDFXML(t *testing.T) {
	var c collector
	n, err := ReadRDFXML(context.Background(), strings.NewReader(familyRDF), "", &c)
	require.NoError(t, err)

	l1, l2 := quad.BNode("genid1"), quad.BNode("genid2")
	want := []quad.Quad{
		tr(quad.IRI(ex+"Father"), vocab.Type, vocab.OWLClass),
		tr(quad.IRI(ex+"Male"), vocab.Type, vocab.OWLClass),
		tr(quad.IRI(ex+"Parent"), vocab.Type, vocab.OWLClass),
		tr(quad.IRI(ex+"Father"), vocab.IntersectionOf, l1),
		tr(l1, vocab.First, quad.IRI(ex+"Male")),
		tr(l1, vocab.Rest, l2),
		tr(l2, vocab.First, quad.IRI(ex+"Parent")),
		tr(l2, vocab.Rest, vocab.Nil),
		tr(quad.IRI(ex+"#Person"), vocab.Type, vocab.OWLClass),
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"nick"), quad.String("T")),
		tr(quad.IRI(ex+"tom"), vocab.Type, quad.IRI(ex+"Male")),
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"hasChild"), quad.IRI(ex+"ann")),
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"age"), quad.TypedString{Value: "42", Type: vocab.Integer}),
		tr(quad.IRI(ex+"tom"), vocab.Label, quad.LangString{Value: "Tom", Lang: "en"}),
	}
	assert.Equal(t, want, c.quads)
	assert.Equal(t, len(want), n)
}

func TestReadRDFXML_NestedNodes(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/">
  <rdf:Description rdf:about="http://example.org/tom">
    <ex:knows>
      <ex:Person rdf:nodeID="x1">
        <ex:name>Ann</ex:name>
      </ex:Person>
    </ex:knows>
    <ex:address rdf:parseType="Resource">
      <ex:city>Paris</ex:city>
    </ex:address>
    <ex:friends rdf:parseType="Collection"/>
  </rdf:Description>
</rdf:RDF>`

	var c collector
	_, err := ReadRDFXML(context.Background(), strings.NewReader(doc), "", &c)
	require.NoError(t, err)

	tom, x1, addr := quad.IRI(ex+"tom"), quad.BNode("node-x1"), quad.BNode("genid1")
	assert.Equal(t, []quad.Quad{
		tr(x1, vocab.Type, quad.IRI(ex+"Person")),
		tr(x1, quad.IRI(ex+"name"), quad.String("Ann")),
		tr(tom, quad.IRI(ex+"knows"), x1),
		tr(tom, quad.IRI(ex+"address"), addr),
		tr(addr, quad.IRI(ex+"city"), quad.String("Paris")),
		tr(tom, quad.IRI(ex+"friends"), vocab.Nil),
	}, c.quads)
}

func TestReadRDFXML_NodeIDsDoNotCollide(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/">
  <rdf:Description rdf:about="http://example.org/tom">
    <ex:address rdf:parseType="Resource">
      <ex:city>Paris</ex:city>
    </ex:address>
    <ex:knows rdf:nodeID="genid1"/>
  </rdf:Description>
  <rdf:Description rdf:nodeID="genid1">
    <ex:name>Ann</ex:name>
  </rdf:Description>
</rdf:RDF>`

	var c collector
	_, err := ReadRDFXML(context.Background(), strings.NewReader(doc), "", &c)
	require.NoError(t, err)

	tom, addr, ann := quad.IRI(ex+"tom"), quad.BNode("genid1"), quad.BNode("node-genid1")
	assert.Equal(t, []quad.Quad{
		tr(tom, quad.IRI(ex+"address"), addr),
		tr(addr, quad.IRI(ex+"city"), quad.String("Paris")),
		tr(tom, quad.IRI(ex+"knows"), ann),
		tr(ann, quad.IRI(ex+"name"), quad.String("Ann")),
	}, c.quads)
}

func TestReadRDFXML_Errors(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		var c collector
		_, err := ReadRDFXML(context.Background(), strings.NewReader(`<rdf:RDF xmlns:rdf="`+nsRDF+`"><rdf:Description>`), "", &c)
		assert.ErrorIs(t, err, ErrSyntax)
	})

	t.Run("sink", func(t *testing.T) {
		boom := errors.New("sink full")
		sink := SinkFunc(func(quad.Quad) error { return boom })
		n, err := ReadRDFXML(context.Background(), strings.NewReader(familyRDF), "", sink)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, n)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var c collector
		_, err := ReadRDFXML(ctx, strings.NewReader(familyRDF), "", &c)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, c.quads)
	})
}

func TestReadRDFXML_IntoStore(t *testing.T) {
	s := store.New(reasoner.NewKernel(nil))
	_, err := ReadRDFXML(context.Background(), strings.NewReader(familyRDF), "", s)
	require.NoError(t, err)
	require.NoError(t, s.Add(tr(quad.IRI(ex+"tom"), vocab.Type, quad.IRI(ex+"Parent"))))

	var fathers []quad.Value
	for q, err := range s.Triples(tr(nil, vocab.Type, quad.IRI(ex+"Father"))) {
		require.NoError(t, err)
		fathers = append(fathers, q.Subject)
	}
	assert.Equal(t, []quad.Value{quad.IRI(ex + "tom")}, fathers)
	assert.Empty(t, s.Unresolved())
}

const chebiOBO = `format-version: 1.2
data-version: 2024-01
ontology: chebi

[Term]
id: CHEBI:1
name: acid
def: "A proton donor." []
synonym: "acids" EXACT []

[Term]
id: CHEBI:2
name: strong acid
is_a: CHEBI:1 ! acid
relationship: has_role CHEBI:3 ! catalyst

[Term]
id: CHEBI:4
name: gone
is_obsolete: true

[Typedef]
id: has_role
name: has role
is_transitive: true
`

func TestReadOBO(t *testing.T) {
	var c collector
	n, err := ReadOBO(context.Background(), strings.NewReader(chebiOBO), "", &c)
	require.NoError(t, err)
	assert.Equal(t, 22, n)
	require.Len(t, c.quads, 22)

	chebi := func(id string) quad.IRI { return quad.IRI(nsOBO + "CHEBI_" + id) }
	hasRole := quad.IRI(nsOBO + "chebi#has_role")
	r := quad.BNode("obo1")

	assert.Equal(t, tr(quad.IRI(nsOBO+"chebi.owl"), vocab.Type, vocab.Ontology), c.quads[0])
	for _, q := range []quad.Quad{
		tr(oboDefinition, vocab.Type, vocab.AnnotationProperty),
		tr(chebi("1"), vocab.Type, vocab.OWLClass),
		tr(chebi("1"), vocab.Label, quad.String("acid")),
		tr(chebi("1"), oboDefinition, quad.String("A proton donor.")),
		tr(chebi("1"), synonymScopes["EXACT"], quad.String("acids")),
		tr(chebi("2"), vocab.SubClassOf, chebi("1")),
		tr(r, vocab.Type, vocab.Restriction),
		tr(r, vocab.OnProperty, hasRole),
		tr(r, vocab.SomeValuesFrom, chebi("3")),
		tr(chebi("2"), vocab.SubClassOf, r),
		tr(hasRole, vocab.Type, vocab.ObjectProperty),
		tr(hasRole, vocab.Type, vocab.TransitiveProperty),
	} {
		assert.Contains(t, c.quads, q)
	}
	for _, q := range c.quads {
		assert.NotEqual(t, chebi("4"), q.Subject, "obsolete terms are dropped")
	}
}

func TestReadOBO_IntersectionAndBase(t *testing.T) {
	doc := `ontology: go

[Term]
id: GO:3
intersection_of: GO:1
intersection_of: part_of GO:2 ! thing
disjoint_from: GO:4
`
	var c collector
	_, err := ReadOBO(context.Background(), strings.NewReader(doc), "http://example.org/rel/", &c)
	require.NoError(t, err)

	gol := func(id string) quad.IRI { return quad.IRI(nsOBO + "GO_" + id) }
	r, l1, l2 := quad.BNode("obo1"), quad.BNode("obo2"), quad.BNode("obo3")
	assert.Equal(t, []quad.Quad{
		tr(gol("3"), vocab.Type, vocab.OWLClass),
		tr(gol("3"), vocab.DisjointWith, gol("4")),
		tr(r, vocab.Type, vocab.Restriction),
		tr(r, vocab.OnProperty, quad.IRI("http://example.org/rel/part_of")),
		tr(r, vocab.SomeValuesFrom, gol("2")),
		tr(gol("3"), vocab.IntersectionOf, l1),
		tr(l1, vocab.First, gol("1")),
		tr(l1, vocab.Rest, l2),
		tr(l2, vocab.First, r),
		tr(l2, vocab.Rest, vocab.Nil),
	}, c.quads[7:])
}

func TestReadOBO_IntoStore(t *testing.T) {
	kb := reasoner.NewKernel(nil)
	s := store.New(kb)
	_, err := ReadOBO(context.Background(), strings.NewReader(chebiOBO), "", s)
	require.NoError(t, err)
	assert.Empty(t, s.Unresolved())

	sub, err := kb.IsSubsumedBy(kb.Concept(nsOBO+"CHEBI_2"), kb.Concept(nsOBO+"CHEBI_1"))
	require.NoError(t, err)
	assert.True(t, sub)

	sub, err = kb.IsSubsumedBy(kb.Concept(nsOBO+"CHEBI_1"), kb.Concept(nsOBO+"CHEBI_2"))
	require.NoError(t, err)
	assert.False(t, sub)
}

func TestReadNTriples(t *testing.T) {
	doc := `<http://example.org/tom> <http://example.org/knows> <http://example.org/ann> .
_:b1 <http://www.w3.org/2000/01/rdf-schema#label> "Bee"@en .
<http://example.org/tom> <http://example.org/name> "Tom" <http://example.org/graph> .
`
	var c collector
	n, err := ReadNTriples(context.Background(), strings.NewReader(doc), &c)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []quad.Quad{
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"knows"), quad.IRI(ex+"ann")),
		tr(quad.BNode("b1"), vocab.Label, quad.LangString{Value: "Bee", Lang: "en"}),
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"name"), quad.String("Tom")),
	}, c.quads)

	_, err = ReadNTriples(context.Background(), strings.NewReader("<a> <b\n"), &c)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestWriteNQuads_RoundTrip(t *testing.T) {
	qs := []quad.Quad{
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"knows"), quad.IRI(ex+"ann")),
		tr(quad.BNode("b1"), vocab.Label, quad.LangString{Value: "Bee", Lang: "en"}),
		tr(quad.IRI(ex+"tom"), quad.IRI(ex+"name"), quad.String("Tom \"T\"")),
	}

	var buf bytes.Buffer
	n, err := WriteNQuads(&buf, seqOf(qs))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	var c collector
	_, err = ReadNTriples(context.Background(), &buf, &c)
	require.NoError(t, err)
	assert.Equal(t, qs, c.quads)
}

func TestWriteNQuads_SequenceError(t *testing.T) {
	boom := errors.New("query failed")
	seq := func(yield func(quad.Quad, error) bool) {
		if !yield(tr(quad.IRI(ex+"a"), quad.IRI(ex+"b"), quad.IRI(ex+"c")), nil) {
			return
		}
		yield(quad.Quad{}, boom)
	}

	var buf bytes.Buffer
	n, err := WriteNQuads(&buf, seq)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path, explicit string
		want           string
		wantErr        bool
	}{
		{"chebi.obo", "auto", FormatOBO, false},
		{"chebi.OWL", "", FormatRDFXML, false},
		{"family.rdf", "auto", FormatRDFXML, false},
		{"dump.nt", "auto", FormatNTriples, false},
		{"dump.nq", "auto", FormatNTriples, false},
		{"whatever.txt", "obo", FormatOBO, false},
		{"whatever.txt", "owl", FormatRDFXML, false},
		{"whatever.txt", "auto", "", true},
		{"x.obo", "turtle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.explicit, func(t *testing.T) {
			got, err := DetectFormat(tt.path, tt.explicit)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	var c collector
	n, err := Load(context.Background(), strings.NewReader(chebiOBO), FormatOBO, "", &c)
	require.NoError(t, err)
	assert.Equal(t, 22, n)

	_, err = Load(context.Background(), strings.NewReader(""), "turtle", "", &c)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
