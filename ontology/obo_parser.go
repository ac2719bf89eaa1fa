package ontology

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/nodeadmin/owlstore/vocab"
)

const scannerBufferSize = 1 << 20 // 1 MB

const (
	nsOBO      = "http://purl.obolibrary.org/obo/"
	nsOBOInOwl = "http://www.geneontology.org/formats/oboInOwl#"

	oboDefinition quad.IRI = nsOBO + "IAO_0000115"
	oboXref       quad.IRI = nsOBOInOwl + "hasDbXref"
)

var synonymScopes = map[string]quad.IRI{
	"EXACT":   nsOBOInOwl + "hasExactSynonym",
	"BROAD":   nsOBOInOwl + "hasBroadSynonym",
	"NARROW":  nsOBOInOwl + "hasNarrowSynonym",
	"RELATED": nsOBOInOwl + "hasRelatedSynonym",
}

// internPool avoids duplicate string allocations for repeated values.
type internPool struct {
	m map[string]string
}

func newInternPool() *internPool {
	return &internPool{m: make(map[string]string, 64)}
}

func (p *internPool) get(s string) string {
	if v, ok := p.m[s]; ok {
		return v
	}
	p.m[s] = s
	return s
}

type annotation struct {
	p quad.IRI
	v string
}

type header struct {
	formatVersion string
	dataVersion   string
	ontology      string
}

// obo translates OBO stanzas into OWL triples.
type obo struct {
	*emitter
	base  string
	hdr   header
	bnode int
}

// ReadOBO streams an OBO flat file into sink as OWL triples. Terms become
// classes and Typedefs object properties; is_a, relationship,
// intersection_of, disjoint_from and equivalent_to become class axioms.
// Obsolete stanzas are dropped. Unprefixed identifiers are resolved against
// base, or against the ontology's PURL when base is empty.
func ReadOBO(ctx context.Context, r io.Reader, base string, sink Sink) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	o := &obo{emitter: &emitter{ctx: ctx, sink: sink}, base: base}
	pool := newInternPool()

	// Parse header
	stanza := ""
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] == '[' {
			stanza = line
			break
		}
		parseHeaderLine(&o.hdr, line)
	}
	if err := o.emitHeader(); err != nil {
		return o.n, fmt.Errorf("ontology.ReadOBO: %w", err)
	}

	// Parse stanzas
	for stanza != "" {
		var err error
		switch stanza {
		case "[Term]":
			err = o.emitTerm(parseTerm(scanner, pool))
		case "[Typedef]":
			err = o.emitTypeDef(parseTypeDef(scanner, pool))
		default:
			skipStanza(scanner)
		}
		if err != nil {
			return o.n, fmt.Errorf("ontology.ReadOBO: %w", err)
		}
		stanza = nextStanza(scanner)
	}

	if err := scanner.Err(); err != nil {
		return o.n, fmt.Errorf("ontology.ReadOBO: read failed: %w", err)
	}
	return o.n, nil
}

func nextStanza(scanner *bufio.Scanner) string {
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "[") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func skipStanza(scanner *bufio.Scanner) {
	for scanner.Scan() {
		if scanner.Text() == "" {
			return
		}
	}
}

func parseHeaderLine(h *header, line string) {
	key, val, ok := strings.Cut(line, ": ")
	if !ok {
		return
	}
	switch key {
	case "format-version":
		h.formatVersion = val
	case "data-version":
		h.dataVersion = val
	case "ontology":
		h.ontology = val
	}
}

// iri maps an OBO identifier to its IRI: CHEBI:12345 becomes
// http://purl.obolibrary.org/obo/CHEBI_12345.
func (o *obo) iri(id string) quad.IRI {
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return quad.IRI(id)
	}
	if prefix, local, ok := strings.Cut(id, ":"); ok && prefix != "" {
		return quad.IRI(nsOBO + prefix + "_" + local)
	}
	if o.base != "" {
		return quad.IRI(o.base + id)
	}
	return quad.IRI(nsOBO + o.hdr.ontology + "#" + id)
}

func (o *obo) blank() quad.BNode {
	o.bnode++
	return quad.BNode(fmt.Sprintf("obo%d", o.bnode))
}

func (o *obo) emitHeader() error {
	if o.hdr.ontology != "" {
		ont := quad.IRI(nsOBO + o.hdr.ontology + ".owl")
		if err := o.emit(ont, vocab.Type, vocab.Ontology); err != nil {
			return err
		}
		if o.hdr.dataVersion != "" {
			if err := o.emit(ont, vocab.VersionInfo, quad.String(o.hdr.dataVersion)); err != nil {
				return err
			}
		}
	}
	// Declare the annotation vocabulary so that the values are not taken
	// for data properties.
	annotations := []quad.IRI{oboDefinition, oboXref}
	for _, scope := range []string{"EXACT", "BROAD", "NARROW", "RELATED"} {
		annotations = append(annotations, synonymScopes[scope])
	}
	for _, a := range annotations {
		if err := o.emit(a, vocab.Type, vocab.AnnotationProperty); err != nil {
			return err
		}
	}
	return nil
}

func (o *obo) emitTerm(t Term) error {
	if t.ID == "" || t.IsObsolete {
		return nil
	}
	c := o.iri(t.ID)
	if err := o.emit(c, vocab.Type, vocab.OWLClass); err != nil {
		return err
	}

	var annotations []annotation
	add := func(p quad.IRI, v string) {
		if v != "" {
			annotations = append(annotations, annotation{p, v})
		}
	}
	add(vocab.Label, t.Name)
	add(oboDefinition, t.Definition)
	add(vocab.Comment, t.Comment)
	for _, syn := range t.Synonyms {
		if p, ok := synonymScopes[syn.Scope]; ok {
			add(p, syn.Text)
		}
	}
	for _, x := range t.Xrefs {
		add(oboXref, x)
	}
	for _, a := range annotations {
		if err := o.emit(c, a.p, quad.String(a.v)); err != nil {
			return err
		}
	}

	for _, parent := range t.IsA {
		if err := o.emit(c, vocab.SubClassOf, o.iri(parent)); err != nil {
			return err
		}
	}
	for _, rel := range t.Relationships {
		r, err := o.restriction(rel.Type, rel.TargetID)
		if err != nil {
			return err
		}
		if err := o.emit(c, vocab.SubClassOf, r); err != nil {
			return err
		}
	}
	for _, other := range t.DisjointFrom {
		if err := o.emit(c, vocab.DisjointWith, o.iri(other)); err != nil {
			return err
		}
	}
	for _, other := range t.EquivalentTo {
		if err := o.emit(c, vocab.EquivalentClass, o.iri(other)); err != nil {
			return err
		}
	}
	if len(t.IntersectionOf) > 0 {
		return o.intersection(c, t.IntersectionOf)
	}
	return nil
}

// restriction emits ∃rel.target as a blank owl:Restriction.
func (o *obo) restriction(rel, target string) (quad.Value, error) {
	r := o.blank()
	steps := [][2]quad.Value{
		{vocab.Type, vocab.Restriction},
		{vocab.OnProperty, o.iri(rel)},
		{vocab.SomeValuesFrom, o.iri(target)},
	}
	for _, st := range steps {
		if err := o.emit(r, st[0], st[1]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (o *obo) intersection(c quad.Value, parts []IntersectionPart) error {
	items := make([]quad.Value, 0, len(parts))
	for _, part := range parts {
		if part.Relationship == "" {
			items = append(items, o.iri(part.TargetID))
			continue
		}
		r, err := o.restriction(part.Relationship, part.TargetID)
		if err != nil {
			return err
		}
		items = append(items, r)
	}

	cells := make([]quad.Value, len(items))
	for i := range cells {
		cells[i] = o.blank()
	}
	if err := o.emit(c, vocab.IntersectionOf, cells[0]); err != nil {
		return err
	}
	for i, cell := range cells {
		var next quad.Value = vocab.Nil
		if i+1 < len(cells) {
			next = cells[i+1]
		}
		if err := o.emit(cell, vocab.First, items[i]); err != nil {
			return err
		}
		if err := o.emit(cell, vocab.Rest, next); err != nil {
			return err
		}
	}
	return nil
}

func (o *obo) emitTypeDef(td TypeDef) error {
	if td.ID == "" || td.IsObsolete {
		return nil
	}
	p := o.iri(td.ID)
	triples := [][2]quad.Value{{vocab.Type, vocab.ObjectProperty}}
	if td.Name != "" {
		triples = append(triples, [2]quad.Value{vocab.Label, quad.String(td.Name)})
	}
	for _, f := range []struct {
		set   bool
		class quad.IRI
	}{
		{td.IsTransitive, vocab.TransitiveProperty},
		{td.IsSymmetric, vocab.SymmetricProperty},
		{td.IsFunctional, vocab.FunctionalProperty},
	} {
		if f.set {
			triples = append(triples, [2]quad.Value{vocab.Type, f.class})
		}
	}
	if td.Domain != "" {
		triples = append(triples, [2]quad.Value{vocab.Domain, o.iri(td.Domain)})
	}
	if td.Range != "" {
		triples = append(triples, [2]quad.Value{vocab.Range, o.iri(td.Range)})
	}
	if td.InverseOf != "" {
		triples = append(triples, [2]quad.Value{vocab.InverseOf, o.iri(td.InverseOf)})
	}
	for _, super := range td.IsA {
		triples = append(triples, [2]quad.Value{vocab.SubPropertyOf, o.iri(super)})
	}
	for _, t := range triples {
		if err := o.emit(p, t[0], t[1]); err != nil {
			return err
		}
	}
	return nil
}

func parseTerm(scanner *bufio.Scanner, pool *internPool) Term {
	var t Term
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break // End of stanza
		}

		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}

		switch key {
		case "id":
			t.ID = val
		case "name":
			t.Name = val
		case "def":
			t.Definition = parseQuoted(val)
		case "comment":
			t.Comment = val
		case "synonym":
			t.Synonyms = append(t.Synonyms, parseSynonym(val))
		case "xref":
			t.Xrefs = append(t.Xrefs, stripComment(val))
		case "is_a":
			t.IsA = append(t.IsA, stripComment(val))
		case "relationship":
			t.Relationships = append(t.Relationships, parseRelationship(val, pool))
		case "intersection_of":
			t.IntersectionOf = append(t.IntersectionOf, parseIntersectionOf(val, pool))
		case "disjoint_from":
			t.DisjointFrom = append(t.DisjointFrom, stripComment(val))
		case "equivalent_to":
			t.EquivalentTo = append(t.EquivalentTo, stripComment(val))
		case "is_obsolete":
			t.IsObsolete = val == "true"
		}
	}
	return t
}

// stripComment drops a trailing "! name" and qualifier block.
func stripComment(val string) string {
	v, _, _ := strings.Cut(val, " ! ")
	v, _, _ = strings.Cut(v, " {")
	return strings.TrimSpace(v)
}

// parseQuoted extracts text between the first pair of double quotes.
func parseQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return s
	}
	start++
	end := strings.IndexByte(s[start:], '"')
	if end < 0 {
		return s[start:]
	}
	return s[start : start+end]
}

// parseSynonym parses: "text" SCOPE [xrefs]
func parseSynonym(s string) Synonym {
	syn := Synonym{Text: parseQuoted(s), Scope: "RELATED"}

	start := strings.IndexByte(s, '"')
	if start < 0 {
		return syn
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return syn
	}
	rest := s[start+1+end+1:]

	// Scope is the first word
	if parts := strings.Fields(rest); len(parts) > 0 && !strings.HasPrefix(parts[0], "[") {
		syn.Scope = parts[0]
	}
	return syn
}

// parseRelationship parses: "type CHEBI:12345 ! name"
func parseRelationship(val string, pool *internPool) Relationship {
	var rel Relationship
	parts := strings.Fields(stripComment(val))
	if len(parts) >= 1 {
		rel.Type = pool.get(parts[0])
	}
	if len(parts) >= 2 {
		rel.TargetID = parts[1]
	}
	return rel
}

// parseIntersectionOf parses: "CHEBI:12345" (genus) or "relationship CHEBI:12345" (differentia).
func parseIntersectionOf(val string, pool *internPool) IntersectionPart {
	parts := strings.SplitN(stripComment(val), " ", 2)
	if len(parts) == 1 {
		// Genus: just a class ID
		return IntersectionPart{TargetID: parts[0]}
	}
	// Differentia: relationship target
	return IntersectionPart{
		Relationship: pool.get(parts[0]),
		TargetID:     strings.TrimSpace(parts[1]),
	}
}

// parseTypeDef parses a [Typedef] stanza.
func parseTypeDef(scanner *bufio.Scanner, pool *internPool) TypeDef {
	var td TypeDef
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "id":
			td.ID = pool.get(val)
		case "name":
			td.Name = val
		case "domain":
			td.Domain = stripComment(val)
		case "range":
			td.Range = stripComment(val)
		case "inverse_of":
			td.InverseOf = stripComment(val)
		case "is_a":
			td.IsA = append(td.IsA, stripComment(val))
		case "is_transitive":
			td.IsTransitive = val == "true"
		case "is_symmetric":
			td.IsSymmetric = val == "true"
		case "is_functional":
			td.IsFunctional = val == "true"
		case "is_obsolete":
			td.IsObsolete = val == "true"
		}
	}
	return td
}
