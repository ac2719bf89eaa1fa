package ontology

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/nodeadmin/owlstore/vocab"
)

// Namespace URIs
const (
	nsRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsXML = "http://www.w3.org/XML/1998/namespace"
)

// rdfxml holds the decoding state of one RDF/XML document.
type rdfxml struct {
	*emitter
	decoder *xml.Decoder
	base    string
	genid   int
}

// ReadRDFXML streams an RDF/XML document into sink. Node elements,
// property elements and property attributes are supported, including
// rdf:parseType "Resource", "Collection" and "Literal".
func ReadRDFXML(ctx context.Context, r io.Reader, base string, sink Sink) (int, error) {
	p := &rdfxml{
		emitter: &emitter{ctx: ctx, sink: sink},
		decoder: xml.NewDecoder(r),
		base:    base,
	}

	for {
		tok, err := p.decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.n, fmt.Errorf("ontology.ReadRDFXML: %w: %v", ErrSyntax, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if matchElement(se, nsRDF, "RDF") {
			// Container element: descend into it.
			if b := getAttr(se, nsXML, "base"); b != "" {
				p.base = b
			}
			continue
		}
		if _, err := p.node(se); err != nil {
			return p.n, fmt.Errorf("ontology.ReadRDFXML: %w", err)
		}
	}

	return p.n, nil
}

func matchElement(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func getAttr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func nameIRI(n xml.Name) quad.IRI { return quad.IRI(n.Space + n.Local) }

// syntaxAttr reports attributes that carry RDF/XML syntax rather than a
// property value.
func syntaxAttr(a xml.Attr) bool {
	switch {
	case a.Name.Space == "xmlns", a.Name.Space == "" && a.Name.Local == "xmlns":
		return true
	case a.Name.Space == nsXML:
		return true
	case a.Name.Space == nsRDF:
		switch a.Name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType":
			return true
		}
	}
	return false
}

// Generated and document blank nodes live in separate label spaces:
// generated labels are "genidN", rdf:nodeID labels get the "node-" prefix.
const nodeIDPrefix = "node-"

func (p *rdfxml) blank() quad.BNode {
	p.genid++
	return quad.BNode("genid" + strconv.Itoa(p.genid))
}

func nodeID(id string) quad.BNode { return quad.BNode(nodeIDPrefix + id) }

func (p *rdfxml) resolve(ref string) quad.IRI {
	if p.base == "" {
		return quad.IRI(ref)
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return quad.IRI(ref)
	}
	b, err := url.Parse(p.base)
	if err != nil {
		return quad.IRI(ref)
	}
	return quad.IRI(b.ResolveReference(u).String())
}

func (p *rdfxml) subject(se xml.StartElement) quad.Value {
	if about := getAttr(se, nsRDF, "about"); about != "" {
		return p.resolve(about)
	}
	if id := getAttr(se, nsRDF, "ID"); id != "" {
		return p.resolve("#" + id)
	}
	if id := getAttr(se, nsRDF, "nodeID"); id != "" {
		return nodeID(id)
	}
	return p.blank()
}

// node reads a node element up to its end tag and returns its subject.
func (p *rdfxml) node(se xml.StartElement) (quad.Value, error) {
	subj := p.subject(se)

	if !matchElement(se, nsRDF, "Description") {
		if err := p.emit(subj, vocab.Type, nameIRI(se.Name)); err != nil {
			return nil, err
		}
	}
	if err := p.propertyAttrs(subj, se); err != nil {
		return nil, err
	}

	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if err := p.property(subj, el); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return subj, nil
		}
	}
}

func (p *rdfxml) propertyAttrs(subj quad.Value, se xml.StartElement) error {
	for _, a := range se.Attr {
		if syntaxAttr(a) {
			continue
		}
		pred := nameIRI(a.Name)
		var obj quad.Value = quad.String(a.Value)
		if pred == vocab.Type {
			obj = p.resolve(a.Value)
		}
		if err := p.emit(subj, pred, obj); err != nil {
			return err
		}
	}
	return nil
}

// property reads one property element of subj up to its end tag.
func (p *rdfxml) property(subj quad.Value, el xml.StartElement) error {
	pred := nameIRI(el.Name)

	if res := getAttr(el, nsRDF, "resource"); res != "" {
		if err := p.emit(subj, pred, p.resolve(res)); err != nil {
			return err
		}
		return p.decoder.Skip()
	}
	if id := getAttr(el, nsRDF, "nodeID"); id != "" {
		if err := p.emit(subj, pred, nodeID(id)); err != nil {
			return err
		}
		return p.decoder.Skip()
	}

	switch getAttr(el, nsRDF, "parseType") {
	case "Resource":
		obj := p.blank()
		if err := p.emit(subj, pred, obj); err != nil {
			return err
		}
		return p.children(obj)
	case "Collection":
		return p.collection(subj, pred)
	case "Literal":
		text, err := p.text()
		if err != nil {
			return err
		}
		return p.emit(subj, pred, quad.TypedString{Value: quad.String(text), Type: nsRDF + "XMLLiteral"})
	}

	// Either a literal or a single nested node element.
	var sb strings.Builder
	var obj quad.Value
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if obj, err = p.node(t); err != nil {
				return err
			}
		case xml.EndElement:
			if obj == nil {
				obj = literal(el, sb.String())
			}
			return p.emit(subj, pred, obj)
		}
	}
}

func literal(el xml.StartElement, text string) quad.Value {
	if dt := getAttr(el, nsRDF, "datatype"); dt != "" {
		return quad.TypedString{Value: quad.String(text), Type: quad.IRI(dt)}
	}
	if lang := getAttr(el, nsXML, "lang"); lang != "" {
		return quad.LangString{Value: quad.String(text), Lang: lang}
	}
	return quad.String(text)
}

// children reads property elements of subj until the enclosing end tag.
func (p *rdfxml) children(subj quad.Value) error {
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if err := p.property(subj, el); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// collection reads node elements and links them into an RDF list.
func (p *rdfxml) collection(subj, pred quad.Value) error {
	var items []quad.Value
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			item, err := p.node(el)
			if err != nil {
				return err
			}
			items = append(items, item)
		case xml.EndElement:
			return p.list(subj, pred, items)
		}
	}
}

func (p *rdfxml) list(subj, pred quad.Value, items []quad.Value) error {
	if len(items) == 0 {
		return p.emit(subj, pred, vocab.Nil)
	}
	cells := make([]quad.Value, len(items))
	for i := range items {
		cells[i] = p.blank()
	}
	if err := p.emit(subj, pred, cells[0]); err != nil {
		return err
	}
	for i, cell := range cells {
		var next quad.Value = vocab.Nil
		if i+1 < len(cells) {
			next = cells[i+1]
		}
		if err := p.emit(cell, vocab.First, items[i]); err != nil {
			return err
		}
		if err := p.emit(cell, vocab.Rest, next); err != nil {
			return err
		}
	}
	return nil
}

// text returns the character data up to the enclosing end tag, nested
// elements included.
func (p *rdfxml) text() (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return sb.String(), fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			inner, err := p.text()
			if err != nil {
				return sb.String(), err
			}
			sb.WriteString(inner)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}
