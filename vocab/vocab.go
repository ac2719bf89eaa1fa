// Package vocab provides the RDF, RDFS, OWL and XSD terms the store
// understands, as full quad.IRI values.
//
// The rdf and rdfs namespaces come from cayley's voc packages. OWL and XSD
// are declared here and registered with voc so that quad.IRI.Short and
// quad.IRI.Full round-trip "owl:" and "xsd:" names.
package vocab

import (
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/rdfs"
)

const (
	OWLNS     = "http://www.w3.org/2002/07/owl#"
	OWLPrefix = "owl:"
	XSDNS     = "http://www.w3.org/2001/XMLSchema#"
	XSDPrefix = "xsd:"
)

func init() {
	voc.RegisterPrefix(OWLPrefix, OWLNS)
	voc.RegisterPrefix(XSDPrefix, XSDNS)
}

// RDF
const (
	Type  quad.IRI = rdf.NS + "type"
	First quad.IRI = rdf.NS + "first"
	Rest  quad.IRI = rdf.NS + "rest"
	Nil   quad.IRI = rdf.NS + "nil"
	List  quad.IRI = rdf.NS + "List"

	PlainLiteral quad.IRI = rdf.NS + "PlainLiteral"
	LangString   quad.IRI = rdf.NS + "langString"
	XMLLiteral   quad.IRI = rdf.NS + "XMLLiteral"

	Property quad.IRI = rdf.NS + "Property"
)

// RDFS
const (
	Class         quad.IRI = rdfs.NS + "Class"
	SubClassOf    quad.IRI = rdfs.NS + "subClassOf"
	SubPropertyOf quad.IRI = rdfs.NS + "subPropertyOf"
	Domain        quad.IRI = rdfs.NS + "domain"
	Range         quad.IRI = rdfs.NS + "range"
	Label         quad.IRI = rdfs.NS + "label"
	Comment       quad.IRI = rdfs.NS + "comment"
	SeeAlso       quad.IRI = rdfs.NS + "seeAlso"
	IsDefinedBy   quad.IRI = rdfs.NS + "isDefinedBy"
	Datatype      quad.IRI = rdfs.NS + "Datatype"
	Literal       quad.IRI = rdfs.NS + "Literal"
)

// OWL classes
const (
	OWLClass                  quad.IRI = OWLNS + "Class"
	Thing                     quad.IRI = OWLNS + "Thing"
	Nothing                   quad.IRI = OWLNS + "Nothing"
	Ontology                  quad.IRI = OWLNS + "Ontology"
	Restriction               quad.IRI = OWLNS + "Restriction"
	AllDifferent              quad.IRI = OWLNS + "AllDifferent"
	AllDisjointClasses        quad.IRI = OWLNS + "AllDisjointClasses"
	AllDisjointProperties     quad.IRI = OWLNS + "AllDisjointProperties"
	Axiom                     quad.IRI = OWLNS + "Axiom"
	NegativePropertyAssertion quad.IRI = OWLNS + "NegativePropertyAssertion"
	NamedIndividual           quad.IRI = OWLNS + "NamedIndividual"
	ObjectProperty            quad.IRI = OWLNS + "ObjectProperty"
	DatatypeProperty          quad.IRI = OWLNS + "DatatypeProperty"
	AnnotationProperty        quad.IRI = OWLNS + "AnnotationProperty"
	FunctionalProperty        quad.IRI = OWLNS + "FunctionalProperty"
	InverseFunctionalProperty quad.IRI = OWLNS + "InverseFunctionalProperty"
	TransitiveProperty        quad.IRI = OWLNS + "TransitiveProperty"
	SymmetricProperty         quad.IRI = OWLNS + "SymmetricProperty"
	AsymmetricProperty        quad.IRI = OWLNS + "AsymmetricProperty"
	ReflexiveProperty         quad.IRI = OWLNS + "ReflexiveProperty"
	IrreflexiveProperty       quad.IRI = OWLNS + "IrreflexiveProperty"
)

// OWL properties
const (
	EquivalentClass    quad.IRI = OWLNS + "equivalentClass"
	EquivalentProperty quad.IRI = OWLNS + "equivalentProperty"
	DisjointWith       quad.IRI = OWLNS + "disjointWith"
	InverseOf          quad.IRI = OWLNS + "inverseOf"
	IntersectionOf     quad.IRI = OWLNS + "intersectionOf"
	UnionOf            quad.IRI = OWLNS + "unionOf"
	DistinctMembers    quad.IRI = OWLNS + "distinctMembers"
	Members            quad.IRI = OWLNS + "members"
	OnProperty         quad.IRI = OWLNS + "onProperty"
	SomeValuesFrom     quad.IRI = OWLNS + "someValuesFrom"
	AllValuesFrom      quad.IRI = OWLNS + "allValuesFrom"
	HasValue           quad.IRI = OWLNS + "hasValue"
	Cardinality        quad.IRI = OWLNS + "cardinality"
	MinCardinality     quad.IRI = OWLNS + "minCardinality"
	MaxCardinality     quad.IRI = OWLNS + "maxCardinality"
	ComplementOf       quad.IRI = OWLNS + "complementOf"
	OneOf              quad.IRI = OWLNS + "oneOf"
	VersionInfo        quad.IRI = OWLNS + "versionInfo"
	Imports            quad.IRI = OWLNS + "imports"
	Deprecated         quad.IRI = OWLNS + "deprecated"
	PriorVersion       quad.IRI = OWLNS + "priorVersion"
	VersionIRI         quad.IRI = OWLNS + "versionIRI"

	OnClass                 quad.IRI = OWLNS + "onClass"
	OnDataRange             quad.IRI = OWLNS + "onDataRange"
	QualifiedCardinality    quad.IRI = OWLNS + "qualifiedCardinality"
	MinQualifiedCardinality quad.IRI = OWLNS + "minQualifiedCardinality"
	MaxQualifiedCardinality quad.IRI = OWLNS + "maxQualifiedCardinality"
	HasSelf                 quad.IRI = OWLNS + "hasSelf"
	OnProperties            quad.IRI = OWLNS + "onProperties"
	PropertyChainAxiom      quad.IRI = OWLNS + "propertyChainAxiom"
	PropertyDisjointWith    quad.IRI = OWLNS + "propertyDisjointWith"
	DisjointUnionOf         quad.IRI = OWLNS + "disjointUnionOf"
	HasKey                  quad.IRI = OWLNS + "hasKey"
	SameAs                  quad.IRI = OWLNS + "sameAs"
	DifferentFrom           quad.IRI = OWLNS + "differentFrom"
	SourceIndividual        quad.IRI = OWLNS + "sourceIndividual"
	AssertionProperty       quad.IRI = OWLNS + "assertionProperty"
	TargetIndividual        quad.IRI = OWLNS + "targetIndividual"
	TargetValue             quad.IRI = OWLNS + "targetValue"
	AnnotatedSource         quad.IRI = OWLNS + "annotatedSource"
	AnnotatedProperty       quad.IRI = OWLNS + "annotatedProperty"
	AnnotatedTarget         quad.IRI = OWLNS + "annotatedTarget"
	WithRestrictions        quad.IRI = OWLNS + "withRestrictions"
	OnDatatype              quad.IRI = OWLNS + "onDatatype"
	DatatypeComplementOf    quad.IRI = OWLNS + "datatypeComplementOf"
)

// XSD
const (
	String  quad.IRI = XSDNS + "string"
	Integer quad.IRI = XSDNS + "integer"
	Boolean quad.IRI = XSDNS + "boolean"
	Double  quad.IRI = XSDNS + "double"
)

// Metadata lists annotation predicates that carry no logical content.
var Metadata = []quad.IRI{
	Label, Comment, SeeAlso, IsDefinedBy, VersionInfo, Imports, Deprecated, PriorVersion, VersionIRI,
	AnnotatedSource, AnnotatedProperty, AnnotatedTarget,
}

// Unmodelled lists constructors and axioms outside the fragment the store
// maps onto the reasoner.
var Unmodelled = []quad.IRI{
	AllValuesFrom, HasValue, HasSelf, ComplementOf, OneOf,
	OnProperties, PropertyChainAxiom, PropertyDisjointWith, DisjointUnionOf, HasKey,
	SameAs, DifferentFrom,
	SourceIndividual, AssertionProperty, TargetIndividual, TargetValue,
	WithRestrictions, OnDatatype, DatatypeComplementOf,
}

// Cardinalities lists the restriction predicates carrying a number.
var Cardinalities = []quad.IRI{
	Cardinality, MinCardinality, MaxCardinality,
	QualifiedCardinality, MinQualifiedCardinality, MaxQualifiedCardinality,
}

// Reserved reports whether iri belongs to the RDF, RDFS or OWL namespace.
// Such terms are never user properties.
func Reserved(iri quad.IRI) bool {
	s := string(iri.Full())
	return strings.HasPrefix(s, rdf.NS) || strings.HasPrefix(s, rdfs.NS) || strings.HasPrefix(s, OWLNS)
}

// BuiltinDatatype reports whether iri names a datatype every OWL tool knows:
// an XSD type, rdfs:Literal or one of the RDF literal types.
func BuiltinDatatype(iri quad.IRI) bool {
	switch iri = iri.Full(); iri {
	case Literal, PlainLiteral, LangString, XMLLiteral:
		return true
	}
	return strings.HasPrefix(string(iri), XSDNS)
}
