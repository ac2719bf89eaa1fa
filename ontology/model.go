package ontology

// Term is an OBO [Term] stanza, reduced to what maps onto OWL.
type Term struct {
	ID             string
	Name           string
	Definition     string
	Comment        string
	IsObsolete     bool
	Synonyms       []Synonym
	Xrefs          []string
	IsA            []string
	Relationships  []Relationship
	IntersectionOf []IntersectionPart
	DisjointFrom   []string
	EquivalentTo   []string
}

// TypeDef is an OBO [Typedef] stanza (object property).
type TypeDef struct {
	ID           string
	Name         string
	Domain       string
	Range        string
	InverseOf    string
	IsA          []string
	IsTransitive bool
	IsSymmetric  bool
	IsFunctional bool
	IsObsolete   bool
}

// IntersectionPart is one part of an intersection_of definition. An empty
// Relationship marks the genus; otherwise the part is ∃Relationship.TargetID.
type IntersectionPart struct {
	Relationship string
	TargetID     string
}

// Synonym is a term synonym with its scope: EXACT, BROAD, NARROW or RELATED.
type Synonym struct {
	Text  string
	Scope string
}

// Relationship is an existential restriction on a term: every instance is
// related through Type to some instance of TargetID.
type Relationship struct {
	Type     string
	TargetID string
}
