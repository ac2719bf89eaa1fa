// Package dl defines the boundary between the triple store adapter and a
// description-logic reasoning kernel.
//
// The adapter never looks inside a kernel. It interns named entities, asserts
// axioms and runs queries through Reasoner, holding only the opaque Entity
// handles a kernel returns. A binding to a native reasoner implements
// Reasoner once and keeps all marshaling behind it.
package dl

import "fmt"

// Kind identifies what an Entity handle refers to.
type Kind uint8

const (
	KindConcept Kind = iota + 1
	KindObjectRole
	KindDataRole
	KindIndividual
	KindDatatype
)

func (k Kind) String() string {
	switch k {
	case KindConcept:
		return "concept"
	case KindObjectRole:
		return "object-role"
	case KindDataRole:
		return "data-role"
	case KindIndividual:
		return "individual"
	case KindDatatype:
		return "datatype"
	default:
		return "unknown"
	}
}

// Entity is an opaque handle issued by a Reasoner. Interning the same name
// twice yields an equal Entity. Anonymous expressions carry an empty Name.
type Entity struct {
	Kind Kind
	ID   uint32
	Name string
}

// IsZero reports whether e was never issued by a Reasoner.
func (e Entity) IsZero() bool { return e.Kind == 0 }

func (e Entity) String() string {
	if e.Name == "" {
		return fmt.Sprintf("%s#%d", e.Kind, e.ID)
	}
	return e.Name
}

// Reasoner is the operation set the store consumes from a reasoning kernel.
// Assertion methods return the kernel's own errors; the store propagates
// them unchanged.
type Reasoner interface {
	Concept(name string) Entity
	ObjectRole(name string) Entity
	DataRole(name string) Entity
	Individual(name string) Entity
	Datatype(name string) Entity
	Top() Entity

	Intersection(cs []Entity) (Entity, error)
	Union(cs []Entity) (Entity, error)
	ObjectExists(role, filler Entity) (Entity, error)
	// ObjectMaxCardinality returns the concept of things with at most n
	// role fillers in filler.
	ObjectMaxCardinality(n int, role, filler Entity) (Entity, error)

	InstanceOf(ind, c Entity) error
	ImpliesConcepts(sub, sup Entity) error
	EqualConcepts(cs []Entity) error
	DisjointConcepts(cs []Entity) error
	DifferentIndividuals(is []Entity) error

	SetObjectDomain(role, c Entity) error
	SetObjectRange(role, c Entity) error
	SetDataDomain(role, c Entity) error
	SetDataRange(role, dt Entity) error
	ImpliesObjectRoles(sub, sup Entity) error
	ImpliesDataRoles(sub, sup Entity) error
	EqualObjectRoles(rs []Entity) error
	EqualDataRoles(rs []Entity) error
	SetInverseRoles(r, s Entity) error
	SetObjectFunctional(role Entity) error
	SetDataFunctional(role Entity) error
	SetInverseFunctional(role Entity) error
	SetTransitive(role Entity) error
	SetSymmetric(role Entity) error

	RelatedTo(s, role, o Entity) error
	ValueOf(s, role Entity, value string) error

	ObjectDomain(role Entity) ([]Entity, error)
	ObjectRange(role Entity) ([]Entity, error)
	DataDomain(role Entity) ([]Entity, error)
	Instances(c Entity) ([]Entity, error)
	RoleFillers(ind, role Entity) ([]Entity, error)
	IsInstance(ind, c Entity) (bool, error)
	IsSubsumedBy(c, d Entity) (bool, error)
	IsConsistent() (bool, error)

	Realise() error
}
