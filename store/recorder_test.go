package store

import (
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/nodeadmin/owlstore/dl"
)

const ex = "http://example.org/"

func iri(local string) quad.IRI { return quad.IRI(ex + local) }

// recorder is a dl.Reasoner that records assertions as "Method(arg,...)"
// strings and answers queries from canned maps.
type recorder struct {
	ids      map[string]uint32
	interned int
	calls    []string
	err      error

	domains   map[string][]string
	instances map[string][]string
	fillers   map[string][]string
}

func newRecorder() *recorder {
	return &recorder{
		ids:       make(map[string]uint32),
		domains:   make(map[string][]string),
		instances: make(map[string][]string),
		fillers:   make(map[string][]string),
	}
}

func short(name string) string { return strings.TrimPrefix(name, ex) }

func (r *recorder) intern(kind dl.Kind, name string) dl.Entity {
	r.interned++
	key := fmt.Sprintf("%d/%s", kind, name)
	id, ok := r.ids[key]
	if !ok {
		id = uint32(len(r.ids))
		r.ids[key] = id
	}
	return dl.Entity{Kind: kind, ID: id, Name: name}
}

func (r *recorder) record(method string, es ...dl.Entity) error {
	args := make([]string, len(es))
	for i, e := range es {
		args[i] = short(e.Name)
	}
	r.calls = append(r.calls, method+"("+strings.Join(args, ",")+")")
	return r.err
}

func (r *recorder) reset() {
	r.calls = nil
	r.interned = 0
}

func (r *recorder) Concept(name string) dl.Entity    { return r.intern(dl.KindConcept, name) }
func (r *recorder) ObjectRole(name string) dl.Entity { return r.intern(dl.KindObjectRole, name) }
func (r *recorder) DataRole(name string) dl.Entity   { return r.intern(dl.KindDataRole, name) }
func (r *recorder) Individual(name string) dl.Entity { return r.intern(dl.KindIndividual, name) }
func (r *recorder) Datatype(name string) dl.Entity   { return r.intern(dl.KindDatatype, name) }
func (r *recorder) Top() dl.Entity                   { return r.intern(dl.KindConcept, "Thing") }

func (r *recorder) Intersection(cs []dl.Entity) (dl.Entity, error) {
	return dl.Entity{Kind: dl.KindConcept, ID: 9000, Name: "and"}, r.record("Intersection", cs...)
}

func (r *recorder) Union(cs []dl.Entity) (dl.Entity, error) {
	return dl.Entity{Kind: dl.KindConcept, ID: 9001, Name: "or"}, r.record("Union", cs...)
}

func (r *recorder) ObjectExists(role, filler dl.Entity) (dl.Entity, error) {
	return dl.Entity{Kind: dl.KindConcept, ID: 9002, Name: "some"}, r.record("ObjectExists", role, filler)
}

func (r *recorder) ObjectMaxCardinality(n int, role, filler dl.Entity) (dl.Entity, error) {
	return dl.Entity{Kind: dl.KindConcept, ID: 9003, Name: "max"},
		r.record(fmt.Sprintf("ObjectMaxCardinality[%d]", n), role, filler)
}

func (r *recorder) InstanceOf(ind, c dl.Entity) error        { return r.record("InstanceOf", ind, c) }
func (r *recorder) ImpliesConcepts(sub, sup dl.Entity) error { return r.record("ImpliesConcepts", sub, sup) }
func (r *recorder) EqualConcepts(cs []dl.Entity) error       { return r.record("EqualConcepts", cs...) }
func (r *recorder) DisjointConcepts(cs []dl.Entity) error    { return r.record("DisjointConcepts", cs...) }
func (r *recorder) DifferentIndividuals(is []dl.Entity) error {
	return r.record("DifferentIndividuals", is...)
}

func (r *recorder) SetObjectDomain(role, c dl.Entity) error { return r.record("SetObjectDomain", role, c) }
func (r *recorder) SetObjectRange(role, c dl.Entity) error  { return r.record("SetObjectRange", role, c) }
func (r *recorder) SetDataDomain(role, c dl.Entity) error   { return r.record("SetDataDomain", role, c) }
func (r *recorder) SetDataRange(role, dt dl.Entity) error   { return r.record("SetDataRange", role, dt) }

func (r *recorder) ImpliesObjectRoles(sub, sup dl.Entity) error {
	return r.record("ImpliesObjectRoles", sub, sup)
}

func (r *recorder) ImpliesDataRoles(sub, sup dl.Entity) error {
	return r.record("ImpliesDataRoles", sub, sup)
}

func (r *recorder) EqualObjectRoles(rs []dl.Entity) error { return r.record("EqualObjectRoles", rs...) }
func (r *recorder) EqualDataRoles(rs []dl.Entity) error   { return r.record("EqualDataRoles", rs...) }
func (r *recorder) SetInverseRoles(a, b dl.Entity) error  { return r.record("SetInverseRoles", a, b) }

func (r *recorder) SetObjectFunctional(role dl.Entity) error {
	return r.record("SetObjectFunctional", role)
}

func (r *recorder) SetDataFunctional(role dl.Entity) error {
	return r.record("SetDataFunctional", role)
}

func (r *recorder) SetInverseFunctional(role dl.Entity) error {
	return r.record("SetInverseFunctional", role)
}

func (r *recorder) SetTransitive(role dl.Entity) error { return r.record("SetTransitive", role) }
func (r *recorder) SetSymmetric(role dl.Entity) error  { return r.record("SetSymmetric", role) }

func (r *recorder) RelatedTo(s, role, o dl.Entity) error { return r.record("RelatedTo", s, role, o) }

func (r *recorder) ValueOf(s, role dl.Entity, value string) error {
	return r.record("ValueOf", s, role, dl.Entity{Name: value})
}

func (r *recorder) entities(kind dl.Kind, names []string) []dl.Entity {
	out := make([]dl.Entity, len(names))
	for i, n := range names {
		out[i] = r.intern(kind, n)
	}
	return out
}

func (r *recorder) ObjectDomain(role dl.Entity) ([]dl.Entity, error) {
	if d, ok := r.domains[role.Name]; ok {
		return r.entities(dl.KindConcept, d), nil
	}
	return []dl.Entity{r.Top()}, nil
}

func (r *recorder) ObjectRange(role dl.Entity) ([]dl.Entity, error) {
	return []dl.Entity{r.Top()}, nil
}

func (r *recorder) DataDomain(role dl.Entity) ([]dl.Entity, error) {
	return r.ObjectDomain(role)
}

func (r *recorder) Instances(c dl.Entity) ([]dl.Entity, error) {
	return r.entities(dl.KindIndividual, r.instances[c.Name]), nil
}

func (r *recorder) RoleFillers(ind, role dl.Entity) ([]dl.Entity, error) {
	return r.entities(dl.KindIndividual, r.fillers[ind.Name+" "+role.Name]), nil
}

func (r *recorder) IsInstance(ind, c dl.Entity) (bool, error) { return false, nil }
func (r *recorder) IsSubsumedBy(c, d dl.Entity) (bool, error) { return false, nil }
func (r *recorder) IsConsistent() (bool, error)               { return true, nil }
func (r *recorder) Realise() error                            { return nil }

var _ dl.Reasoner = (*recorder)(nil)
