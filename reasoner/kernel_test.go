package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlstore/dl"
)

func names(es []dl.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name
	}
	return out
}

func TestKernel_InterningIsIdempotent(t *testing.T) {
	k := NewKernel(nil)

	assert.Equal(t, k.Concept("A"), k.Concept("A"))
	assert.Equal(t, k.ObjectRole("r"), k.ObjectRole("r"))
	assert.Equal(t, k.Individual("a"), k.Individual("a"))
	assert.NotEqual(t, k.Concept("A"), k.Concept("B"))

	top := k.Top()
	assert.Equal(t, dl.KindConcept, top.Kind)
	assert.Equal(t, top, k.Concept(topName))
}

func TestKernel_IntersectionDefinesConcept(t *testing.T) {
	k := NewKernel(nil)
	male, parent, father := k.Concept("Male"), k.Concept("Parent"), k.Concept("Father")
	bob, tom := k.Individual("bob"), k.Individual("tom")

	both, err := k.Intersection([]dl.Entity{male, parent})
	require.NoError(t, err)
	require.NoError(t, k.EqualConcepts([]dl.Entity{father, both}))
	require.NoError(t, k.InstanceOf(bob, male))
	require.NoError(t, k.InstanceOf(bob, parent))
	require.NoError(t, k.InstanceOf(tom, male))

	ok, err := k.IsInstance(bob, father)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = k.IsInstance(tom, father)
	require.NoError(t, err)
	assert.False(t, ok)

	instances, err := k.Instances(father)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names(instances))

	ok, err = k.IsSubsumedBy(father, male)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = k.IsSubsumedBy(male, father)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_InstancesInCreationOrder(t *testing.T) {
	k := NewKernel(nil)
	c := k.Concept("C")
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, k.InstanceOf(k.Individual(name), c))
	}
	k.Individual("unrelated")

	got, err := k.Instances(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(got))

	all, err := k.Instances(k.Top())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestKernel_DomainAndRange(t *testing.T) {
	k := NewKernel(nil)
	livesIn := k.ObjectRole("livesIn")
	person, place := k.Concept("Person"), k.Concept("Place")

	dom, err := k.ObjectDomain(livesIn)
	require.NoError(t, err)
	assert.Equal(t, []dl.Entity{k.Top()}, dom)

	require.NoError(t, k.SetObjectDomain(livesIn, person))
	require.NoError(t, k.SetObjectRange(livesIn, place))

	dom, err = k.ObjectDomain(livesIn)
	require.NoError(t, err)
	assert.Equal(t, []dl.Entity{person}, dom)
	rng, err := k.ObjectRange(livesIn)
	require.NoError(t, err)
	assert.Equal(t, []dl.Entity{place}, rng)

	alice, paris := k.Individual("alice"), k.Individual("paris")
	require.NoError(t, k.RelatedTo(alice, livesIn, paris))

	ok, err := k.IsInstance(alice, person)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = k.IsInstance(paris, place)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = k.IsInstance(paris, person)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_DataRoles(t *testing.T) {
	k := NewKernel(nil)
	age, measure := k.DataRole("age"), k.DataRole("measure")
	person := k.Concept("Person")
	alice := k.Individual("alice")

	dom, err := k.DataDomain(age)
	require.NoError(t, err)
	assert.Equal(t, []dl.Entity{k.Top()}, dom)

	require.NoError(t, k.ImpliesDataRoles(age, measure))
	require.NoError(t, k.SetDataDomain(measure, person))
	require.NoError(t, k.SetDataRange(age, k.Datatype("xsd:integer")))
	require.NoError(t, k.ValueOf(alice, age, "42"))

	ok, err := k.IsSubDataRole(age, measure)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = k.IsSubDataRole(measure, age)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = k.IsInstance(alice, person)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKernel_FunctionalDataRoleClash(t *testing.T) {
	k := NewKernel(nil)
	age := k.DataRole("age")
	alice := k.Individual("alice")
	require.NoError(t, k.SetDataFunctional(age))
	require.NoError(t, k.ValueOf(alice, age, "42"))
	require.NoError(t, k.ValueOf(alice, age, "42"))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, k.ValueOf(alice, age, "43"))
	ok, err = k.IsConsistent()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_DisjointnessMakesInconsistent(t *testing.T) {
	k := NewKernel(nil)
	cat, dog := k.Concept("Cat"), k.Concept("Dog")
	rex := k.Individual("rex")
	require.NoError(t, k.DisjointConcepts([]dl.Entity{cat, dog}))
	require.NoError(t, k.InstanceOf(rex, cat))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, k.InstanceOf(rex, dog))
	ok, err = k.IsConsistent()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = k.Instances(cat)
	assert.ErrorIs(t, err, ErrInconsistent)
	_, err = k.IsInstance(rex, cat)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.ErrorIs(t, k.Realise(), ErrInconsistent)
}

func TestKernel_Union(t *testing.T) {
	k := NewKernel(nil)
	cat, dog, pet := k.Concept("Cat"), k.Concept("Dog"), k.Concept("Pet")
	rex := k.Individual("rex")

	either, err := k.Union([]dl.Entity{cat, dog})
	require.NoError(t, err)
	require.NoError(t, k.EqualConcepts([]dl.Entity{pet, either}))
	require.NoError(t, k.InstanceOf(rex, dog))

	ok, err := k.IsInstance(rex, pet)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = k.IsSubsumedBy(cat, pet)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKernel_UnionWithDisjointnessForcesBranch(t *testing.T) {
	k := NewKernel(nil)
	cat, dog, pet := k.Concept("Cat"), k.Concept("Dog"), k.Concept("Pet")
	rex := k.Individual("rex")

	either, err := k.Union([]dl.Entity{cat, dog})
	require.NoError(t, err)
	require.NoError(t, k.ImpliesConcepts(pet, either))
	require.NoError(t, k.DisjointConcepts([]dl.Entity{k.Concept("Feline"), dog}))
	require.NoError(t, k.InstanceOf(rex, pet))
	require.NoError(t, k.InstanceOf(rex, k.Concept("Feline")))

	ok, err := k.IsInstance(rex, cat)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKernel_ExistentialBackPropagation(t *testing.T) {
	k := NewKernel(nil)
	hasChild := k.ObjectRole("hasChild")
	person, parent := k.Concept("Person"), k.Concept("Parent")
	ann, ben := k.Individual("ann"), k.Individual("ben")

	some, err := k.ObjectExists(hasChild, person)
	require.NoError(t, err)
	again, err := k.ObjectExists(hasChild, person)
	require.NoError(t, err)
	assert.Equal(t, some, again)

	require.NoError(t, k.EqualConcepts([]dl.Entity{parent, some}))
	require.NoError(t, k.RelatedTo(ann, hasChild, ben))

	ok, err := k.IsInstance(ann, parent)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, k.InstanceOf(ben, person))
	ok, err = k.IsInstance(ann, parent)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKernel_SaturationFeedsRealisation(t *testing.T) {
	k := NewKernel(nil)
	r := k.ObjectRole("r")
	a, b, d := k.Concept("A"), k.Concept("B"), k.Concept("D")

	some, err := k.ObjectExists(r, b)
	require.NoError(t, err)
	require.NoError(t, k.ImpliesConcepts(a, some))
	require.NoError(t, k.SetObjectDomain(r, d))

	ok, err := k.IsSubsumedBy(a, d)
	require.NoError(t, err)
	assert.True(t, ok)

	x := k.Individual("x")
	require.NoError(t, k.InstanceOf(x, a))
	ok, err = k.IsInstance(x, d)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKernel_FunctionalRoleClash(t *testing.T) {
	k := NewKernel(nil)
	hasMother := k.ObjectRole("hasMother")
	ann, mia, zoe := k.Individual("ann"), k.Individual("mia"), k.Individual("zoe")

	require.NoError(t, k.SetObjectFunctional(hasMother))
	require.NoError(t, k.RelatedTo(ann, hasMother, mia))
	require.NoError(t, k.RelatedTo(ann, hasMother, zoe))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	assert.True(t, ok, "without distinctness the fillers may be the same individual")

	require.NoError(t, k.DifferentIndividuals([]dl.Entity{mia, zoe}))
	ok, err = k.IsConsistent()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_InverseFunctionalClash(t *testing.T) {
	k := NewKernel(nil)
	ssn := k.ObjectRole("hasSSN")
	a, b, n := k.Individual("a"), k.Individual("b"), k.Individual("n1")

	require.NoError(t, k.SetInverseFunctional(ssn))
	require.NoError(t, k.RelatedTo(a, ssn, n))
	require.NoError(t, k.RelatedTo(b, ssn, n))
	require.NoError(t, k.DifferentIndividuals([]dl.Entity{a, b}))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_RoleFillers(t *testing.T) {
	tests := []struct {
		name  string
		setup func(k *Kernel)
		from  string
		role  string
		want  []string
	}{
		{
			name: "asserted",
			setup: func(k *Kernel) {
				require.NoError(t, k.RelatedTo(k.Individual("a"), k.ObjectRole("knows"), k.Individual("b")))
			},
			from: "a", role: "knows", want: []string{"b"},
		},
		{
			name: "transitive",
			setup: func(k *Kernel) {
				anc := k.ObjectRole("ancestor")
				require.NoError(t, k.SetTransitive(anc))
				require.NoError(t, k.RelatedTo(k.Individual("a"), anc, k.Individual("b")))
				require.NoError(t, k.RelatedTo(k.Individual("b"), anc, k.Individual("c")))
			},
			from: "a", role: "ancestor", want: []string{"b", "c"},
		},
		{
			name: "symmetric",
			setup: func(k *Kernel) {
				friend := k.ObjectRole("friend")
				require.NoError(t, k.SetSymmetric(friend))
				require.NoError(t, k.RelatedTo(k.Individual("a"), friend, k.Individual("b")))
			},
			from: "b", role: "friend", want: []string{"a"},
		},
		{
			name: "inverse",
			setup: func(k *Kernel) {
				child, parent := k.ObjectRole("hasChild"), k.ObjectRole("hasParent")
				require.NoError(t, k.SetInverseRoles(child, parent))
				require.NoError(t, k.RelatedTo(k.Individual("a"), child, k.Individual("b")))
			},
			from: "b", role: "hasParent", want: []string{"a"},
		},
		{
			name: "sub role",
			setup: func(k *Kernel) {
				mother, parent := k.ObjectRole("hasMother"), k.ObjectRole("hasParent")
				require.NoError(t, k.ImpliesObjectRoles(mother, parent))
				require.NoError(t, k.RelatedTo(k.Individual("a"), mother, k.Individual("m")))
			},
			from: "a", role: "hasParent", want: []string{"m"},
		},
		{
			name: "equivalent roles",
			setup: func(k *Kernel) {
				r, s := k.ObjectRole("r"), k.ObjectRole("s")
				require.NoError(t, k.EqualObjectRoles([]dl.Entity{r, s}))
				require.NoError(t, k.RelatedTo(k.Individual("a"), s, k.Individual("b")))
			},
			from: "a", role: "r", want: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewKernel(nil)
			tt.setup(k)
			got, err := k.RoleFillers(k.Individual(tt.from), k.ObjectRole(tt.role))
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestKernel_RoleHierarchy(t *testing.T) {
	k := NewKernel(nil)
	a, b, c := k.ObjectRole("a"), k.ObjectRole("b"), k.ObjectRole("c")
	require.NoError(t, k.ImpliesObjectRoles(a, b))
	require.NoError(t, k.ImpliesObjectRoles(b, c))

	ok, err := k.IsSubObjectRole(a, c)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = k.IsSubObjectRole(c, a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_RejectsForeignHandles(t *testing.T) {
	k := NewKernel(nil)
	c := k.Concept("C")
	r := k.ObjectRole("r")

	assert.ErrorIs(t, k.InstanceOf(c, c), ErrForeignHandle)
	assert.ErrorIs(t, k.SetObjectDomain(c, c), ErrForeignHandle)
	assert.ErrorIs(t, k.SetDataFunctional(r), ErrForeignHandle)
	assert.ErrorIs(t, k.ImpliesConcepts(c, dl.Entity{Kind: dl.KindConcept, ID: 999}), ErrForeignHandle)

	_, err := k.Intersection(nil)
	assert.ErrorIs(t, err, ErrEmptyExpression)

	err = k.InstanceOf(c, c)
	assert.Contains(t, err.Error(), "kernel.InstanceOf: resolve individual failed")
}

func TestKernel_QueriesSeeLaterAxioms(t *testing.T) {
	k := NewKernel(nil)
	a, b := k.Concept("A"), k.Concept("B")

	ok, err := k.IsSubsumedBy(a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, k.ImpliesConcepts(a, b))
	ok, err = k.IsSubsumedBy(a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	x := k.Individual("x")
	require.NoError(t, k.InstanceOf(x, a))
	got, err := k.Instances(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names(got))
}

func TestKernel_MaxCardinalityCountsDifferentFillers(t *testing.T) {
	k := NewKernel(nil)
	bike, wheel := k.Concept("Bike"), k.Concept("Wheel")
	hasWheel := k.ObjectRole("hasWheel")
	b := k.Individual("b")
	w1, w2, w3 := k.Individual("w1"), k.Individual("w2"), k.Individual("w3")

	atMostTwo, err := k.ObjectMaxCardinality(2, hasWheel, wheel)
	require.NoError(t, err)
	same, err := k.ObjectMaxCardinality(2, hasWheel, wheel)
	require.NoError(t, err)
	assert.Equal(t, atMostTwo, same)

	require.NoError(t, k.ImpliesConcepts(bike, atMostTwo))
	require.NoError(t, k.InstanceOf(b, bike))
	for _, w := range []dl.Entity{w1, w2, w3} {
		require.NoError(t, k.RelatedTo(b, hasWheel, w))
	}
	require.NoError(t, k.InstanceOf(w1, wheel))
	require.NoError(t, k.InstanceOf(w2, wheel))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	assert.True(t, ok, "without distinctness the wheels may be the same individual")

	require.NoError(t, k.DifferentIndividuals([]dl.Entity{w1, w2, w3}))
	ok, err = k.IsConsistent()
	require.NoError(t, err)
	assert.True(t, ok, "w3 is not known to be a wheel")

	require.NoError(t, k.InstanceOf(w3, wheel))
	ok, err = k.IsConsistent()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_MaxCardinalityZero(t *testing.T) {
	k := NewKernel(nil)
	loner, hasFriend := k.Concept("Loner"), k.ObjectRole("hasFriend")

	none, err := k.ObjectMaxCardinality(0, hasFriend, k.Top())
	require.NoError(t, err)
	require.NoError(t, k.ImpliesConcepts(loner, none))

	some, err := k.ObjectExists(hasFriend, k.Top())
	require.NoError(t, err)
	both, err := k.Intersection([]dl.Entity{loner, some})
	require.NoError(t, err)

	ok, err := k.IsSatisfiable(both)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = k.IsSatisfiable(loner)
	require.NoError(t, err)
	assert.True(t, ok)

	ann, bob := k.Individual("ann"), k.Individual("bob")
	require.NoError(t, k.InstanceOf(ann, loner))
	require.NoError(t, k.RelatedTo(ann, hasFriend, bob))
	ok, err = k.IsConsistent()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKernel_MaxCardinalityRejectsNegativeBound(t *testing.T) {
	k := NewKernel(nil)
	_, err := k.ObjectMaxCardinality(-1, k.ObjectRole("r"), k.Top())
	assert.ErrorIs(t, err, ErrInvalidCardinality)
}
