package reasoner

// someEdge is the right-hand side of A ⊑ ∃role.fill.
type someEdge struct {
	Role RoleID
	Fill ConceptID
}

// normalForm tags an axiom for deduplication.
type normalForm uint8

const (
	nfTold normalForm = iota + 1
	nfConj
	nfSomeRight
	nfSomeLeft
	nfRoleSub
	nfChain
)

type axiomKey struct {
	nf      normalForm
	a, b, c uint32
}

// Axioms is the normalised TBox the saturation rules run over. Concepts
// include the fresh names introduced by normalisation; roles are the
// kernel's object roles.
//
//	told       A ⊑ B
//	conj       A₁ ⊓ A₂ ⊑ B, indexed under both conjuncts
//	someRight  A ⊑ ∃R.B
//	someLeft   ∃R.A ⊑ B, indexed by R then A
//	roleSups   R ⊑ S
//	chains     R₁ ∘ R₂ ⊑ S, indexed by R₁ then R₂
//
// Disjointness is A ⊓ B ⊑ ⊥ and a role domain is ∃R.⊤ ⊑ D. The same
// axiom added twice is stored once.
type Axioms struct {
	told      [][]ConceptID
	conj      []map[ConceptID][]ConceptID
	someRight [][]someEdge
	someLeft  []map[ConceptID][]ConceptID
	roleSups  [][]RoleID
	chains    []map[RoleID][]RoleID

	transitive []bool
	seen       map[axiomKey]struct{}
}

// NewAxioms allocates room for nc concepts and nr roles.
func NewAxioms(nc, nr int) *Axioms {
	return &Axioms{
		told:       make([][]ConceptID, nc),
		conj:       make([]map[ConceptID][]ConceptID, nc),
		someRight:  make([][]someEdge, nc),
		someLeft:   make([]map[ConceptID][]ConceptID, nr),
		roleSups:   make([][]RoleID, nr),
		chains:     make([]map[RoleID][]RoleID, nr),
		transitive: make([]bool, nr),
		seen:       make(map[axiomKey]struct{}),
	}
}

// Grow makes room for concepts up to nc.
func (x *Axioms) Grow(nc int) {
	if extra := nc - len(x.told); extra > 0 {
		x.told = append(x.told, make([][]ConceptID, extra)...)
		x.conj = append(x.conj, make([]map[ConceptID][]ConceptID, extra)...)
		x.someRight = append(x.someRight, make([][]someEdge, extra)...)
	}
}

func (x *Axioms) Concepts() int { return len(x.told) }
func (x *Axioms) Roles() int    { return len(x.roleSups) }

// Size returns the number of distinct axioms.
func (x *Axioms) Size() int { return len(x.seen) }

func (x *Axioms) fresh(nf normalForm, a, b, c uint32) bool {
	k := axiomKey{nf, a, b, c}
	if _, ok := x.seen[k]; ok {
		return false
	}
	x.seen[k] = struct{}{}
	return true
}

func addTo[K comparable, V any](m map[K][]V, k K, v V) map[K][]V {
	if m == nil {
		m = make(map[K][]V, 4)
	}
	m[k] = append(m[k], v)
	return m
}

// AddSubsumption adds sub ⊑ sup.
func (x *Axioms) AddSubsumption(sub, sup ConceptID) {
	if sub == sup || !x.fresh(nfTold, uint32(sub), uint32(sup), 0) {
		return
	}
	x.told[sub] = append(x.told[sub], sup)
}

// AddConjunction adds a ⊓ b ⊑ sup.
func (x *Axioms) AddConjunction(a, b, sup ConceptID) {
	if a > b {
		a, b = b, a
	}
	if !x.fresh(nfConj, uint32(a), uint32(b), uint32(sup)) {
		return
	}
	x.conj[a] = addTo(x.conj[a], b, sup)
	if a != b {
		x.conj[b] = addTo(x.conj[b], a, sup)
	}
}

// AddExistRight adds sub ⊑ ∃role.fill.
func (x *Axioms) AddExistRight(sub ConceptID, role RoleID, fill ConceptID) {
	if !x.fresh(nfSomeRight, uint32(sub), uint32(role), uint32(fill)) {
		return
	}
	x.someRight[sub] = append(x.someRight[sub], someEdge{Role: role, Fill: fill})
}

// AddExistLeft adds ∃role.fill ⊑ sup.
func (x *Axioms) AddExistLeft(role RoleID, fill, sup ConceptID) {
	if !x.fresh(nfSomeLeft, uint32(role), uint32(fill), uint32(sup)) {
		return
	}
	x.someLeft[role] = addTo(x.someLeft[role], fill, sup)
}

// AddRoleSub adds sub ⊑ sup between object roles.
func (x *Axioms) AddRoleSub(sub, sup RoleID) {
	if sub == sup || !x.fresh(nfRoleSub, uint32(sub), uint32(sup), 0) {
		return
	}
	x.roleSups[sub] = append(x.roleSups[sub], sup)
}

// AddRoleChain adds first ∘ second ⊑ sup.
func (x *Axioms) AddRoleChain(first, second, sup RoleID) {
	if !x.fresh(nfChain, uint32(first), uint32(second), uint32(sup)) {
		return
	}
	x.chains[first] = addTo(x.chains[first], second, sup)
}

// SetTransitive adds r ∘ r ⊑ r.
func (x *Axioms) SetTransitive(r RoleID) {
	x.transitive[r] = true
	x.AddRoleChain(r, r, r)
}

func (x *Axioms) IsTransitive(r RoleID) bool {
	return int(r) < len(x.transitive) && x.transitive[r]
}
