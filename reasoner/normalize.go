package reasoner

// exprKind tags an anonymous class expression.
type exprKind uint8

const (
	exprAnd exprKind = iota + 1
	exprOr
	exprSome
	exprAtMost
)

// conceptDef defines an anonymous concept: the conjunction or disjunction of
// args, ∃role.args[0], or ≤n role.args[0].
type conceptDef struct {
	kind exprKind
	args []ConceptID
	role RoleID
	n    int
}

type conceptPair struct{ sub, sup ConceptID }

type rolePair struct{ sub, sup RoleID }

type dataRolePair struct{ sub, sup DataRoleID }

// tbox is the kernel's terminological axiom log. It is kept verbatim and
// normalized again whenever the kernel has changed since the last query.
type tbox struct {
	defs     map[ConceptID]conceptDef
	subs     []conceptPair
	disjoint [][]ConceptID

	domains    map[RoleID][]ConceptID
	ranges     map[RoleID][]ConceptID
	roleSubs   []rolePair
	inverses   []rolePair
	transitive map[RoleID]bool
	symmetric  map[RoleID]bool
	functional map[RoleID]bool
	invFunc    map[RoleID]bool

	dataDomains    map[DataRoleID][]ConceptID
	dataRanges     map[DataRoleID][]DatatypeID
	dataSubs       []dataRolePair
	dataFunctional map[DataRoleID]bool
}

func newTBox() *tbox {
	return &tbox{
		defs:           make(map[ConceptID]conceptDef),
		domains:        make(map[RoleID][]ConceptID),
		ranges:         make(map[RoleID][]ConceptID),
		transitive:     make(map[RoleID]bool),
		symmetric:      make(map[RoleID]bool),
		functional:     make(map[RoleID]bool),
		invFunc:        make(map[RoleID]bool),
		dataDomains:    make(map[DataRoleID][]ConceptID),
		dataRanges:     make(map[DataRoleID][]DatatypeID),
		dataFunctional: make(map[DataRoleID]bool),
	}
}

// normalizer allocates fresh concepts past the symbol table's range so that
// repeated normalization never grows the kernel's own tables.
type normalizer struct {
	store *Axioms
	next  ConceptID
}

func (n *normalizer) fresh() ConceptID {
	id := n.next
	n.next++
	n.store.Grow(int(n.next))
	return id
}

// Normalize converts the TBox log into the Axioms suitable for EL
// saturation. Disjunctions only contribute their sound EL part (each
// disjunct ⊑ union); role ranges, inverses and symmetry are left to the
// ABox encoding.
func Normalize(st *SymbolTable, tb *tbox) *Axioms {
	nc := st.ConceptCount()
	store := NewAxioms(nc, st.RoleCount())
	n := &normalizer{store: store, next: ConceptID(nc)}

	for c := ConceptID(0); c < ConceptID(nc); c++ {
		def, ok := tb.defs[c]
		if !ok {
			continue
		}
		switch def.kind {
		case exprAnd:
			for _, a := range def.args {
				store.AddSubsumption(c, a)
			}
			n.normalizeIntersection(c, def.args)
		case exprOr:
			for _, a := range def.args {
				store.AddSubsumption(a, c)
			}
		case exprSome:
			store.AddExistRight(c, def.role, def.args[0])
			store.AddExistLeft(def.role, def.args[0], c)
		case exprAtMost:
			// Outside EL: the concept stays atomic in the TBox and is
			// enforced against role assertions in the ABox. Only ≤0 has an
			// EL consequence: ∃role.filler ⊓ c ⊑ ⊥.
			if def.n == 0 {
				some := n.fresh()
				store.AddExistLeft(def.role, def.args[0], some)
				store.AddConjunction(some, c, Bottom)
			}
		}
	}

	for _, p := range tb.subs {
		store.AddSubsumption(p.sub, p.sup)
	}

	for _, group := range tb.disjoint {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				store.AddConjunction(group[i], group[j], Bottom)
			}
		}
	}

	for r := RoleID(0); r < RoleID(st.RoleCount()); r++ {
		for _, d := range tb.domains[r] {
			store.AddExistLeft(r, Top, d)
		}
		if tb.transitive[r] {
			store.SetTransitive(r)
		}
	}

	for _, p := range tb.roleSubs {
		store.AddRoleSub(p.sub, p.sup)
	}

	return store
}

// normalizeIntersection adds the reverse direction of an equivalence
// target ≡ c₀ ⊓ c₁ ⊓ ... as a chain of binary conjunctions:
// ((c₀ ⊓ c₁) ⊓ c₂) ⊓ ... ⊑ target.
func (n *normalizer) normalizeIntersection(target ConceptID, conjuncts []ConceptID) {
	if len(conjuncts) == 0 {
		return
	}
	if len(conjuncts) == 1 {
		n.store.AddSubsumption(conjuncts[0], target)
		return
	}

	acc := conjuncts[0]
	for i := 1; i < len(conjuncts); i++ {
		var result ConceptID
		if i == len(conjuncts)-1 {
			result = target
		} else {
			result = n.fresh()
		}
		n.store.AddConjunction(acc, conjuncts[i], result)
		acc = result
	}
}
