package reasoner

import (
	"fmt"
	"sort"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

type indPair struct{ s, o IndividualID }

type roleAssertion struct {
	s    IndividualID
	role RoleID
	o    IndividualID
}

type valueAssertion struct {
	s     IndividualID
	role  DataRoleID
	value string
}

type typeAssertion struct {
	ind     IndividualID
	concept ConceptID
}

// aboxLog is the kernel's assertional axiom log.
type aboxLog struct {
	types     []typeAssertion
	related   []roleAssertion
	values    []valueAssertion
	different [][]IndividualID
}

// abox is the propositional encoding of the knowledge base: one variable per
// (individual, concept) pair. Role assertions are closed under the role
// hierarchy, inverses, symmetry and transitivity before encoding.
type abox struct {
	g     *gini.Gini
	nc    int
	ni    int
	pairs []map[indPair]struct{}

	clash      string
	consistent bool

	instances map[ConceptID][]IndividualID
}

func (a *abox) lit(i IndividualID, c ConceptID) z.Lit {
	return z.Var(int(i)*a.nc + int(c) + 1).Pos()
}

func (a *abox) clause(lits ...z.Lit) {
	for _, m := range lits {
		a.g.Add(m)
	}
	a.g.Add(0)
}

// superRoles returns, for every role, the reflexive-transitive closure of
// its super roles.
func superRoles(nr int, subs []rolePair) [][]RoleID {
	direct := make([][]RoleID, nr)
	for _, p := range subs {
		direct[p.sub] = append(direct[p.sub], p.sup)
	}
	out := make([][]RoleID, nr)
	for r := 0; r < nr; r++ {
		seen := map[RoleID]bool{RoleID(r): true}
		stack := []RoleID{RoleID(r)}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			out[r] = append(out[r], cur)
			for _, sup := range direct[cur] {
				if !seen[sup] {
					seen[sup] = true
					stack = append(stack, sup)
				}
			}
		}
	}
	return out
}

func superDataRoles(nr int, subs []dataRolePair) [][]DataRoleID {
	asRoles := make([]rolePair, len(subs))
	for i, p := range subs {
		asRoles[i] = rolePair{RoleID(p.sub), RoleID(p.sup)}
	}
	closed := superRoles(nr, asRoles)
	out := make([][]DataRoleID, nr)
	for r, sups := range closed {
		for _, s := range sups {
			out[r] = append(out[r], DataRoleID(s))
		}
	}
	return out
}

// closeRoles computes the role-assertion closure for every object role.
func closeRoles(nr int, tb *tbox, log *aboxLog) []map[indPair]struct{} {
	pairs := make([]map[indPair]struct{}, nr)
	for r := range pairs {
		pairs[r] = make(map[indPair]struct{})
	}
	for _, ra := range log.related {
		pairs[ra.role][indPair{ra.s, ra.o}] = struct{}{}
	}

	supers := superRoles(nr, tb.roleSubs)
	inverse := make([][]RoleID, nr)
	for _, p := range tb.inverses {
		inverse[p.sub] = append(inverse[p.sub], p.sup)
		inverse[p.sup] = append(inverse[p.sup], p.sub)
	}

	add := func(r RoleID, p indPair) bool {
		if _, ok := pairs[r][p]; ok {
			return false
		}
		pairs[r][p] = struct{}{}
		return true
	}

	for changed := true; changed; {
		changed = false
		for r := 0; r < nr; r++ {
			snapshot := make([]indPair, 0, len(pairs[r]))
			for p := range pairs[r] {
				snapshot = append(snapshot, p)
			}
			for _, p := range snapshot {
				rev := indPair{p.o, p.s}
				for _, sup := range supers[r] {
					changed = add(sup, p) || changed
				}
				for _, inv := range inverse[r] {
					changed = add(inv, rev) || changed
				}
				if tb.symmetric[RoleID(r)] {
					changed = add(RoleID(r), rev) || changed
				}
			}
			if tb.transitive[RoleID(r)] {
				for _, p := range snapshot {
					for _, q := range snapshot {
						if p.o == q.s {
							changed = add(RoleID(r), indPair{p.s, q.o}) || changed
						}
					}
				}
			}
		}
	}
	return pairs
}

// buildABox encodes the knowledge base for gini and checks it. The
// saturated contexts contribute every derived subsumption between kernel
// concepts, so EL consequences need not be rediscovered by the solver.
func buildABox(st *SymbolTable, tb *tbox, log *aboxLog, contexts []Context) *abox {
	nc := st.ConceptCount()
	ni := st.IndividualCount()
	nr := st.RoleCount()

	a := &abox{
		g:         gini.New(),
		nc:        nc,
		ni:        ni,
		pairs:     closeRoles(nr, tb, log),
		instances: make(map[ConceptID][]IndividualID),
	}

	a.clash = findClash(st, tb, log, a.pairs)

	for i := IndividualID(0); i < IndividualID(ni); i++ {
		a.clause(a.lit(i, Top))
		a.clause(a.lit(i, Bottom).Not())
		// Every concept implies ⊤; this also allocates all of i's variables.
		for c := ConceptID(2); c < ConceptID(nc); c++ {
			a.clause(a.lit(i, c).Not(), a.lit(i, Top))
		}

		for _, p := range tb.subs {
			a.clause(a.lit(i, p.sub).Not(), a.lit(i, p.sup))
		}
		for c := ConceptID(0); c < ConceptID(nc) && int(c) < len(contexts); c++ {
			for d := range contexts[c].superSet {
				if d != c && int(d) < nc {
					a.clause(a.lit(i, c).Not(), a.lit(i, d))
				}
			}
		}
		for _, group := range tb.disjoint {
			for x := 0; x < len(group); x++ {
				for y := x + 1; y < len(group); y++ {
					a.clause(a.lit(i, group[x]).Not(), a.lit(i, group[y]).Not())
				}
			}
		}
		for c := ConceptID(0); c < ConceptID(nc); c++ {
			def, ok := tb.defs[c]
			if !ok {
				continue
			}
			switch def.kind {
			case exprAnd:
				all := make([]z.Lit, 0, len(def.args)+1)
				for _, arg := range def.args {
					a.clause(a.lit(i, c).Not(), a.lit(i, arg))
					all = append(all, a.lit(i, arg).Not())
				}
				a.clause(append(all, a.lit(i, c))...)
			case exprOr:
				some := make([]z.Lit, 0, len(def.args)+1)
				some = append(some, a.lit(i, c).Not())
				for _, arg := range def.args {
					a.clause(a.lit(i, arg).Not(), a.lit(i, c))
					some = append(some, a.lit(i, arg))
				}
				a.clause(some...)
			}
		}
	}

	for c := ConceptID(0); c < ConceptID(nc); c++ {
		def, ok := tb.defs[c]
		if !ok || def.kind != exprSome {
			continue
		}
		for p := range a.pairs[def.role] {
			a.clause(a.lit(p.o, def.args[0]).Not(), a.lit(p.s, c))
		}
	}

	different := differentPairs(log)
	for c := ConceptID(0); c < ConceptID(nc); c++ {
		if def, ok := tb.defs[c]; ok && def.kind == exprAtMost {
			a.atMost(c, def, different)
		}
	}

	for r := RoleID(0); r < RoleID(nr); r++ {
		for p := range a.pairs[r] {
			for _, d := range tb.domains[r] {
				a.clause(a.lit(p.s, d))
			}
			for _, d := range tb.ranges[r] {
				a.clause(a.lit(p.o, d))
			}
		}
	}

	dataSupers := superDataRoles(st.DataRoleCount(), tb.dataSubs)
	for _, v := range log.values {
		for _, sup := range dataSupers[v.role] {
			for _, d := range tb.dataDomains[sup] {
				a.clause(a.lit(v.s, d))
			}
		}
	}

	for _, ta := range log.types {
		a.clause(a.lit(ta.ind, ta.concept))
	}

	a.consistent = a.clash == "" && a.g.Solve() == 1
	return a
}

// findClash detects violations of functional and inverse-functional
// roles against declared different individuals, and functional data roles
// holding more than one value.
func findClash(st *SymbolTable, tb *tbox, log *aboxLog, pairs []map[indPair]struct{}) string {
	different := differentPairs(log)

	for r := RoleID(0); r < RoleID(len(pairs)); r++ {
		if !tb.functional[r] && !tb.invFunc[r] {
			continue
		}
		bySubject := make(map[IndividualID][]IndividualID)
		byObject := make(map[IndividualID][]IndividualID)
		for p := range pairs[r] {
			bySubject[p.s] = append(bySubject[p.s], p.o)
			byObject[p.o] = append(byObject[p.o], p.s)
		}
		if tb.functional[r] {
			if msg := groupClash(st, r, bySubject, different); msg != "" {
				return msg
			}
		}
		if tb.invFunc[r] {
			if msg := groupClash(st, r, byObject, different); msg != "" {
				return msg
			}
		}
	}

	supers := superDataRoles(st.DataRoleCount(), tb.dataSubs)
	seen := make(map[DataRoleID]map[IndividualID]string)
	for _, v := range log.values {
		for _, sup := range supers[v.role] {
			if !tb.dataFunctional[sup] {
				continue
			}
			if seen[sup] == nil {
				seen[sup] = make(map[IndividualID]string)
			}
			if prev, ok := seen[sup][v.s]; ok && prev != v.value {
				return fmt.Sprintf("functional data role %s has values %q and %q for %s",
					st.DataRoleName(sup), prev, v.value, st.IndividualName(v.s))
			}
			seen[sup][v.s] = v.value
		}
	}
	return ""
}

// differentPairs indexes the declared different individuals in both
// directions.
func differentPairs(log *aboxLog) map[indPair]bool {
	different := make(map[indPair]bool)
	for _, group := range log.different {
		for x := 0; x < len(group); x++ {
			for y := 0; y < len(group); y++ {
				if x != y {
					different[indPair{group[x], group[y]}] = true
				}
			}
		}
	}
	return different
}

// atMost forbids c(i) whenever i has def.n+1 pairwise different fillers of
// def.role that all belong to the filler concept.
func (a *abox) atMost(c ConceptID, def conceptDef, different map[indPair]bool) {
	bySubject := make(map[IndividualID][]IndividualID)
	for p := range a.pairs[def.role] {
		bySubject[p.s] = append(bySubject[p.s], p.o)
	}
	for i, fillers := range bySubject {
		if len(fillers) <= def.n {
			continue
		}
		sort.Slice(fillers, func(x, y int) bool { return fillers[x] < fillers[y] })

		var pick func(start int, chosen []IndividualID)
		pick = func(start int, chosen []IndividualID) {
			if len(chosen) == def.n+1 {
				lits := make([]z.Lit, 0, len(chosen)+1)
				lits = append(lits, a.lit(i, c).Not())
				for _, o := range chosen {
					lits = append(lits, a.lit(o, def.args[0]).Not())
				}
				a.clause(lits...)
				return
			}
		next:
			for k := start; k < len(fillers); k++ {
				for _, o := range chosen {
					if !different[indPair{o, fillers[k]}] {
						continue next
					}
				}
				pick(k+1, append(chosen, fillers[k]))
			}
		}
		pick(0, nil)
	}
}

func groupClash(st *SymbolTable, r RoleID, groups map[IndividualID][]IndividualID, different map[indPair]bool) string {
	keys := make([]IndividualID, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		members := groups[k]
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				if different[indPair{members[x], members[y]}] {
					return fmt.Sprintf("role %s relates %s to different individuals %s and %s",
						st.RoleName(r), st.IndividualName(k),
						st.IndividualName(members[x]), st.IndividualName(members[y]))
				}
			}
		}
	}
	return ""
}

// isInstance asks whether the KB entails i ∈ c, i.e. whether adding ¬c(i)
// makes it unsatisfiable.
func (a *abox) isInstance(i IndividualID, c ConceptID) bool {
	if int(i) >= a.ni || int(c) >= a.nc {
		return c == Top
	}
	a.g.Assume(a.lit(i, c).Not())
	return a.g.Solve() == -1
}

func (a *abox) instancesOf(c ConceptID) []IndividualID {
	if cached, ok := a.instances[c]; ok {
		return cached
	}
	var out []IndividualID
	for i := IndividualID(0); i < IndividualID(a.ni); i++ {
		if a.isInstance(i, c) {
			out = append(out, i)
		}
	}
	a.instances[c] = out
	return out
}

func (a *abox) fillers(i IndividualID, r RoleID) []IndividualID {
	if int(r) >= len(a.pairs) {
		return nil
	}
	var out []IndividualID
	for p := range a.pairs[r] {
		if p.s == i {
			out = append(out, p.o)
		}
	}
	sort.Slice(out, func(x, y int) bool { return out[x] < out[y] })
	return out
}
