package reasoner

// Context holds the saturation state for a single concept.
type Context struct {
	id ConceptID

	// S(C): set of all derived superclasses.
	superSet map[ConceptID]struct{}

	// Forward links: linkMap[r] = concepts D such that (C, D) ∈ R(r).
	linkMap [][]ConceptID

	// Reverse links: predMap[r] = concepts E such that (E, C) ∈ R(r).
	predMap [][]ConceptID
}

// Subsumes reports whether d ∈ S(C).
func (c *Context) Subsumes(d ConceptID) bool {
	_, ok := c.superSet[d]
	return ok
}

// Unsatisfiable reports whether ⊥ was derived for the concept.
func (c *Context) Unsatisfiable() bool { return c.Subsumes(Bottom) }

type workItem struct {
	concept ConceptID
	added   ConceptID
}

type linkItem struct {
	source ConceptID
	role   RoleID
	target ConceptID
}

type saturation struct {
	axioms   *Axioms
	contexts []Context
	work     []workItem
	links    []linkItem
}

// Saturate runs the single-threaded EL saturation algorithm over every
// concept slot in ax. It applies completion rules CR1–CR5, CR10 and CR11
// until no new inference can be derived.
func Saturate(ax *Axioms) []Context {
	n := ax.Concepts()
	nr := ax.Roles()

	s := &saturation{
		axioms:   ax,
		contexts: make([]Context, n),
		work:     make([]workItem, 0, n*2),
		links:    make([]linkItem, 0, n),
	}
	for c := ConceptID(0); c < ConceptID(n); c++ {
		s.contexts[c] = Context{
			id:       c,
			superSet: make(map[ConceptID]struct{}, 8),
			linkMap:  make([][]ConceptID, nr),
			predMap:  make([][]ConceptID, nr),
		}
	}

	// S(C) = {C, ⊤} for every concept.
	for c := ConceptID(0); c < ConceptID(n); c++ {
		s.derive(c, c)
		s.derive(c, Top)
	}

	for len(s.work) > 0 || len(s.links) > 0 {
		for len(s.work) > 0 {
			item := s.work[len(s.work)-1]
			s.work = s.work[:len(s.work)-1]
			s.processConcept(item.concept, item.added)
		}
		for len(s.links) > 0 {
			li := s.links[len(s.links)-1]
			s.links = s.links[:len(s.links)-1]
			s.processLink(li.source, li.role, li.target)
		}
	}

	return s.contexts
}

// derive adds d to S(c) and schedules it when new.
func (s *saturation) derive(c, d ConceptID) {
	if _, exists := s.contexts[c].superSet[d]; exists {
		return
	}
	s.contexts[c].superSet[d] = struct{}{}
	s.work = append(s.work, workItem{c, d})
}

func (s *saturation) link(source, target ConceptID, role RoleID) {
	if addLink(&s.contexts[source], &s.contexts[target], role) {
		s.links = append(s.links, linkItem{source, role, target})
	}
}

// processConcept applies the rules triggered by d having been added to S(c).
func (s *saturation) processConcept(c, d ConceptID) {
	ax := s.axioms

	// CR1: D ⊑ E.
	for _, e := range ax.told[d] {
		s.derive(c, e)
	}

	// CR2: D ⊓ D' ⊑ E with D' ∈ S(C).
	if ax.conj[d] != nil {
		for d2, results := range ax.conj[d] {
			if !s.contexts[c].Subsumes(d2) {
				continue
			}
			for _, e := range results {
				s.derive(c, e)
			}
		}
	}

	// CR3: D ⊑ ∃R.B adds the link (C, B) to R.
	for _, rf := range ax.someRight[d] {
		s.link(c, rf.Fill, rf.Role)
	}

	// CR5 backward: ⊥ reaches every predecessor.
	if d == Bottom {
		for _, preds := range s.contexts[c].predMap {
			for _, pred := range preds {
				s.derive(pred, Bottom)
			}
		}
	}

	// CR4 backward: every predecessor E with (E, C) ∈ R and ∃R.D ⊑ F gets F.
	for r := range s.contexts[c].predMap {
		if ax.someLeft[r] == nil {
			continue
		}
		sups, ok := ax.someLeft[r][d]
		if !ok {
			continue
		}
		for _, pred := range s.contexts[c].predMap[r] {
			for _, f := range sups {
				s.derive(pred, f)
			}
		}
	}
}

// processLink applies the rules triggered by (c, d) having been added to R(r).
func (s *saturation) processLink(c ConceptID, r RoleID, d ConceptID) {
	ax := s.axioms

	// CR4 forward: E ∈ S(D) and ∃R.E ⊑ F.
	if ax.someLeft[r] != nil {
		for e := range s.contexts[d].superSet {
			for _, f := range ax.someLeft[r][e] {
				s.derive(c, f)
			}
		}
	}

	// CR5: ⊥ ∈ S(D) propagates to C.
	if s.contexts[d].Unsatisfiable() {
		s.derive(c, Bottom)
	}

	// CR10: R ⊑ S adds (C, D) to S.
	for _, sup := range ax.roleSups[r] {
		s.link(c, d, sup)
	}

	// CR11, left: (E, C) ∈ R1 and R1 ∘ R ⊑ S adds (E, D) to S.
	for r1 := range ax.chains {
		chains, ok := ax.chains[r1][r]
		if !ok {
			continue
		}
		for _, pred := range s.contexts[c].predMap[r1] {
			for _, sup := range chains {
				s.link(pred, d, sup)
			}
		}
	}

	// CR11, right: (D, E) ∈ R2 and R ∘ R2 ⊑ S adds (C, E) to S.
	if ax.chains[r] != nil {
		for r2, chains := range ax.chains[r] {
			for _, e := range s.contexts[d].linkMap[r2] {
				for _, sup := range chains {
					s.link(c, e, sup)
				}
			}
		}
	}
}

// addLink adds (source, target) to R(role), updating both forward and reverse indices.
// Returns true if the link was new.
func addLink(source, target *Context, role RoleID) bool {
	for _, existing := range source.linkMap[role] {
		if existing == target.id {
			return false
		}
	}
	source.linkMap[role] = append(source.linkMap[role], target.id)
	target.predMap[role] = append(target.predMap[role], source.id)
	return true
}
