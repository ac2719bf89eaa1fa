package reasoner

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nodeadmin/owlstore/dl"
)

// Kernel is an in-process description-logic reasoner implementing
// dl.Reasoner. Axioms are logged as they arrive; the first query after a
// change (new axioms or newly interned entities) normalizes and saturates
// the TBox and re-encodes the ABox.
type Kernel struct {
	mu     sync.Mutex
	logger *slog.Logger

	st   *SymbolTable
	tb   *tbox
	log  aboxLog
	defs map[string]ConceptID

	// Derived state, nil when stale.
	contexts []Context
	ab       *abox

	normalizeTime time.Duration
	saturateTime  time.Duration
}

var _ dl.Reasoner = (*Kernel)(nil)

// NewKernel creates an empty knowledge base.
func NewKernel(logger *slog.Logger) *Kernel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kernel{
		logger: logger,
		st:     NewSymbolTable(),
		tb:     newTBox(),
		defs:   make(map[string]ConceptID),
	}
}

// Symbols exposes the symbol table, e.g. for reporting.
func (k *Kernel) Symbols() *SymbolTable { return k.st }

func (k *Kernel) changed() {
	k.contexts = nil
	k.ab = nil
}

func (k *Kernel) conceptEntity(c ConceptID) dl.Entity {
	return dl.Entity{Kind: dl.KindConcept, ID: uint32(c), Name: k.st.ConceptName(c)}
}

func (k *Kernel) roleEntity(r RoleID) dl.Entity {
	return dl.Entity{Kind: dl.KindObjectRole, ID: uint32(r), Name: k.st.RoleName(r)}
}

func (k *Kernel) individualEntity(i IndividualID) dl.Entity {
	return dl.Entity{Kind: dl.KindIndividual, ID: uint32(i), Name: k.st.IndividualName(i)}
}

func foreign(e dl.Entity, want dl.Kind) error {
	return fmt.Errorf("%w: %s is a %s, want %s", ErrForeignHandle, e, e.Kind, want)
}

func (k *Kernel) concept(e dl.Entity) (ConceptID, error) {
	if e.Kind != dl.KindConcept || int(e.ID) >= k.st.ConceptCount() {
		return 0, foreign(e, dl.KindConcept)
	}
	return ConceptID(e.ID), nil
}

func (k *Kernel) concepts(es []dl.Entity) ([]ConceptID, error) {
	out := make([]ConceptID, len(es))
	for i, e := range es {
		c, err := k.concept(e)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (k *Kernel) role(e dl.Entity) (RoleID, error) {
	if e.Kind != dl.KindObjectRole || int(e.ID) >= k.st.RoleCount() {
		return 0, foreign(e, dl.KindObjectRole)
	}
	return RoleID(e.ID), nil
}

func (k *Kernel) dataRole(e dl.Entity) (DataRoleID, error) {
	if e.Kind != dl.KindDataRole || int(e.ID) >= k.st.DataRoleCount() {
		return 0, foreign(e, dl.KindDataRole)
	}
	return DataRoleID(e.ID), nil
}

func (k *Kernel) individual(e dl.Entity) (IndividualID, error) {
	if e.Kind != dl.KindIndividual || int(e.ID) >= k.st.IndividualCount() {
		return 0, foreign(e, dl.KindIndividual)
	}
	return IndividualID(e.ID), nil
}

func (k *Kernel) datatype(e dl.Entity) (DatatypeID, error) {
	if e.Kind != dl.KindDatatype || int(e.ID) >= k.st.DatatypeCount() {
		return 0, foreign(e, dl.KindDatatype)
	}
	return DatatypeID(e.ID), nil
}

// Concept interns a named class.
func (k *Kernel) Concept(name string) dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := k.st.ConceptCount()
	c := k.st.InternConcept(name)
	if k.st.ConceptCount() != n {
		k.changed()
	}
	return k.conceptEntity(c)
}

// ObjectRole interns a named object property.
func (k *Kernel) ObjectRole(name string) dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := k.st.RoleCount()
	r := k.st.InternRole(name)
	if k.st.RoleCount() != n {
		k.changed()
	}
	return k.roleEntity(r)
}

// DataRole interns a named data property.
func (k *Kernel) DataRole(name string) dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := k.st.DataRoleCount()
	id := k.st.InternDataRole(name)
	if k.st.DataRoleCount() != n {
		k.changed()
	}
	return dl.Entity{Kind: dl.KindDataRole, ID: uint32(id), Name: name}
}

// Individual interns a named individual.
func (k *Kernel) Individual(name string) dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := k.st.IndividualCount()
	i := k.st.InternIndividual(name)
	if k.st.IndividualCount() != n {
		k.changed()
	}
	return k.individualEntity(i)
}

// Datatype interns a datatype IRI.
func (k *Kernel) Datatype(name string) dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.st.InternDatatype(name)
	return dl.Entity{Kind: dl.KindDatatype, ID: uint32(id), Name: name}
}

// Top returns owl:Thing.
func (k *Kernel) Top() dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.conceptEntity(Top)
}

// Bottom returns owl:Nothing.
func (k *Kernel) Bottom() dl.Entity {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.conceptEntity(Bottom)
}

// define returns the anonymous concept for an expression, reusing a
// previous one with the same shape.
func (k *Kernel) define(def conceptDef) ConceptID {
	key := fmt.Sprintf("%d/%d/%d/%v", def.kind, def.role, def.n, def.args)
	if c, ok := k.defs[key]; ok {
		return c
	}
	c := k.st.FreshConcept()
	k.defs[key] = c
	k.tb.defs[c] = def
	k.changed()
	return c
}

// Intersection returns the conjunction of cs.
func (k *Kernel) Intersection(cs []dl.Entity) (dl.Entity, error) {
	return k.combine(exprAnd, "Intersection", cs)
}

// Union returns the disjunction of cs.
func (k *Kernel) Union(cs []dl.Entity) (dl.Entity, error) {
	return k.combine(exprOr, "Union", cs)
}

func (k *Kernel) combine(kind exprKind, method string, cs []dl.Entity) (dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(cs) == 0 {
		return dl.Entity{}, wrap(ErrEmptyExpression, method, "build expression")
	}
	ids, err := k.concepts(cs)
	if err != nil {
		return dl.Entity{}, wrap(err, method, "resolve operands")
	}
	if len(ids) == 1 {
		return k.conceptEntity(ids[0]), nil
	}
	return k.conceptEntity(k.define(conceptDef{kind: kind, args: ids})), nil
}

// ObjectExists returns ∃role.filler.
func (k *Kernel) ObjectExists(role, filler dl.Entity) (dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.role(role)
	if err != nil {
		return dl.Entity{}, wrap(err, "ObjectExists", "resolve role")
	}
	c, err := k.concept(filler)
	if err != nil {
		return dl.Entity{}, wrap(err, "ObjectExists", "resolve filler")
	}
	return k.conceptEntity(k.define(conceptDef{kind: exprSome, role: r, args: []ConceptID{c}})), nil
}

// ObjectMaxCardinality returns ≤n role.filler. The kernel does not assume
// unique names: only fillers declared different count against the bound.
func (k *Kernel) ObjectMaxCardinality(n int, role, filler dl.Entity) (dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if n < 0 {
		return dl.Entity{}, wrap(fmt.Errorf("%w: %d", ErrInvalidCardinality, n), "ObjectMaxCardinality", "check bound")
	}
	r, err := k.role(role)
	if err != nil {
		return dl.Entity{}, wrap(err, "ObjectMaxCardinality", "resolve role")
	}
	c, err := k.concept(filler)
	if err != nil {
		return dl.Entity{}, wrap(err, "ObjectMaxCardinality", "resolve filler")
	}
	return k.conceptEntity(k.define(conceptDef{kind: exprAtMost, role: r, n: n, args: []ConceptID{c}})), nil
}

// InstanceOf asserts ind ∈ c.
func (k *Kernel) InstanceOf(ind, c dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	i, err := k.individual(ind)
	if err != nil {
		return wrap(err, "InstanceOf", "resolve individual")
	}
	cid, err := k.concept(c)
	if err != nil {
		return wrap(err, "InstanceOf", "resolve concept")
	}
	k.log.types = append(k.log.types, typeAssertion{ind: i, concept: cid})
	k.changed()
	return nil
}

// ImpliesConcepts asserts sub ⊑ sup.
func (k *Kernel) ImpliesConcepts(sub, sup dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids, err := k.concepts([]dl.Entity{sub, sup})
	if err != nil {
		return wrap(err, "ImpliesConcepts", "resolve concepts")
	}
	k.tb.subs = append(k.tb.subs, conceptPair{ids[0], ids[1]})
	k.changed()
	return nil
}

// EqualConcepts asserts that all of cs are equivalent.
func (k *Kernel) EqualConcepts(cs []dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids, err := k.concepts(cs)
	if err != nil {
		return wrap(err, "EqualConcepts", "resolve concepts")
	}
	for i := 1; i < len(ids); i++ {
		k.tb.subs = append(k.tb.subs,
			conceptPair{ids[0], ids[i]},
			conceptPair{ids[i], ids[0]})
	}
	k.changed()
	return nil
}

// DisjointConcepts asserts that cs are pairwise disjoint.
func (k *Kernel) DisjointConcepts(cs []dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids, err := k.concepts(cs)
	if err != nil {
		return wrap(err, "DisjointConcepts", "resolve concepts")
	}
	k.tb.disjoint = append(k.tb.disjoint, ids)
	k.changed()
	return nil
}

// DifferentIndividuals asserts that is name pairwise different individuals.
func (k *Kernel) DifferentIndividuals(is []dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids := make([]IndividualID, len(is))
	for n, e := range is {
		i, err := k.individual(e)
		if err != nil {
			return wrap(err, "DifferentIndividuals", "resolve individual")
		}
		ids[n] = i
	}
	k.log.different = append(k.log.different, ids)
	k.changed()
	return nil
}

func (k *Kernel) roleConcept(method string, role, c dl.Entity) (RoleID, ConceptID, error) {
	r, err := k.role(role)
	if err != nil {
		return 0, 0, wrap(err, method, "resolve role")
	}
	cid, err := k.concept(c)
	if err != nil {
		return 0, 0, wrap(err, method, "resolve concept")
	}
	return r, cid, nil
}

// SetObjectDomain asserts ∃role.⊤ ⊑ c.
func (k *Kernel) SetObjectDomain(role, c dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, cid, err := k.roleConcept("SetObjectDomain", role, c)
	if err != nil {
		return err
	}
	k.tb.domains[r] = appendConcept(k.tb.domains[r], cid)
	k.changed()
	return nil
}

// SetObjectRange asserts ⊤ ⊑ ∀role.c.
func (k *Kernel) SetObjectRange(role, c dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, cid, err := k.roleConcept("SetObjectRange", role, c)
	if err != nil {
		return err
	}
	k.tb.ranges[r] = appendConcept(k.tb.ranges[r], cid)
	k.changed()
	return nil
}

// SetDataDomain asserts that subjects of role are instances of c.
func (k *Kernel) SetDataDomain(role, c dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.dataRole(role)
	if err != nil {
		return wrap(err, "SetDataDomain", "resolve role")
	}
	cid, err := k.concept(c)
	if err != nil {
		return wrap(err, "SetDataDomain", "resolve concept")
	}
	k.tb.dataDomains[r] = appendConcept(k.tb.dataDomains[r], cid)
	k.changed()
	return nil
}

// SetDataRange records the datatype of role's values.
func (k *Kernel) SetDataRange(role, dt dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.dataRole(role)
	if err != nil {
		return wrap(err, "SetDataRange", "resolve role")
	}
	d, err := k.datatype(dt)
	if err != nil {
		return wrap(err, "SetDataRange", "resolve datatype")
	}
	k.tb.dataRanges[r] = append(k.tb.dataRanges[r], d)
	k.changed()
	return nil
}

func appendConcept(cs []ConceptID, c ConceptID) []ConceptID {
	for _, existing := range cs {
		if existing == c {
			return cs
		}
	}
	return append(cs, c)
}

// ImpliesObjectRoles asserts sub ⊑ sup.
func (k *Kernel) ImpliesObjectRoles(sub, sup dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, err := k.role(sub)
	if err != nil {
		return wrap(err, "ImpliesObjectRoles", "resolve sub role")
	}
	p, err := k.role(sup)
	if err != nil {
		return wrap(err, "ImpliesObjectRoles", "resolve super role")
	}
	k.tb.roleSubs = append(k.tb.roleSubs, rolePair{s, p})
	k.changed()
	return nil
}

// ImpliesDataRoles asserts sub ⊑ sup.
func (k *Kernel) ImpliesDataRoles(sub, sup dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, err := k.dataRole(sub)
	if err != nil {
		return wrap(err, "ImpliesDataRoles", "resolve sub role")
	}
	p, err := k.dataRole(sup)
	if err != nil {
		return wrap(err, "ImpliesDataRoles", "resolve super role")
	}
	k.tb.dataSubs = append(k.tb.dataSubs, dataRolePair{s, p})
	k.changed()
	return nil
}

// EqualObjectRoles asserts that all of rs are equivalent.
func (k *Kernel) EqualObjectRoles(rs []dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids := make([]RoleID, len(rs))
	for i, e := range rs {
		r, err := k.role(e)
		if err != nil {
			return wrap(err, "EqualObjectRoles", "resolve role")
		}
		ids[i] = r
	}
	for i := 1; i < len(ids); i++ {
		k.tb.roleSubs = append(k.tb.roleSubs, rolePair{ids[0], ids[i]}, rolePair{ids[i], ids[0]})
	}
	k.changed()
	return nil
}

// EqualDataRoles asserts that all of rs are equivalent.
func (k *Kernel) EqualDataRoles(rs []dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids := make([]DataRoleID, len(rs))
	for i, e := range rs {
		r, err := k.dataRole(e)
		if err != nil {
			return wrap(err, "EqualDataRoles", "resolve role")
		}
		ids[i] = r
	}
	for i := 1; i < len(ids); i++ {
		k.tb.dataSubs = append(k.tb.dataSubs, dataRolePair{ids[0], ids[i]}, dataRolePair{ids[i], ids[0]})
	}
	k.changed()
	return nil
}

// SetInverseRoles asserts r ≡ s⁻.
func (k *Kernel) SetInverseRoles(r, s dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	a, err := k.role(r)
	if err != nil {
		return wrap(err, "SetInverseRoles", "resolve role")
	}
	b, err := k.role(s)
	if err != nil {
		return wrap(err, "SetInverseRoles", "resolve inverse")
	}
	k.tb.inverses = append(k.tb.inverses, rolePair{a, b})
	k.changed()
	return nil
}

func (k *Kernel) setRoleFlag(method string, role dl.Entity, flags map[RoleID]bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.role(role)
	if err != nil {
		return wrap(err, method, "resolve role")
	}
	flags[r] = true
	k.changed()
	return nil
}

func (k *Kernel) SetObjectFunctional(role dl.Entity) error {
	return k.setRoleFlag("SetObjectFunctional", role, k.tb.functional)
}

func (k *Kernel) SetInverseFunctional(role dl.Entity) error {
	return k.setRoleFlag("SetInverseFunctional", role, k.tb.invFunc)
}

func (k *Kernel) SetTransitive(role dl.Entity) error {
	return k.setRoleFlag("SetTransitive", role, k.tb.transitive)
}

func (k *Kernel) SetSymmetric(role dl.Entity) error {
	return k.setRoleFlag("SetSymmetric", role, k.tb.symmetric)
}

func (k *Kernel) SetDataFunctional(role dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.dataRole(role)
	if err != nil {
		return wrap(err, "SetDataFunctional", "resolve role")
	}
	k.tb.dataFunctional[r] = true
	k.changed()
	return nil
}

// RelatedTo asserts role(s, o).
func (k *Kernel) RelatedTo(s, role, o dl.Entity) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	si, err := k.individual(s)
	if err != nil {
		return wrap(err, "RelatedTo", "resolve subject")
	}
	r, err := k.role(role)
	if err != nil {
		return wrap(err, "RelatedTo", "resolve role")
	}
	oi, err := k.individual(o)
	if err != nil {
		return wrap(err, "RelatedTo", "resolve object")
	}
	k.log.related = append(k.log.related, roleAssertion{s: si, role: r, o: oi})
	k.changed()
	return nil
}

// ValueOf asserts role(s, value) for a data role. Stored values are not
// queryable; they only take part in domain and functionality reasoning.
func (k *Kernel) ValueOf(s, role dl.Entity, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	si, err := k.individual(s)
	if err != nil {
		return wrap(err, "ValueOf", "resolve subject")
	}
	r, err := k.dataRole(role)
	if err != nil {
		return wrap(err, "ValueOf", "resolve role")
	}
	k.log.values = append(k.log.values, valueAssertion{s: si, role: r, value: value})
	k.changed()
	return nil
}

func (k *Kernel) conceptList(cs []ConceptID) []dl.Entity {
	if len(cs) == 0 {
		return []dl.Entity{k.conceptEntity(Top)}
	}
	out := make([]dl.Entity, len(cs))
	for i, c := range cs {
		out[i] = k.conceptEntity(c)
	}
	return out
}

// ObjectDomain returns the declared domains of role, or owl:Thing.
func (k *Kernel) ObjectDomain(role dl.Entity) ([]dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.role(role)
	if err != nil {
		return nil, wrap(err, "ObjectDomain", "resolve role")
	}
	return k.conceptList(k.tb.domains[r]), nil
}

// ObjectRange returns the declared ranges of role, or owl:Thing.
func (k *Kernel) ObjectRange(role dl.Entity) ([]dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.role(role)
	if err != nil {
		return nil, wrap(err, "ObjectRange", "resolve role")
	}
	return k.conceptList(k.tb.ranges[r]), nil
}

// DataDomain returns the declared domains of a data role, or owl:Thing.
func (k *Kernel) DataDomain(role dl.Entity) ([]dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, err := k.dataRole(role)
	if err != nil {
		return nil, wrap(err, "DataDomain", "resolve role")
	}
	return k.conceptList(k.tb.dataDomains[r]), nil
}

// classified returns the saturated TBox, rebuilding it when stale.
func (k *Kernel) classified() []Context {
	if k.contexts != nil {
		return k.contexts
	}
	start := time.Now()
	store := Normalize(k.st, k.tb)
	k.normalizeTime = time.Since(start)

	start = time.Now()
	k.contexts = Saturate(store)
	k.saturateTime = time.Since(start)

	k.logger.Debug("tbox saturated",
		"concepts", k.st.ConceptCount(),
		"slots", store.Concepts(),
		"axioms", store.Size(),
		"roles", k.st.RoleCount(),
		"took", k.saturateTime)
	return k.contexts
}

// realised returns the ABox encoding, rebuilding it when stale.
func (k *Kernel) realised() *abox {
	if k.ab != nil {
		return k.ab
	}
	k.ab = buildABox(k.st, k.tb, &k.log, k.classified())
	if k.ab.clash != "" {
		k.logger.Debug("abox clash", "reason", k.ab.clash)
	}
	return k.ab
}

func (k *Kernel) consistentABox(method string) (*abox, error) {
	a := k.realised()
	if !a.consistent {
		return nil, wrap(ErrInconsistent, method, "realise")
	}
	return a, nil
}

// Instances returns the individuals entailed to be instances of c, in
// creation order.
func (k *Kernel) Instances(c dl.Entity) ([]dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	cid, err := k.concept(c)
	if err != nil {
		return nil, wrap(err, "Instances", "resolve concept")
	}
	a, err := k.consistentABox("Instances")
	if err != nil {
		return nil, err
	}
	ids := a.instancesOf(cid)
	out := make([]dl.Entity, len(ids))
	for n, i := range ids {
		out[n] = k.individualEntity(i)
	}
	return out, nil
}

// RoleFillers returns the individuals related to ind through role, taking
// sub-roles, inverses, symmetry and transitivity into account.
func (k *Kernel) RoleFillers(ind, role dl.Entity) ([]dl.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	i, err := k.individual(ind)
	if err != nil {
		return nil, wrap(err, "RoleFillers", "resolve individual")
	}
	r, err := k.role(role)
	if err != nil {
		return nil, wrap(err, "RoleFillers", "resolve role")
	}
	ids := k.realised().fillers(i, r)
	out := make([]dl.Entity, len(ids))
	for n, f := range ids {
		out[n] = k.individualEntity(f)
	}
	return out, nil
}

// IsInstance reports whether ind ∈ c is entailed.
func (k *Kernel) IsInstance(ind, c dl.Entity) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	i, err := k.individual(ind)
	if err != nil {
		return false, wrap(err, "IsInstance", "resolve individual")
	}
	cid, err := k.concept(c)
	if err != nil {
		return false, wrap(err, "IsInstance", "resolve concept")
	}
	a, err := k.consistentABox("IsInstance")
	if err != nil {
		return false, err
	}
	return a.isInstance(i, cid), nil
}

// IsSubsumedBy reports whether c ⊑ d follows from the TBox.
func (k *Kernel) IsSubsumedBy(c, d dl.Entity) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids, err := k.concepts([]dl.Entity{c, d})
	if err != nil {
		return false, wrap(err, "IsSubsumedBy", "resolve concepts")
	}
	ctx := &k.classified()[ids[0]]
	return ids[1] == Top || ctx.Subsumes(ids[1]) || ctx.Unsatisfiable(), nil
}

// IsSatisfiable reports whether c can have instances.
func (k *Kernel) IsSatisfiable(c dl.Entity) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	cid, err := k.concept(c)
	if err != nil {
		return false, wrap(err, "IsSatisfiable", "resolve concept")
	}
	return !k.classified()[cid].Unsatisfiable(), nil
}

// IsSubObjectRole reports whether sub ⊑ sup in the role hierarchy.
func (k *Kernel) IsSubObjectRole(sub, sup dl.Entity) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, err := k.role(sub)
	if err != nil {
		return false, wrap(err, "IsSubObjectRole", "resolve sub role")
	}
	p, err := k.role(sup)
	if err != nil {
		return false, wrap(err, "IsSubObjectRole", "resolve super role")
	}
	for _, r := range superRoles(k.st.RoleCount(), k.tb.roleSubs)[s] {
		if r == p {
			return true, nil
		}
	}
	return false, nil
}

// IsSubDataRole reports whether sub ⊑ sup in the data role hierarchy.
func (k *Kernel) IsSubDataRole(sub, sup dl.Entity) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, err := k.dataRole(sub)
	if err != nil {
		return false, wrap(err, "IsSubDataRole", "resolve sub role")
	}
	p, err := k.dataRole(sup)
	if err != nil {
		return false, wrap(err, "IsSubDataRole", "resolve super role")
	}
	for _, r := range superDataRoles(k.st.DataRoleCount(), k.tb.dataSubs)[s] {
		if r == p {
			return true, nil
		}
	}
	return false, nil
}

// IsConsistent checks the whole knowledge base.
func (k *Kernel) IsConsistent() (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.realised().consistent, nil
}

// Realise computes the instances of every named concept.
func (k *Kernel) Realise() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	a, err := k.consistentABox("Realise")
	if err != nil {
		return err
	}
	for c := ConceptID(0); c < ConceptID(k.st.ConceptCount()); c++ {
		if c == Top || k.st.IsNamed(c) {
			a.instancesOf(c)
		}
	}
	return nil
}

// Classify saturates the TBox and returns the classified hierarchy of named
// concepts. Instances are filled in when the knowledge base is consistent.
func (k *Kernel) Classify() (*ClassifiedHierarchy, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	contexts := k.classified()
	start := time.Now()
	tax := BuildTaxonomy(contexts, k.st)
	reduction := time.Since(start)

	stats := MakeStats(k.st, 0, k.normalizeTime, k.saturateTime, reduction)
	a := k.realised()
	stats.Consistent = a.consistent

	var instances func(ConceptID) []string
	if a.consistent {
		instances = func(c ConceptID) []string {
			ids := a.instancesOf(c)
			names := make([]string, len(ids))
			for n, i := range ids {
				names[n] = k.st.IndividualName(i)
			}
			sort.Strings(names)
			return names
		}
	}
	return tax.ToJSON(contexts, k.st, stats, instances), nil
}
