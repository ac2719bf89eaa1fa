package reasoner

import "strings"

// ConceptID is an integer identifier for a concept, named or anonymous.
type ConceptID uint32

// RoleID is an integer identifier for an object property (role).
type RoleID uint32

// DataRoleID is an integer identifier for a data property.
type DataRoleID uint32

// IndividualID is an integer identifier for a named individual.
type IndividualID uint32

// DatatypeID is an integer identifier for a datatype.
type DatatypeID uint32

const (
	Top    ConceptID = 0 // owl:Thing
	Bottom ConceptID = 1 // owl:Nothing
)

const (
	topName    = "http://www.w3.org/2002/07/owl#Thing"
	bottomName = "http://www.w3.org/2002/07/owl#Nothing"
)

// nameTable interns strings to dense integer ids.
type nameTable struct {
	toID map[string]uint32
	byID []string
}

func newNameTable(capacity int) nameTable {
	return nameTable{
		toID: make(map[string]uint32, capacity),
		byID: make([]string, 0, capacity),
	}
}

func (t *nameTable) intern(name string) uint32 {
	if id, ok := t.toID[name]; ok {
		return id
	}
	id := uint32(len(t.byID))
	t.toID[name] = id
	t.byID = append(t.byID, name)
	return id
}

func (t *nameTable) name(id uint32) string {
	if int(id) < len(t.byID) {
		return t.byID[id]
	}
	return ""
}

func (t *nameTable) len() int { return len(t.byID) }

// SymbolTable maps IRIs/names to integer IDs for the kernel's inner loops.
// Concepts without a name are anonymous class expressions.
type SymbolTable struct {
	conceptToID map[string]ConceptID
	idToConcept []string
	roleToID    map[string]RoleID
	idToRole    []string

	dataRoles   nameTable
	individuals nameTable
	datatypes   nameTable
}

func NewSymbolTable() *SymbolTable {
	concepts := make([]string, 2, 1024)
	concepts[Top] = topName
	concepts[Bottom] = bottomName

	st := &SymbolTable{
		conceptToID: make(map[string]ConceptID, 1024),
		idToConcept: concepts,
		roleToID:    make(map[string]RoleID, 32),
		idToRole:    make([]string, 0, 32),
		dataRoles:   newNameTable(32),
		individuals: newNameTable(256),
		datatypes:   newNameTable(8),
	}
	st.conceptToID[topName] = Top
	st.conceptToID[bottomName] = Bottom
	return st
}

// InternConcept returns the ConceptID for the given name, creating one if needed.
func (st *SymbolTable) InternConcept(name string) ConceptID {
	if id, ok := st.conceptToID[name]; ok {
		return id
	}
	id := ConceptID(len(st.idToConcept))
	st.conceptToID[name] = id
	st.idToConcept = append(st.idToConcept, name)
	return id
}

// InternRole returns the RoleID for the given name, creating one if needed.
func (st *SymbolTable) InternRole(name string) RoleID {
	if id, ok := st.roleToID[name]; ok {
		return id
	}
	id := RoleID(len(st.idToRole))
	st.roleToID[name] = id
	st.idToRole = append(st.idToRole, name)
	return id
}

func (st *SymbolTable) InternDataRole(name string) DataRoleID {
	return DataRoleID(st.dataRoles.intern(name))
}

func (st *SymbolTable) InternIndividual(name string) IndividualID {
	return IndividualID(st.individuals.intern(name))
}

func (st *SymbolTable) InternDatatype(name string) DatatypeID {
	return DatatypeID(st.datatypes.intern(name))
}

func (st *SymbolTable) ConceptCount() int    { return len(st.idToConcept) }
func (st *SymbolTable) RoleCount() int       { return len(st.idToRole) }
func (st *SymbolTable) DataRoleCount() int   { return st.dataRoles.len() }
func (st *SymbolTable) IndividualCount() int { return st.individuals.len() }
func (st *SymbolTable) DatatypeCount() int   { return st.datatypes.len() }

// ConceptName returns the string name for a ConceptID.
func (st *SymbolTable) ConceptName(id ConceptID) string {
	if int(id) < len(st.idToConcept) {
		return st.idToConcept[id]
	}
	return ""
}

// RoleName returns the string name for a RoleID.
func (st *SymbolTable) RoleName(id RoleID) string {
	if int(id) < len(st.idToRole) {
		return st.idToRole[id]
	}
	return ""
}

func (st *SymbolTable) DataRoleName(id DataRoleID) string {
	return st.dataRoles.name(uint32(id))
}

func (st *SymbolTable) IndividualName(id IndividualID) string {
	return st.individuals.name(uint32(id))
}

func (st *SymbolTable) DatatypeName(id DatatypeID) string {
	return st.datatypes.name(uint32(id))
}

// FreshConcept creates a new anonymous concept.
func (st *SymbolTable) FreshConcept() ConceptID {
	id := ConceptID(len(st.idToConcept))
	st.idToConcept = append(st.idToConcept, "")
	return id
}

// IsNamed reports whether c is a named class, i.e. neither an anonymous
// expression nor a blank-node class.
func (st *SymbolTable) IsNamed(c ConceptID) bool {
	name := st.ConceptName(c)
	return name != "" && !strings.HasPrefix(name, "_:")
}
