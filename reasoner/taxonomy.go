package reasoner

import (
	"encoding/json"
	"io"
	"sort"
	"time"
)

// Taxonomy holds the classified hierarchy after transitive reduction.
type Taxonomy struct {
	DirectParents  [][]ConceptID
	DirectChildren [][]ConceptID
	Equivalents    [][]ConceptID
}

// BuildTaxonomy extracts the direct subsumption hierarchy between named
// concepts from saturated contexts. Equivalent concepts are reported as
// such rather than as parents of each other.
func BuildTaxonomy(contexts []Context, st *SymbolTable) *Taxonomy {
	n := st.ConceptCount()
	tax := &Taxonomy{
		DirectParents:  make([][]ConceptID, n),
		DirectChildren: make([][]ConceptID, n),
		Equivalents:    make([][]ConceptID, n),
	}

	equivalent := func(a, b ConceptID) bool {
		return contexts[a].Subsumes(b) && contexts[b].Subsumes(a)
	}

	for c := ConceptID(2); c < ConceptID(n); c++ {
		if !st.IsNamed(c) || contexts[c].Unsatisfiable() {
			continue
		}

		candidates := make([]ConceptID, 0, len(contexts[c].superSet))
		for s := range contexts[c].superSet {
			if s == c || s == Top || s == Bottom || int(s) >= n || !st.IsNamed(s) {
				continue
			}
			if equivalent(c, s) {
				tax.Equivalents[c] = append(tax.Equivalents[c], s)
				continue
			}
			candidates = append(candidates, s)
		}

		// b is direct unless some other candidate lies strictly between c and b.
		direct := make([]ConceptID, 0, 4)
		for _, b := range candidates {
			isDirect := true
			for _, s := range candidates {
				if s == b || equivalent(s, b) {
					continue
				}
				if contexts[s].Subsumes(b) {
					isDirect = false
					break
				}
			}
			if isDirect {
				direct = append(direct, b)
			}
		}
		if len(direct) == 0 {
			direct = append(direct, Top)
		}

		sortIDs(direct)
		sortIDs(tax.Equivalents[c])
		tax.DirectParents[c] = direct
		for _, p := range direct {
			tax.DirectChildren[p] = append(tax.DirectChildren[p], c)
		}
	}

	return tax
}

func sortIDs(ids []ConceptID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// ClassifiedConcept represents a concept in the classified hierarchy.
type ClassifiedConcept struct {
	ID             string   `json:"id"`
	DirectParents  []string `json:"direct_parents"`
	DirectChildren []string `json:"direct_children,omitempty"`
	Equivalents    []string `json:"equivalents,omitempty"`
	Instances      []string `json:"instances,omitempty"`
	Unsatisfiable  bool     `json:"unsatisfiable,omitempty"`
}

// ClassificationStats holds timing and size metrics.
type ClassificationStats struct {
	ConceptCount         int   `json:"concept_count"`
	RoleCount            int   `json:"role_count"`
	IndividualCount      int   `json:"individual_count"`
	InferredSubsumptions int   `json:"inferred_subsumptions"`
	Consistent           bool  `json:"consistent"`
	ParseTimeMs          int64 `json:"parse_time_ms"`
	NormalizeTimeMs      int64 `json:"normalize_time_ms"`
	SaturateTimeMs       int64 `json:"saturate_time_ms"`
	ReductionTimeMs      int64 `json:"reduction_time_ms"`
	TotalTimeMs          int64 `json:"total_time_ms"`
}

// ClassifiedHierarchy is the top-level JSON output.
type ClassifiedHierarchy struct {
	Concepts []ClassifiedConcept `json:"concepts"`
	Stats    ClassificationStats `json:"stats"`
}

// ToJSON converts the taxonomy to a ClassifiedHierarchy for JSON output.
// instances may be nil, in which case no instances are reported.
func (tax *Taxonomy) ToJSON(contexts []Context, st *SymbolTable, stats ClassificationStats, instances func(ConceptID) []string) *ClassifiedHierarchy {
	result := &ClassifiedHierarchy{
		Stats: stats,
	}

	names := func(ids []ConceptID) []string {
		if len(ids) == 0 {
			return nil
		}
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, st.ConceptName(id))
		}
		return out
	}

	inferred := 0
	for c := ConceptID(2); c < ConceptID(st.ConceptCount()); c++ {
		if !st.IsNamed(c) {
			continue
		}
		for s := range contexts[c].superSet {
			if s != c && s != Top && int(s) < st.ConceptCount() && st.IsNamed(s) {
				inferred++
			}
		}

		cc := ClassifiedConcept{
			ID:             st.ConceptName(c),
			DirectParents:  names(tax.DirectParents[c]),
			DirectChildren: names(tax.DirectChildren[c]),
			Equivalents:    names(tax.Equivalents[c]),
			Unsatisfiable:  contexts[c].Unsatisfiable(),
		}
		if cc.DirectParents == nil {
			cc.DirectParents = []string{}
		}
		if instances != nil {
			cc.Instances = instances(c)
		}
		result.Concepts = append(result.Concepts, cc)
	}
	result.Stats.InferredSubsumptions = inferred

	sort.Slice(result.Concepts, func(i, j int) bool {
		return result.Concepts[i].ID < result.Concepts[j].ID
	})
	return result
}

// WriteClassifiedJSON writes the classified hierarchy as JSON.
func WriteClassifiedJSON(w io.Writer, hierarchy *ClassifiedHierarchy, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	return enc.Encode(hierarchy)
}

// MakeStats creates a ClassificationStats from timing durations.
func MakeStats(st *SymbolTable, parseTime, normTime, satTime, redTime time.Duration) ClassificationStats {
	total := parseTime + normTime + satTime + redTime
	named := 0
	for c := ConceptID(2); c < ConceptID(st.ConceptCount()); c++ {
		if st.IsNamed(c) {
			named++
		}
	}
	return ClassificationStats{
		ConceptCount:    named,
		RoleCount:       st.RoleCount(),
		IndividualCount: st.IndividualCount(),
		ParseTimeMs:     parseTime.Milliseconds(),
		NormalizeTimeMs: normTime.Milliseconds(),
		SaturateTimeMs:  satTime.Milliseconds(),
		ReductionTimeMs: redTime.Milliseconds(),
		TotalTimeMs:     total.Milliseconds(),
	}
}
