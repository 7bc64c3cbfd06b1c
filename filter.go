package codep

import (
	"fmt"
	"strings"
)

// DoseConstraint restricts cell lines by hotspot mutation dosage.
type DoseConstraint int

const (
	DoseAny      DoseConstraint = iota // no dosage restriction
	DoseExactly0                       // wild-type only
	DoseExactly1                       // one copy only
	DoseAtLeast1                       // any mutant
	DoseAtLeast2                       // two or more copies
)

// ParseDose maps a CLI dosage keyword to its constraint.
func ParseDose(s string) (DoseConstraint, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return DoseAny, nil
	case "wt", "0":
		return DoseExactly0, nil
	case "het", "1":
		return DoseExactly1, nil
	case "mut", "1+":
		return DoseAtLeast1, nil
	case "hom", "2+":
		return DoseAtLeast2, nil
	}

	return DoseAny, fmt.Errorf("unknown dosage constraint %q (use any, wt, het, mut or hom)", s)
}

func (c DoseConstraint) matches(dosage int) bool {
	switch c {
	case DoseExactly0:
		return dosage == 0
	case DoseExactly1:
		return dosage == 1
	case DoseAtLeast1:
		return dosage >= 1
	case DoseAtLeast2:
		return dosage >= 2
	}

	return true
}

// Filter selects the cell line subset of an analysis run. The zero value
// selects every cell line. All set predicates must hold at once.
type Filter struct {
	Lineage     string
	Sublineage  string
	HotspotGene string // gene whose mutation dosage is constrained
	Dosage      DoseConstraint
}

// active reports whether any predicate is set.
func (f *Filter) active() bool {
	if f == nil {
		return false
	}

	return f.Lineage != "" || f.Sublineage != "" || (f.HotspotGene != "" && f.Dosage != DoseAny)
}

// ResolveFilter returns the ordered column subset matching every predicate of
// f, and whether the filter narrowed the population. A nil or empty filter
// returns all columns. A filter that matches nothing returns an empty, non
// nil subset; that outcome is legitimate and must not fall back to "all".
func ResolveFilter(f *Filter, cells []CellInfo, hotspots HotspotTable) (cols []int, narrowed bool) {
	cols = make([]int, 0, len(cells))

	if !f.active() {
		for i := range cells {
			cols = append(cols, i)
		}

		return cols, false
	}

	for i, ci := range cells {
		if f.Lineage != "" && !strings.EqualFold(ci.Lineage, f.Lineage) {
			continue
		}

		if f.Sublineage != "" && !strings.EqualFold(ci.Sublineage, f.Sublineage) {
			continue
		}

		if f.HotspotGene != "" && !f.Dosage.matches(hotspots.Dosage(f.HotspotGene, ci.ID)) {
			continue
		}

		cols = append(cols, i)
	}

	return cols, len(cols) < len(cells)
}
