// ABOUTME: Non-fatal data-quality warnings collected while building indexes
// ABOUTME: A cluttered but loadable ontology still loads; problems are reported here

package ontology

import "fmt"

// WarningKind classifies a data-quality warning
type WarningKind string

const (
	WarnDuplicateAccession  WarningKind = "duplicate_accession"
	WarnEmptyNormalizedName WarningKind = "empty_normalized_name"
	WarnCyclicEdge          WarningKind = "cyclic_edge"
	WarnAmbiguousParent     WarningKind = "ambiguous_parent"
	WarnUnresolvedParent    WarningKind = "unresolved_parent"
	WarnUnresolvedDrugClass WarningKind = "unresolved_drug_class"
)

// Warning is one data-quality finding
type Warning struct {
	Kind   WarningKind
	Keys   []Key
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s %v", w.Kind, w.Detail, w.Keys)
}

// Diagnostics accumulates warnings. The zero value is ready to use; it is
// written only during a build and read-only afterwards.
type Diagnostics struct {
	Warnings []Warning
}

// Add records a warning
func (d *Diagnostics) Add(kind WarningKind, detail string, keys ...Key) {
	d.Warnings = append(d.Warnings, Warning{Kind: kind, Keys: keys, Detail: detail})
}

// Merge appends all warnings of other
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// Len returns the number of warnings
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Warnings)
}

// Count returns the number of warnings of one kind
func (d *Diagnostics) Count(kind WarningKind) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, w := range d.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// CountsByKind groups warning counts by kind
func (d *Diagnostics) CountsByKind() map[WarningKind]int {
	counts := make(map[WarningKind]int)
	if d == nil {
		return counts
	}
	for _, w := range d.Warnings {
		counts[w.Kind]++
	}
	return counts
}
