// ABOUTME: Drug class links carried by entries, resolved to entry keys
// ABOUTME: Entries without their own drug classes inherit their gene family's

package hierarchy

import (
	"fmt"
	"slices"

	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
)

// resolveDrugClasses maps e's drug class accessions to keys. Accessions
// bound to zero or several entries are reported and skipped.
func resolveDrugClasses(e ontology.Entry, ix *index.Index, diag *ontology.Diagnostics) []ontology.Key {
	var out []ontology.Key
	for _, acc := range e.DrugClasses {
		keys := ix.LookupAccession(acc)
		if len(keys) != 1 {
			diag.Add(ontology.WarnUnresolvedDrugClass,
				fmt.Sprintf("%s lists drug class %s bound to %d entries", e.Accession, acc, len(keys)),
				append([]ontology.Key{e.Key}, keys...)...)
			continue
		}
		if !slices.Contains(out, keys[0]) {
			out = append(out, keys[0])
		}
	}
	slices.Sort(out)
	return out
}

// DrugClassesOf returns the drug classes of key in key order. An entry that
// lists none takes the union of its direct parents' own drug classes, so a
// variant answers with its gene family's classes.
func (g *Graph) DrugClassesOf(key ontology.Key) []ontology.Key {
	if !g.store.Owns(key) {
		return nil
	}
	if own := g.drugClasses[key.Index()]; len(own) > 0 {
		return slices.Clone(own)
	}
	var out []ontology.Key
	for _, p := range g.parents[key.Index()] {
		for _, dc := range g.drugClasses[p.Index()] {
			if !slices.Contains(out, dc) {
				out = append(out, dc)
			}
		}
	}
	slices.Sort(out)
	return out
}
