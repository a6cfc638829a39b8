// ABOUTME: Naming-convention rules that propose parent/child edges
// ABOUTME: Parents must be an exact, case-insensitive name match; no fuzzy matching

package hierarchy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
)

// Rule names the heuristic that produced an edge
type Rule string

const (
	// RuleFamilyMember links "<X>-<n>" to "<X> beta-lactamase" or, failing
	// that, to "<X>" (TEM-1 -> TEM beta-lactamase, CTX-M-15 -> CTX-M)
	RuleFamilyMember Rule = "family_member"

	// RuleHeadTerm links a multi-word name to the longest proper trailing
	// word sequence that is itself an entry name
	// (TEM beta-lactamase -> beta-lactamase)
	RuleHeadTerm Rule = "head_term"

	// RuleIsA follows explicit parent accessions carried by the source
	RuleIsA Rule = "is_a"
)

// familyMember matches a family stem followed by a numeric variant and an
// optional single letter suffix
var familyMember = regexp.MustCompile(`^(.*[^\s-])-[0-9]+[A-Za-z]?$`)

// familyParentForms lists the parent names tried for a family stem, in order
var familyParentForms = []string{"%s beta-lactamase", "%s"}

type proposal struct {
	parent ontology.Key
	rule   Rule
}

// propose runs every rule for e and returns candidate parents in rule order
func propose(e ontology.Entry, ix *index.Index, diag *ontology.Diagnostics) []proposal {
	var out []proposal

	if p, ok := familyParent(e, ix, diag); ok {
		out = append(out, proposal{parent: p, rule: RuleFamilyMember})
	}
	if p, ok := headTermParent(e, ix, diag); ok {
		out = append(out, proposal{parent: p, rule: RuleHeadTerm})
	}
	for _, acc := range e.Parents {
		keys := ix.LookupAccession(acc)
		switch len(keys) {
		case 0:
			diag.Add(ontology.WarnUnresolvedParent,
				fmt.Sprintf("%s lists unknown parent accession %s", e.Accession, acc), e.Key)
		case 1:
			out = append(out, proposal{parent: keys[0], rule: RuleIsA})
		default:
			diag.Add(ontology.WarnAmbiguousParent,
				fmt.Sprintf("%s lists parent accession %s bound to %d entries", e.Accession, acc, len(keys)),
				append([]ontology.Key{e.Key}, keys...)...)
		}
	}
	return out
}

func familyParent(e ontology.Entry, ix *index.Index, diag *ontology.Diagnostics) (ontology.Key, bool) {
	m := familyMember.FindStringSubmatch(e.Name)
	if m == nil {
		return 0, false
	}
	for _, form := range familyParentForms {
		name := fmt.Sprintf(form, m[1])
		if key, ok := uniqueName(e, name, ix, diag); ok {
			return key, true
		}
	}
	return 0, false
}

func headTermParent(e ontology.Entry, ix *index.Index, diag *ontology.Diagnostics) (ontology.Key, bool) {
	words := strings.Fields(ontology.NormalizeName(e.Name))
	for i := 1; i < len(words); i++ {
		head := strings.Join(words[i:], " ")
		if len(ix.Names(head)) == 0 {
			continue
		}
		return uniqueName(e, head, ix, diag)
	}
	return 0, false
}

// uniqueName resolves a hypothesised parent name. Shared names are not
// guessed at: they are reported and skipped.
func uniqueName(e ontology.Entry, name string, ix *index.Index, diag *ontology.Diagnostics) (ontology.Key, bool) {
	keys := ix.Names(ontology.NormalizeName(name))
	switch {
	case len(keys) == 0:
		return 0, false
	case len(keys) > 1:
		diag.Add(ontology.WarnAmbiguousParent,
			fmt.Sprintf("%q: parent name %q is shared by %d entries", e.Name, name, len(keys)),
			append([]ontology.Key{e.Key}, keys...)...)
		return 0, false
	case keys[0] == e.Key:
		return 0, false
	}
	return keys[0], true
}
