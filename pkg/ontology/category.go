// ABOUTME: Best-effort category hints derived from CARD naming conventions
// ABOUTME: Used only to filter ambiguous candidates, never as ground truth

package ontology

import "strings"

// Category is a coarse classification of an entry
type Category string

const (
	CategoryNone              Category = ""
	CategoryBetaLactamase     Category = "beta-lactamase"
	CategoryEffluxPump        Category = "efflux pump"
	CategoryRibosomalProtect  Category = "ribosomal protection protein"
	CategoryTargetProtection  Category = "target protection"
	CategoryMethyltransferase Category = "methyltransferase"
	CategoryModifyingEnzyme   Category = "antibiotic modifying enzyme"
	CategoryPorin             Category = "porin"
	CategoryRegulator         Category = "regulator"
	CategoryDrugClass         Category = "drug class"
	CategoryMechanism         Category = "resistance mechanism"
	CategoryAnatomy           Category = "anatomy"
	CategoryDisease           Category = "disease"
)

type categoryRule struct {
	category Category
	patterns []string // matched against the normalized text, first rule wins
}

// categoryRules is evaluated in order. More specific gene product rules come
// before the broad drug class and mechanism rules.
var categoryRules = []categoryRule{
	{CategoryBetaLactamase, []string{"beta-lactamase", "beta lactamase", "β-lactamase", "carbapenemase"}},
	{CategoryEffluxPump, []string{"efflux pump", "efflux"}},
	{CategoryRibosomalProtect, []string{"ribosomal protection protein"}},
	{CategoryTargetProtection, []string{"target protection"}},
	{CategoryMethyltransferase, []string{"methyltransferase"}},
	{CategoryModifyingEnzyme, []string{"acetyltransferase", "phosphotransferase", "nucleotidyltransferase", "adenylyltransferase"}},
	{CategoryPorin, []string{"porin"}},
	{CategoryRegulator, []string{"regulator", "repressor", "activator"}},
	{CategoryDrugClass, []string{" antibiotic", "antibiotics"}},
	{CategoryMechanism, []string{"antibiotic inactivation", "antibiotic target alteration", "antibiotic target replacement", "reduced permeability"}},
	{CategoryAnatomy, []string{"skin", "epidermis", "dermis", "tissue"}},
	{CategoryDisease, []string{"disease", "infection", "syndrome"}},
}

// DeriveCategory infers a category from an entry name
func DeriveCategory(name string) Category {
	norm := NormalizeName(name)
	if norm == "" {
		return CategoryNone
	}
	for _, rule := range categoryRules {
		for _, p := range rule.patterns {
			if strings.Contains(norm, p) {
				return rule.category
			}
		}
	}
	return CategoryNone
}

// ParseCategory maps a caller supplied hint to a category. The hint may be a
// category label ("anatomy") or any text the naming rules recognise
// ("skin disease", "class A beta-lactamase").
func ParseCategory(hint string) Category {
	norm := NormalizeName(hint)
	if norm == "" {
		return CategoryNone
	}
	for _, rule := range categoryRules {
		if string(rule.category) == norm {
			return rule.category
		}
	}
	return DeriveCategory(norm)
}

// Categories lists every category the naming rules can produce
func Categories() []Category {
	out := make([]Category, 0, len(categoryRules))
	for _, rule := range categoryRules {
		out = append(out, rule.category)
	}
	return out
}
