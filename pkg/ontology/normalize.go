// ABOUTME: Name and accession normalization shared by indexing and queries
// ABOUTME: Case folding, whitespace collapsing and CARD accession forms

package ontology

import (
	"strings"

	"golang.org/x/text/cases"
)

// AccessionPrefix is the vocabulary prefix of CARD accessions
const AccessionPrefix = "ARO:"

// cardAccessionDigits is the length of the numeric part of a CARD accession
const cardAccessionDigits = 7

// NormalizeName case-folds s, trims it and collapses internal whitespace to
// single spaces. Digits and punctuation are preserved, so "TEM-1" and
// "TEM-10" stay distinct.
func NormalizeName(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	// A Caser is stateful; one per call keeps this safe for concurrent use
	return cases.Fold().String(strings.Join(fields, " "))
}

// CanonicalAccession rewrites the accession spellings seen in CARD exports
// to the "ARO:nnnnnnn" form: "ARO_3003080" (OWL IRI suffix), "aro:3003080"
// and the bare "3003080" used by the UI. Anything else is returned trimmed.
func CanonicalAccession(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return s
	case isDigits(s):
		return AccessionPrefix + s
	case len(s) > len(AccessionPrefix) && strings.EqualFold(s[:3], "ARO") && (s[3] == '_' || s[3] == ':'):
		return AccessionPrefix + s[4:]
	}
	return s
}

// AccessionNumber returns the part of a CARD accession after the prefix
func AccessionNumber(accession string) string {
	canon := CanonicalAccession(accession)
	if strings.HasPrefix(canon, AccessionPrefix) {
		return canon[len(AccessionPrefix):]
	}
	return canon
}

// IsCARDAccession reports whether accession carries a 7 digit CARD number
func IsCARDAccession(accession string) bool {
	num := AccessionNumber(accession)
	return len(num) == cardAccessionDigits && isDigits(num)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
