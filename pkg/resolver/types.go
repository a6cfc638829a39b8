// ABOUTME: Query and result values of the resolver
// ABOUTME: Every outcome, including ambiguity and invalid input, is a value

package resolver

import (
	"github.com/nainya/aroresolve/pkg/ontology"
)

// Kind selects the resolution path
type Kind uint8

const (
	ByAccession Kind = iota + 1
	ByName
	ByFreeText
)

func (k Kind) String() string {
	switch k {
	case ByAccession:
		return "accession"
	case ByName:
		return "name"
	case ByFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}

// Query is one resolution request
type Query struct {
	Kind         Kind
	Text         string
	CategoryHint string // optional, narrows ambiguous candidates
}

// AccessionQuery builds a ByAccession query
func AccessionQuery(accession string) Query {
	return Query{Kind: ByAccession, Text: accession}
}

// NameQuery builds a ByName query
func NameQuery(name string) Query {
	return Query{Kind: ByName, Text: name}
}

// FreeTextQuery builds a ByFreeText query with an optional category hint
func FreeTextQuery(text, hint string) Query {
	return Query{Kind: ByFreeText, Text: text, CategoryHint: hint}
}

// Outcome tags a Result
type Outcome uint8

const (
	OutcomeResolved Outcome = iota + 1
	OutcomeAmbiguous
	OutcomeNotFound
	OutcomeInvalidQuery
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalidQuery:
		return "invalid_query"
	default:
		return "unknown"
	}
}

// Confidence qualifies a Resolved or Ambiguous result
type Confidence uint8

const (
	ConfidenceNone Confidence = iota
	ConfidenceExact
	ConfidenceDisambiguated // a category hint reduced the candidates to one
	ConfidenceAdvisory      // ranked free text candidates
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceDisambiguated:
		return "disambiguated"
	case ConfidenceAdvisory:
		return "advisory"
	default:
		return "none"
	}
}

// Candidate is one possible answer with the reason it was offered
type Candidate struct {
	Entry  ontology.Entry
	Score  int
	Reason string
}

// Result is the answer to a Query.
//
//	Resolved:     Entry and Confidence are set
//	Ambiguous:    Candidates holds at least one candidate, best first
//	NotFound:     Reason carries the user facing message
//	InvalidQuery: Reason says what was wrong with the query
type Result struct {
	Outcome    Outcome
	Entry      ontology.Entry
	Confidence Confidence
	Candidates []Candidate
	Reason     string
}

// Resolved reports whether the result names exactly one entry
func (r Result) Resolved() bool {
	return r.Outcome == OutcomeResolved
}
