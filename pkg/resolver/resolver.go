// ABOUTME: Resolver over one generation: accession, name and free text paths
// ABOUTME: Pure function of immutable indexes; never picks among equal candidates

package resolver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nainya/aroresolve/pkg/hierarchy"
	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/search"
)

// DefaultFreeTextLimit bounds free text candidates when Options leaves it unset
const DefaultFreeTextLimit = 10

// Options configures a Resolver
type Options struct {
	FreeTextLimit int
}

// Resolver answers queries against one generation. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	store    *ontology.EntryStore
	ix       *index.Index
	graph    *hierarchy.Graph
	searcher *search.Searcher
	limit    int
}

// New creates a resolver over already built structures of one generation
func New(ix *index.Index, graph *hierarchy.Graph, searcher *search.Searcher, opts Options) *Resolver {
	limit := opts.FreeTextLimit
	if limit <= 0 {
		limit = DefaultFreeTextLimit
	}
	return &Resolver{
		store:    ix.Store(),
		ix:       ix,
		graph:    graph,
		searcher: searcher,
		limit:    limit,
	}
}

// NotFoundReason is the message carried by NotFound results
func NotFoundReason(query string) string {
	return fmt.Sprintf("No match found for %s in the CARD Antibiotic Resistance Ontology.", query)
}

// Resolve answers q. Empty or whitespace-only text is rejected before any
// index is consulted.
func (r *Resolver) Resolve(q Query) Result {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return invalid("query text is empty")
	}

	switch q.Kind {
	case ByAccession:
		return r.byAccession(text, q.CategoryHint)
	case ByName:
		return r.byName(text, q.CategoryHint)
	case ByFreeText:
		return r.byFreeText(text, q.CategoryHint)
	default:
		return invalid(fmt.Sprintf("unknown query kind %d", q.Kind))
	}
}

// ResolveByAccession resolves any accepted accession spelling
func (r *Resolver) ResolveByAccession(accession string) Result {
	return r.Resolve(AccessionQuery(accession))
}

// ResolveByName resolves a case and whitespace insensitive name or synonym
func (r *Resolver) ResolveByName(name string) Result {
	return r.Resolve(NameQuery(name))
}

// ResolveFreeText returns ranked advisory candidates for free text
func (r *Resolver) ResolveFreeText(text, hint string) Result {
	return r.Resolve(FreeTextQuery(text, hint))
}

func (r *Resolver) byAccession(text, hint string) Result {
	keys := r.ix.LookupAccession(text)
	if len(keys) == 0 {
		return notFound(text)
	}
	cands := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		cands = append(cands, r.candidate(k, search.ScoreExact, "accession match"))
	}
	acc := ontology.CanonicalAccession(text)
	return r.decide(cands, hint, fmt.Sprintf("%d entries share accession %s", len(cands), acc))
}

func (r *Resolver) byName(text, hint string) Result {
	norm := ontology.NormalizeName(text)
	if norm == "" {
		return invalid("query text is empty")
	}

	primary := r.ix.Names(norm)
	cands := make([]Candidate, 0, len(primary))
	for _, k := range primary {
		cands = append(cands, r.candidate(k, search.ScoreExact, "name match"))
	}
	for _, k := range r.ix.Synonyms(norm) {
		if slices.Contains(primary, k) {
			continue
		}
		cands = append(cands, r.candidate(k, search.ScoreExact, "synonym match"))
	}
	if len(cands) == 0 {
		return notFound(text)
	}
	return r.decide(cands, hint, fmt.Sprintf("%d entries are named %q", len(cands), norm))
}

func (r *Resolver) byFreeText(text, hint string) Result {
	hits := r.searcher.Search(text, r.limit)
	if len(hits) == 0 {
		return notFound(text)
	}

	cands := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		reason := fmt.Sprintf("%s match on %s %q", h.Tier, h.Field, h.Term)
		cands = append(cands, r.candidate(h.Key, h.Score, reason))
	}

	res := Result{
		Outcome:    OutcomeAmbiguous,
		Confidence: ConfidenceAdvisory,
		Candidates: cands,
		Reason:     "free text matches are advisory",
	}
	if hint == "" {
		return res
	}
	kept, note := r.filter(cands, hint)
	res.Candidates = kept
	res.Reason += "; " + note
	return res
}

// decide applies the category hint and turns candidates into a Resolved or
// Ambiguous result. A hint never removes every candidate.
func (r *Resolver) decide(cands []Candidate, hint, ambiguity string) Result {
	if hint == "" {
		if len(cands) == 1 {
			return resolved(cands[0], ConfidenceExact, "")
		}
		return Result{Outcome: OutcomeAmbiguous, Candidates: cands, Reason: ambiguity}
	}

	kept, note := r.filter(cands, hint)
	switch {
	case len(cands) == 1:
		return resolved(cands[0], ConfidenceExact, note)
	case len(kept) == 1:
		return resolved(kept[0], ConfidenceDisambiguated, note)
	default:
		return Result{Outcome: OutcomeAmbiguous, Candidates: kept, Reason: ambiguity + "; " + note}
	}
}

// filter keeps candidates whose category, or the category of any ancestor,
// matches hint. When nothing matches every candidate is kept.
func (r *Resolver) filter(cands []Candidate, hint string) ([]Candidate, string) {
	cat := ontology.ParseCategory(hint)
	if cat == ontology.CategoryNone {
		return cands, fmt.Sprintf("category hint %q not recognised", hint)
	}

	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if r.matchesCategory(c.Entry, cat) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return cands, fmt.Sprintf("no candidate matches category %q", cat)
	}
	return kept, fmt.Sprintf("filtered by category %q", cat)
}

func (r *Resolver) matchesCategory(e ontology.Entry, cat ontology.Category) bool {
	if e.Category == cat {
		return true
	}
	for k := range r.graph.AncestorsOf(e.Key) {
		if r.store.Get(k).Category == cat {
			return true
		}
	}
	return false
}

func (r *Resolver) candidate(key ontology.Key, score int, reason string) Candidate {
	e := r.store.Get(key)
	if e.Category != ontology.CategoryNone {
		reason = fmt.Sprintf("%s; category %s", reason, e.Category)
	}
	return Candidate{Entry: e, Score: score, Reason: reason}
}

func resolved(c Candidate, conf Confidence, reason string) Result {
	return Result{Outcome: OutcomeResolved, Entry: c.Entry, Confidence: conf, Reason: reason}
}

func notFound(text string) Result {
	return Result{Outcome: OutcomeNotFound, Reason: NotFoundReason(text)}
}

func invalid(reason string) Result {
	return Result{Outcome: OutcomeInvalidQuery, Reason: reason}
}
