// ABOUTME: Typeahead search over one index generation
// ABOUTME: Tiered scoring: exact, prefix, substring, then optional edit distance

package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
)

// Tier is the kind of match that produced a hit
type Tier uint8

const (
	TierFuzzy Tier = iota + 1
	TierSubstring
	TierPrefix
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPrefix:
		return "prefix"
	case TierSubstring:
		return "substring"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Tier base scores. Every substring hit scores above every fuzzy hit.
const (
	ScoreExact     = 3000
	ScorePrefix    = 2000
	ScoreSubstring = 1000
	ScoreFuzzy     = 500

	maxPositionPenalty = 499
	distancePenalty    = 100
)

// Hit is one ranked search result
type Hit struct {
	Key      ontology.Key
	Score    int
	Tier     Tier
	Field    index.Field
	Term     string // normalized term that matched
	Position int    // byte offset of the match inside Term
	Distance int    // edit distance, fuzzy tier only
}

// Options tunes the optional edit-distance tier
type Options struct {
	Fuzzy       bool
	MaxDistance int // 1..4
	MinQueryLen int // shorter queries never go fuzzy
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{Fuzzy: true, MaxDistance: 2, MinQueryLen: 4}
}

// Searcher answers partial queries. It is immutable after New and safe for
// concurrent use.
type Searcher struct {
	ix       *index.Index
	opts     Options
	terms    []string
	trigrams map[string][]int32 // trigram -> ascending term ids
}

// New builds the trigram table over every term of ix
func New(ix *index.Index, opts Options) *Searcher {
	if opts.MaxDistance < 1 {
		opts.MaxDistance = 1
	}
	if opts.MaxDistance > 4 {
		opts.MaxDistance = 4
	}

	s := &Searcher{
		ix:       ix,
		opts:     opts,
		terms:    make([]string, 0, ix.Terms()),
		trigrams: make(map[string][]int32),
	}
	ix.EachTerm(func(term string, _ []index.Posting) bool {
		id := int32(len(s.terms))
		s.terms = append(s.terms, term)
		for _, g := range trigramsOf(term) {
			s.trigrams[g] = append(s.trigrams[g], id)
		}
		return true
	})
	return s
}

// Options returns the effective options
func (s *Searcher) Options() Options {
	return s.opts
}

// Search returns at most limit hits ordered by descending score, ties broken
// by ascending key. Each entry appears once with its best scoring term.
func (s *Searcher) Search(text string, limit int) []Hit {
	q := ontology.NormalizeName(text)
	if q == "" || limit <= 0 {
		return nil
	}

	best := make(map[ontology.Key]Hit)
	offer := func(term string, postings []index.Posting, tier Tier, score, pos, dist int) {
		for _, p := range postings {
			h := Hit{Key: p.Key, Score: score, Tier: tier, Field: p.Field, Term: term, Position: pos, Distance: dist}
			if cur, ok := best[p.Key]; !ok || better(h, cur) {
				best[p.Key] = h
			}
		}
	}

	offer(q, s.ix.Postings(q), TierExact, ScoreExact, 0, 0)

	s.ix.ScanPrefix(q, func(term string, postings []index.Posting) bool {
		if term != q {
			offer(term, postings, TierPrefix, ScorePrefix, 0, 0)
		}
		return true
	})

	s.substrings(q, func(term string, pos int) {
		offer(term, s.ix.Postings(term), TierSubstring, ScoreSubstring-min(pos, maxPositionPenalty), pos, 0)
	})

	if s.opts.Fuzzy && len([]rune(q)) >= s.opts.MinQueryLen {
		s.fuzzy(q, func(term string, dist int) {
			offer(term, s.ix.Postings(term), TierFuzzy, ScoreFuzzy-distancePenalty*dist, 0, dist)
		})
	}

	hits := make([]Hit, 0, len(best))
	for _, h := range best {
		hits = append(hits, h)
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// substrings reports every term containing q at a position greater than
// zero. Position zero is the prefix tier.
func (s *Searcher) substrings(q string, fn func(term string, pos int)) {
	check := func(term string) {
		if pos := strings.Index(term, q); pos > 0 {
			fn(term, pos)
		}
	}

	grams := trigramsOf(q)
	if len(grams) == 0 {
		for _, term := range s.terms {
			check(term)
		}
		return
	}

	lists := make([][]int32, 0, len(grams))
	for _, g := range grams {
		ids, ok := s.trigrams[g]
		if !ok {
			return
		}
		lists = append(lists, ids)
	}
	slices.SortFunc(lists, func(a, b []int32) int { return cmp.Compare(len(a), len(b)) })

	candidates := lists[0]
	for _, l := range lists[1:] {
		candidates = intersect(candidates, l)
		if len(candidates) == 0 {
			return
		}
	}
	for _, id := range candidates {
		check(s.terms[id])
	}
}

// fuzzy reports terms within the configured edit distance of q. Terms that
// contain q already matched a stronger tier and are skipped.
func (s *Searcher) fuzzy(q string, fn func(term string, dist int)) {
	qn := len([]rune(q))
	for _, term := range s.terms {
		tn := len([]rune(term))
		if tn-qn > s.opts.MaxDistance || qn-tn > s.opts.MaxDistance {
			continue
		}
		if strings.Contains(term, q) {
			continue
		}
		if d := levenshtein.ComputeDistance(q, term); d >= 1 && d <= s.opts.MaxDistance {
			fn(term, d)
		}
	}
}

func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Field < b.Field
}

// trigramsOf returns the distinct byte trigrams of s in first-seen order
func trigramsOf(s string) []string {
	if len(s) < 3 {
		return nil
	}
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s)-2)
	for i := 0; i+3 <= len(s); i++ {
		g := s[i : i+3]
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func intersect(a, b []int32) []int32 {
	out := make([]int32, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
