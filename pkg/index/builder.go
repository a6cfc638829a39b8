// ABOUTME: Index builder, run once per generation at load time
// ABOUTME: Lossless and order-independent; duplicates are kept and reported

package index

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/termtree"
)

// Build constructs the index for store. Every entry is visited exactly once.
// Entries sharing an accession or a name are all retained; duplicates are
// reported in the returned diagnostics, never dropped.
func Build(store *ontology.EntryStore) (*Index, *ontology.Diagnostics) {
	diag := &ontology.Diagnostics{}
	ix := &Index{
		store:      store,
		accessions: make(map[string][]ontology.Key, store.Len()),
		canonical:  make(map[string][]ontology.Key, store.Len()),
		names:      make(map[string][]ontology.Key, store.Len()),
		synonyms:   make(map[string][]ontology.Key),
		terms:      make(map[string]postingRange, store.Len()*2),
	}
	termPostings := make(map[string][]Posting, store.Len()*2)

	for _, e := range store.Entries() {
		ix.accessions[e.Accession] = append(ix.accessions[e.Accession], e.Key)
		canon := ontology.CanonicalAccession(e.Accession)
		ix.canonical[canon] = append(ix.canonical[canon], e.Key)
		addPosting(termPostings, ontology.NormalizeName(e.Accession), e.Key, FieldAccession)

		norm := ontology.NormalizeName(e.Name)
		if norm == "" {
			diag.Add(ontology.WarnEmptyNormalizedName,
				fmt.Sprintf("name %q of %s normalizes to nothing; indexed by accession only", e.Name, e.Accession), e.Key)
		} else {
			ix.names[norm] = append(ix.names[norm], e.Key)
			addPosting(termPostings, norm, e.Key, FieldName)
		}

		for _, syn := range e.Synonyms {
			if s := ontology.NormalizeName(syn); s != "" {
				ix.synonyms[s] = appendUnique(ix.synonyms[s], e.Key)
				addPosting(termPostings, s, e.Key, FieldSynonym)
			}
		}
	}

	sortSets(ix.accessions)
	sortSets(ix.canonical)
	sortSets(ix.names)
	sortSets(ix.synonyms)

	// Spellings of one accession ("ARO:n", "ARO_n") count as duplicates too
	accs := make([]string, 0, len(ix.canonical))
	for acc, keys := range ix.canonical {
		if len(keys) > 1 {
			accs = append(accs, acc)
		}
	}
	slices.Sort(accs)
	for _, acc := range accs {
		diag.Add(ontology.WarnDuplicateAccession,
			fmt.Sprintf("accession %s is bound to %d entries", acc, len(ix.canonical[acc])), ix.canonical[acc]...)
	}

	ix.tree = ix.buildTerms(termPostings)
	return ix, diag
}

// buildTerms flattens the term postings into one sorted arena and bulk loads
// the prefix tree over the sorted terms
func (ix *Index) buildTerms(termPostings map[string][]Posting) *termtree.Tree {
	terms := make([]string, 0, len(termPostings))
	total := 0
	for term, ps := range termPostings {
		terms = append(terms, term)
		total += len(ps)
	}
	slices.Sort(terms)
	ix.sorted = terms

	ix.postings = make([]Posting, 0, total)
	items := make([]termtree.Item, 0, len(terms))
	for _, term := range terms {
		ps := termPostings[term]
		slices.SortFunc(ps, comparePostings)
		ps = slices.Compact(ps)

		r := postingRange{off: uint32(len(ix.postings)), n: uint32(len(ps))}
		ix.postings = append(ix.postings, ps...)
		ix.terms[term] = r

		// Oversized terms are scanned linearly by ScanPrefix
		if len(term) > termtree.MaxKeySize {
			ix.long = append(ix.long, term)
			continue
		}
		val := make([]byte, 8)
		binary.LittleEndian.PutUint32(val[0:4], r.off)
		binary.LittleEndian.PutUint32(val[4:8], r.n)
		items = append(items, termtree.Item{Key: []byte(term), Val: val})
	}

	tree, err := termtree.Build(items)
	if err != nil {
		// Items are sorted, unique and size checked above
		panic(fmt.Sprintf("index: building term tree: %v", err))
	}
	return tree
}

func addPosting(m map[string][]Posting, term string, key ontology.Key, field Field) {
	if term == "" {
		return
	}
	m[term] = append(m[term], Posting{Key: key, Field: field})
}

func appendUnique(keys []ontology.Key, key ontology.Key) []ontology.Key {
	if slices.Contains(keys, key) {
		return keys
	}
	return append(keys, key)
}

func sortSets(m map[string][]ontology.Key) {
	for k, keys := range m {
		slices.Sort(keys)
		m[k] = keys
	}
}

func comparePostings(a, b Posting) int {
	switch {
	case a.Key < b.Key:
		return -1
	case a.Key > b.Key:
		return 1
	}
	return int(a.Field) - int(b.Field)
}
