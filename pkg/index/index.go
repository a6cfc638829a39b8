// ABOUTME: Resolution index over one entry store generation
// ABOUTME: Accession and name multimaps plus an ordered term tree for prefix scans

package index

import (
	"encoding/binary"
	"strings"

	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/termtree"
)

// Field tells which attribute of an entry produced a term
type Field uint8

const (
	FieldName Field = iota
	FieldSynonym
	FieldAccession
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldSynonym:
		return "synonym"
	case FieldAccession:
		return "accession"
	default:
		return "unknown"
	}
}

// Posting is one occurrence of a term
type Posting struct {
	Key   ontology.Key
	Field Field
}

type postingRange struct {
	off uint32
	n   uint32
}

// Index holds the lookup structures for one generation. Every key set is
// sorted by key, so query results never depend on build iteration order.
type Index struct {
	store      *ontology.EntryStore
	accessions map[string][]ontology.Key
	canonical  map[string][]ontology.Key // keyed by ontology.CanonicalAccession
	names      map[string][]ontology.Key
	synonyms   map[string][]ontology.Key

	// prefix index: every normalized name, synonym and accession
	terms    map[string]postingRange
	sorted   []string
	postings []Posting
	tree     *termtree.Tree
	long     []string // sorted terms over termtree.MaxKeySize, kept out of the tree
}

// Store returns the entry store the index was built from
func (ix *Index) Store() *ontology.EntryStore {
	return ix.store
}

// Accession returns the keys recorded under an exact (trimmed) accession
// spelling
func (ix *Index) Accession(accession string) []ontology.Key {
	return ix.accessions[strings.TrimSpace(accession)]
}

// LookupAccession resolves any accepted accession spelling. "ARO:n", "ARO_n"
// and bare "n" all name the same accession and always answer with the same
// key set; other vocabularies match their exact spelling.
func (ix *Index) LookupAccession(accession string) []ontology.Key {
	canon := ontology.CanonicalAccession(accession)
	if strings.HasPrefix(canon, ontology.AccessionPrefix) {
		return ix.canonical[canon]
	}
	return ix.Accession(accession)
}

// Names returns the keys whose primary name normalizes to norm
func (ix *Index) Names(norm string) []ontology.Key {
	return ix.names[norm]
}

// Synonyms returns the keys with a synonym normalizing to norm
func (ix *Index) Synonyms(norm string) []ontology.Key {
	return ix.synonyms[norm]
}

// Postings returns every occurrence of an exact normalized term
func (ix *Index) Postings(term string) []Posting {
	r, ok := ix.terms[term]
	if !ok {
		return nil
	}
	return ix.postings[r.off : r.off+r.n]
}

// ScanPrefix visits, in term order, every indexed term starting with
// prefix until fn returns false.
func (ix *Index) ScanPrefix(prefix string, fn func(term string, postings []Posting) bool) {
	if prefix == "" {
		return
	}

	var long []string
	for _, term := range ix.long {
		if strings.HasPrefix(term, prefix) {
			long = append(long, term)
		}
	}

	stopped := false
	ix.tree.ScanPrefix([]byte(prefix), func(key, val []byte) bool {
		term := string(key)
		for len(long) > 0 && long[0] < term {
			if !fn(long[0], ix.Postings(long[0])) {
				stopped = true
				return false
			}
			long = long[1:]
		}
		off := binary.LittleEndian.Uint32(val[0:4])
		n := binary.LittleEndian.Uint32(val[4:8])
		if !fn(term, ix.postings[off:off+n]) {
			stopped = true
			return false
		}
		return true
	})
	if stopped {
		return
	}
	for _, term := range long {
		if !fn(term, ix.Postings(term)) {
			return
		}
	}
}

// EachTerm visits every indexed term in sorted order until fn returns false
func (ix *Index) EachTerm(fn func(term string, postings []Posting) bool) {
	for _, term := range ix.sorted {
		if !fn(term, ix.Postings(term)) {
			return
		}
	}
}

// Terms returns the number of distinct indexed terms
func (ix *Index) Terms() int {
	return len(ix.terms)
}

// AccessionCount returns the number of distinct accessions after
// canonicalization
func (ix *Index) AccessionCount() int {
	return len(ix.canonical)
}
