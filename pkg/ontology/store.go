// ABOUTME: Immutable entry store for one ontology generation
// ABOUTME: Validates records at the load boundary and issues generation-scoped keys

package ontology

import (
	"strings"
	"sync/atomic"
)

// generationSeq hands out process-wide generation numbers, starting at 1
var generationSeq atomic.Uint32

// EntryStore owns the entries of one generation. It is never mutated after
// Load returns and is safe for concurrent readers.
type EntryStore struct {
	generation uint32
	entries    []Entry
}

// Load validates records and builds a new store. Loading is all-or-nothing:
// the first record missing an accession or a name aborts the load.
func Load(records []Record) (*EntryStore, error) {
	if len(records) == 0 {
		return nil, &LoadError{Index: -1, Err: ErrEmptyInput}
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		accession := strings.TrimSpace(rec.Accession)
		if accession == "" {
			return nil, &LoadError{Index: i, Field: "accession", Err: ErrMalformedRecord}
		}
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return nil, &LoadError{Index: i, Field: "name", Err: ErrMalformedRecord}
		}

		entries[i] = Entry{
			Accession:   accession,
			Name:        name,
			Description: strings.TrimSpace(rec.Description),
			Synonyms:    cleanList(rec.Synonyms),
			Parents:     cleanList(rec.Parents),
			Category:    DeriveCategory(name),

			DrugClasses:  cleanList(rec.DrugClasses),
			Publications: cleanList(rec.Publications),
		}
	}

	// Keys are only issued once the whole input validated
	gen := generationSeq.Add(1)
	for i := range entries {
		entries[i].Key = makeKey(gen, i)
	}

	return &EntryStore{generation: gen, entries: entries}, nil
}

// Get returns the entry for key. It panics with a *KeyError when the key
// was issued by another generation; user input never produces such keys.
func (s *EntryStore) Get(key Key) Entry {
	e, err := s.Lookup(key)
	if err != nil {
		panic(err)
	}
	return e
}

// Lookup is the non-panicking form of Get
func (s *EntryStore) Lookup(key Key) (Entry, error) {
	if !s.Owns(key) {
		return Entry{}, &KeyError{Key: key, Generation: s.generation}
	}
	return s.entries[key.Index()], nil
}

// Owns reports whether key was issued by this store
func (s *EntryStore) Owns(key Key) bool {
	return key.Generation() == s.generation && key.Index() < len(s.entries)
}

// Len returns the number of entries
func (s *EntryStore) Len() int {
	return len(s.entries)
}

// Generation returns the generation number of this store
func (s *EntryStore) Generation() uint32 {
	return s.generation
}

// Entries returns all entries in key order. The slice is shared and must
// not be modified.
func (s *EntryStore) Entries() []Entry {
	return s.entries
}

// KeyAt returns the key of the i-th entry
func (s *EntryStore) KeyAt(i int) Key {
	return s.entries[i].Key
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
