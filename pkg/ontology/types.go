// ABOUTME: Ontology entry data model and generation-scoped keys
// ABOUTME: Defines Record (input shape), Entry (loaded, immutable) and Key

package ontology

import "fmt"

// Key addresses one entry of one loaded generation.
// The high 32 bits carry the generation number, the low 32 bits the dense
// index into the store. The zero Key is never issued.
type Key uint64

func makeKey(generation uint32, idx int) Key {
	return Key(uint64(generation)<<32 | uint64(uint32(idx)))
}

// Generation returns the generation number the key was issued by
func (k Key) Generation() uint32 {
	return uint32(k >> 32)
}

// Index returns the dense position of the entry inside its store
func (k Key) Index() int {
	return int(uint32(k))
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.Generation(), k.Index())
}

// Record is one row of the ontology table as delivered by a source decoder
type Record struct {
	Accession   string   `json:"accession" yaml:"accession"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Synonyms    []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Parents     []string `json:"parents,omitempty" yaml:"parents,omitempty"` // parent accessions (is_a)

	// DrugClasses lists accessions of the drug classes the entry confers
	// resistance to; Publications lists literature xrefs such as "PMID:123"
	DrugClasses  []string `json:"drug_classes,omitempty" yaml:"drug_classes,omitempty"`
	Publications []string `json:"publications,omitempty" yaml:"publications,omitempty"`
}

// Entry is an immutable ontology concept owned by an EntryStore
type Entry struct {
	Key         Key
	Accession   string   // Source accession, not unique
	Name        string   // Display name, not unique
	Description string   // Free text, may be empty
	Synonyms    []string // Exact synonyms
	Parents     []string // Explicit parent accessions
	Category    Category // Derived from the name, best effort

	DrugClasses  []string // Drug class accessions as listed by the source
	Publications []string // Literature xrefs
}
