// ABOUTME: One immutable generation: entry store, index, hierarchy, search, resolver
// ABOUTME: Built off to the side and published by a single pointer swap

package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nainya/aroresolve/pkg/hierarchy"
	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/resolver"
	"github.com/nainya/aroresolve/pkg/search"
)

// Options tunes the structures built for each generation
type Options struct {
	Resolver resolver.Options
	Search   search.Options
}

// DefaultOptions returns the settings used when none are configured
func DefaultOptions() Options {
	return Options{
		Resolver: resolver.Options{FreeTextLimit: resolver.DefaultFreeTextLimit},
		Search:   search.DefaultOptions(),
	}
}

// Generation bundles every structure derived from one load. Nothing in it
// changes after Build returns, so any number of readers may share it.
type Generation struct {
	ID          uuid.UUID
	Number      uint32
	Source      string
	LoadedAt    time.Time
	BuildTime   time.Duration
	Store       *ontology.EntryStore
	Index       *index.Index
	Graph       *hierarchy.Graph
	Searcher    *search.Searcher
	Resolver    *resolver.Resolver
	Diagnostics *ontology.Diagnostics
}

// Stats summarizes a generation
type Stats struct {
	Entries    int
	Accessions int
	Terms      int
	Edges      int
	Roots      int
	Warnings   map[ontology.WarningKind]int
}

// Build loads records and derives every structure of a new generation.
// A LoadError leaves nothing behind.
func Build(records []ontology.Record, src string, opts Options) (*Generation, error) {
	start := time.Now()

	store, err := ontology.Load(records)
	if err != nil {
		return nil, err
	}

	ix, diag := index.Build(store)
	graph, graphDiag := hierarchy.Derive(store, ix)
	diag.Merge(graphDiag)

	searcher := search.New(ix, opts.Search)

	return &Generation{
		ID:          uuid.New(),
		Number:      store.Generation(),
		Source:      src,
		LoadedAt:    time.Now(),
		BuildTime:   time.Since(start),
		Store:       store,
		Index:       ix,
		Graph:       graph,
		Searcher:    searcher,
		Resolver:    resolver.New(ix, graph, searcher, opts.Resolver),
		Diagnostics: diag,
	}, nil
}

// String identifies the generation in logs
func (g *Generation) String() string {
	return fmt.Sprintf("generation %d (%s)", g.Number, g.ID)
}

// Stats returns counts describing the generation
func (g *Generation) Stats() Stats {
	return Stats{
		Entries:    g.Store.Len(),
		Accessions: g.Index.AccessionCount(),
		Terms:      g.Index.Terms(),
		Edges:      len(g.Graph.Edges()),
		Roots:      len(g.Graph.Roots()),
		Warnings:   g.Diagnostics.CountsByKind(),
	}
}

// Get returns the entry for key, or a KeyError for a key of another generation
func (g *Generation) Get(key ontology.Key) (ontology.Entry, error) {
	return g.Store.Lookup(key)
}

// Parents returns the direct parents of key
func (g *Generation) Parents(key ontology.Key) ([]ontology.Entry, error) {
	if err := g.own(key); err != nil {
		return nil, err
	}
	return g.entries(g.Graph.ParentsOf(key)), nil
}

// Children returns the direct children of key
func (g *Generation) Children(key ontology.Key) ([]ontology.Entry, error) {
	if err := g.own(key); err != nil {
		return nil, err
	}
	return g.entries(g.Graph.ChildrenOf(key)), nil
}

// Ancestors returns every ancestor of key, nearest first
func (g *Generation) Ancestors(key ontology.Key) ([]ontology.Entry, error) {
	if err := g.own(key); err != nil {
		return nil, err
	}
	var out []ontology.Entry
	for k := range g.Graph.AncestorsOf(key) {
		out = append(out, g.Store.Get(k))
	}
	return out, nil
}

// Related returns the siblings of key: other children of its parents
func (g *Generation) Related(key ontology.Key) ([]ontology.Entry, error) {
	if err := g.own(key); err != nil {
		return nil, err
	}
	return g.entries(g.Graph.SiblingsOf(key)), nil
}

// DrugClasses returns the drug classes key confers resistance to, falling
// back to its gene family's
func (g *Generation) DrugClasses(key ontology.Key) ([]ontology.Entry, error) {
	if err := g.own(key); err != nil {
		return nil, err
	}
	return g.entries(g.Graph.DrugClassesOf(key)), nil
}

func (g *Generation) own(key ontology.Key) error {
	if !g.Store.Owns(key) {
		return &ontology.KeyError{Key: key, Generation: g.Number}
	}
	return nil
}

func (g *Generation) entries(keys []ontology.Key) []ontology.Entry {
	out := make([]ontology.Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.Store.Get(k))
	}
	return out
}
