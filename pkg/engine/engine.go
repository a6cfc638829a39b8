// ABOUTME: Resolution engine: current generation behind an atomic pointer
// ABOUTME: Reads never lock; reloads build a new generation and swap it in

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/resolver"
	"github.com/nainya/aroresolve/pkg/search"
	"github.com/nainya/aroresolve/pkg/source"
)

// Engine serves queries from the current generation
type Engine struct {
	current atomic.Pointer[Generation]

	// reloadMu serializes builds so generations are published in order
	reloadMu sync.Mutex

	opts   Options
	logger zerolog.Logger
	path   string
	format source.Format
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for reloads and data quality warnings
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithOptions sets the per-generation build options
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		e.opts = opts
	}
}

// WithSource sets the file Reload reads from
func WithSource(path string, format source.Format) Option {
	return func(e *Engine) {
		e.path = path
		e.format = format
	}
}

// New creates an engine with no generation loaded
func New(opts ...Option) *Engine {
	e := &Engine{
		opts:   DefaultOptions(),
		logger: zerolog.Nop(),
		format: source.FormatAuto,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the generation serving reads, or nil before the first load.
// Holding on to it pins that generation for a consistent sequence of reads.
func (e *Engine) Current() *Generation {
	return e.current.Load()
}

// Ready reports whether a generation has been published
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Load builds a generation from records and makes it current. On error the
// previous generation keeps serving. src labels the generation in logs.
func (e *Engine) Load(ctx context.Context, records []ontology.Record, src string) (*Generation, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	gen, err := Build(records, src, e.opts)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("source", src).
			Dur("duration_ms", time.Since(start)).
			Msg("Ontology load rejected")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, w := range gen.Diagnostics.Warnings {
		e.logger.Warn().
			Str("kind", string(w.Kind)).
			Uint32("generation", gen.Number).
			Msg(w.Detail)
	}

	prev := e.current.Swap(gen)
	event := e.logger.Info().
		Str("generation_id", gen.ID.String()).
		Uint32("generation", gen.Number).
		Str("source", src).
		Int("entries", gen.Store.Len()).
		Int("edges", len(gen.Graph.Edges())).
		Int("warnings", gen.Diagnostics.Len()).
		Dur("duration_ms", gen.BuildTime)
	if prev != nil {
		event = event.Uint32("previous_generation", prev.Number)
	}
	event.Msg("Ontology generation published")

	return gen, nil
}

// LoadFile decodes the ontology file at path and loads it
func (e *Engine) LoadFile(ctx context.Context, path string, format source.Format) (*Generation, error) {
	records, err := source.Load(path, format)
	if err != nil {
		e.logger.Error().Err(err).Str("source", path).Msg("Ontology source unreadable")
		return nil, err
	}
	return e.Load(ctx, records, path)
}

// Reload rereads the configured source
func (e *Engine) Reload(ctx context.Context) (*Generation, error) {
	if e.path == "" {
		return nil, ErrNoSource
	}
	return e.LoadFile(ctx, e.path, e.format)
}

func (e *Engine) generation() (*Generation, error) {
	gen := e.current.Load()
	if gen == nil {
		return nil, ErrNotLoaded
	}
	return gen, nil
}

// Resolve answers q against the current generation
func (e *Engine) Resolve(q resolver.Query) (resolver.Result, error) {
	gen, err := e.generation()
	if err != nil {
		return resolver.Result{}, err
	}
	return gen.Resolver.Resolve(q), nil
}

// ResolveByAccession resolves an accession in any accepted spelling
func (e *Engine) ResolveByAccession(accession string) (resolver.Result, error) {
	return e.Resolve(resolver.AccessionQuery(accession))
}

// ResolveByName resolves a name or exact synonym
func (e *Engine) ResolveByName(name string) (resolver.Result, error) {
	return e.Resolve(resolver.NameQuery(name))
}

// ResolveFreeText returns advisory candidates, optionally narrowed by hint
func (e *Engine) ResolveFreeText(text, hint string) (resolver.Result, error) {
	return e.Resolve(resolver.FreeTextQuery(text, hint))
}

// Search runs a typeahead query
func (e *Engine) Search(text string, limit int) ([]search.Hit, error) {
	gen, err := e.generation()
	if err != nil {
		return nil, err
	}
	return gen.Searcher.Search(text, limit), nil
}

// Get returns the entry for key
func (e *Engine) Get(key ontology.Key) (ontology.Entry, error) {
	gen, err := e.generation()
	if err != nil {
		return ontology.Entry{}, err
	}
	return gen.Get(key)
}

// Parents returns the direct parents of key
func (e *Engine) Parents(key ontology.Key) ([]ontology.Entry, error) {
	gen, err := e.generation()
	if err != nil {
		return nil, err
	}
	return gen.Parents(key)
}

// Children returns the direct children of key
func (e *Engine) Children(key ontology.Key) ([]ontology.Entry, error) {
	gen, err := e.generation()
	if err != nil {
		return nil, err
	}
	return gen.Children(key)
}

// Ancestors returns every ancestor of key, nearest first
func (e *Engine) Ancestors(key ontology.Key) ([]ontology.Entry, error) {
	gen, err := e.generation()
	if err != nil {
		return nil, err
	}
	return gen.Ancestors(key)
}

// Related returns entries sharing a parent with key
func (e *Engine) Related(key ontology.Key) ([]ontology.Entry, error) {
	gen, err := e.generation()
	if err != nil {
		return nil, err
	}
	return gen.Related(key)
}

// DrugClasses returns the drug classes of key
func (e *Engine) DrugClasses(key ontology.Key) ([]ontology.Entry, error) {
	gen, err := e.generation()
	if err != nil {
		return nil, err
	}
	return gen.DrugClasses(key)
}
