// Package server implements the gRPC resolver service
package server

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/aroresolve/internal/logger"
	"github.com/nainya/aroresolve/internal/metrics"
	"github.com/nainya/aroresolve/pkg/engine"
	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/resolver"
)

// Version is reported by Health
const Version = "1.0.0"

// Options bounds request parameters
type Options struct {
	DefaultSearchLimit int
	MaxSearchLimit     int
}

// Server implements ResolverServiceServer on top of an engine
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Metrics
	log     *logger.Logger
	opts    Options

	startTime time.Time
	opCounts  map[string]*atomic.Int64
}

// NewServer creates a gRPC server instance. The engine may still be empty;
// reads fail with Unavailable until Load succeeds.
func NewServer(eng *engine.Engine, opts Options, m *metrics.Metrics, log *logger.Logger) *Server {
	if opts.DefaultSearchLimit <= 0 {
		opts.DefaultSearchLimit = 20
	}
	if opts.MaxSearchLimit < opts.DefaultSearchLimit {
		opts.MaxSearchLimit = opts.DefaultSearchLimit
	}

	counts := make(map[string]*atomic.Int64, len(ResolverServiceDesc.Methods))
	for _, md := range ResolverServiceDesc.Methods {
		counts[md.MethodName] = new(atomic.Int64)
	}

	return &Server{
		engine:    eng,
		metrics:   m,
		log:       log,
		opts:      opts,
		startTime: time.Now(),
		opCounts:  counts,
	}
}

// Load rereads the configured ontology source and records the attempt.
// Startup, SIGHUP and the Reload RPC all come through here.
func (s *Server) Load(ctx context.Context) (*engine.Generation, error) {
	start := time.Now()
	gen, err := s.engine.Reload(ctx)
	s.metrics.RecordReload(gen, time.Since(start), err)
	return gen, err
}

// Ready reports whether a generation is serving
func (s *Server) Ready() bool {
	return s.engine.Ready()
}

func (s *Server) count(method string) {
	if c, ok := s.opCounts[method]; ok {
		c.Add(1)
	}
}

// ========== Resolution ==========

func (s *Server) ResolveByAccession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodResolveByAccession)
	text, err := requiredString(req, "accession")
	if err != nil {
		return nil, err
	}
	return s.resolve(resolver.Query{Kind: resolver.ByAccession, Text: text, CategoryHint: optionalString(req, "category_hint")})
}

func (s *Server) ResolveByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodResolveByName)
	text, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	return s.resolve(resolver.Query{Kind: resolver.ByName, Text: text, CategoryHint: optionalString(req, "category_hint")})
}

func (s *Server) ResolveFreeText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodResolveFreeText)
	text, err := requiredString(req, "text")
	if err != nil {
		return nil, err
	}
	return s.resolve(resolver.Query{Kind: resolver.ByFreeText, Text: text, CategoryHint: optionalString(req, "category_hint")})
}

func (s *Server) resolve(q resolver.Query) (*structpb.Struct, error) {
	gen, err := s.generation()
	if err != nil {
		return nil, err
	}
	res := gen.Resolver.Resolve(q)
	s.metrics.RecordResolution(q.Kind.String(), res.Outcome.String())
	s.log.LogResolution(q.Kind.String(), res.Outcome.String(), len(res.Candidates))
	return toStruct(resultFields(gen, res))
}

// ========== Search ==========

func (s *Server) Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodSearch)
	text, err := requiredString(req, "text")
	if err != nil {
		return nil, err
	}
	limit, err := optionalInt(req, "limit", s.opts.DefaultSearchLimit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must be positive")
	}
	limit = min(limit, s.opts.MaxSearchLimit)

	gen, err := s.generation()
	if err != nil {
		return nil, err
	}
	hits := gen.Searcher.Search(text, limit)
	s.metrics.RecordSearch(len(hits))

	results := make([]any, 0, len(hits))
	for _, h := range hits {
		results = append(results, map[string]any{
			"entry":    entryFields(gen, gen.Store.Get(h.Key)),
			"score":    float64(h.Score),
			"tier":     h.Tier.String(),
			"field":    h.Field.String(),
			"term":     h.Term,
			"position": float64(h.Position),
		})
	}
	return toStruct(map[string]any{
		"generation": float64(gen.Number),
		"results":    results,
	})
}

// ========== Entries & hierarchy ==========

func (s *Server) GetEntry(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodGetEntry)
	gen, key, err := s.keyRequest(req)
	if err != nil {
		return nil, err
	}
	e, err := gen.Get(key)
	if err != nil {
		return nil, keyStatus(err)
	}
	return toStruct(map[string]any{
		"generation": float64(gen.Number),
		"entry":      entryFields(gen, e),
	})
}

func (s *Server) Parents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodParents)
	return s.related(req, (*engine.Generation).Parents)
}

func (s *Server) Children(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodChildren)
	return s.related(req, (*engine.Generation).Children)
}

func (s *Server) Ancestors(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodAncestors)
	return s.related(req, (*engine.Generation).Ancestors)
}

func (s *Server) Related(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodRelated)
	return s.related(req, (*engine.Generation).Related)
}

func (s *Server) related(req *structpb.Struct, walk func(*engine.Generation, ontology.Key) ([]ontology.Entry, error)) (*structpb.Struct, error) {
	gen, key, err := s.keyRequest(req)
	if err != nil {
		return nil, err
	}
	entries, err := walk(gen, key)
	if err != nil {
		return nil, keyStatus(err)
	}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryFields(gen, e))
	}
	return toStruct(map[string]any{
		"generation": float64(gen.Number),
		"entries":    out,
	})
}

func (s *Server) keyRequest(req *structpb.Struct) (*engine.Generation, ontology.Key, error) {
	raw, err := requiredString(req, "key")
	if err != nil {
		return nil, 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, 0, status.Errorf(codes.InvalidArgument, "key %q is not a key", raw)
	}
	gen, err := s.generation()
	if err != nil {
		return nil, 0, err
	}
	return gen, ontology.Key(n), nil
}

// ========== Administration ==========

func (s *Server) Reload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodReload)
	gen, err := s.Load(ctx)
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "reload failed, previous generation still serving: %v", err)
	}
	return toStruct(generationFields(gen))
}

func (s *Server) Health(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodHealth)
	fields := map[string]any{
		"healthy":        true,
		"ready":          s.engine.Ready(),
		"version":        Version,
		"uptime_seconds": float64(int64(time.Since(s.startTime).Seconds())),
	}
	if gen := s.engine.Current(); gen != nil {
		fields["generation"] = float64(gen.Number)
	}
	return toStruct(fields)
}

func (s *Server) Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodStats)
	gen, err := s.generation()
	if err != nil {
		return nil, err
	}

	ops := make(map[string]any, len(s.opCounts))
	for name, c := range s.opCounts {
		ops[name] = float64(c.Load())
	}
	fields := generationFields(gen)
	fields["operation_counts"] = ops
	return toStruct(fields)
}

func (s *Server) generation() (*engine.Generation, error) {
	gen := s.engine.Current()
	if gen == nil {
		return nil, status.Error(codes.Unavailable, engine.ErrNotLoaded.Error())
	}
	return gen, nil
}

// ========== Conversion ==========

func generationFields(gen *engine.Generation) map[string]any {
	stats := gen.Stats()
	warnings := make(map[string]any, len(stats.Warnings))
	for kind, n := range stats.Warnings {
		warnings[string(kind)] = float64(n)
	}
	return map[string]any{
		"generation":    float64(gen.Number),
		"generation_id": gen.ID.String(),
		"source":        gen.Source,
		"loaded_at":     gen.LoadedAt.UTC().Format(time.RFC3339Nano),
		"entries":       float64(stats.Entries),
		"accessions":    float64(stats.Accessions),
		"terms":         float64(stats.Terms),
		"edges":         float64(stats.Edges),
		"roots":         float64(stats.Roots),
		"warnings":      warnings,
	}
}

func resultFields(gen *engine.Generation, res resolver.Result) map[string]any {
	fields := map[string]any{
		"generation": float64(gen.Number),
		"outcome":    res.Outcome.String(),
		"confidence": res.Confidence.String(),
		"reason":     res.Reason,
	}
	if res.Outcome == resolver.OutcomeResolved {
		fields["entry"] = entryFields(gen, res.Entry)
	}
	cands := make([]any, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		cands = append(cands, map[string]any{
			"entry":  entryFields(gen, c.Entry),
			"score":  float64(c.Score),
			"reason": c.Reason,
		})
	}
	fields["candidates"] = cands
	return fields
}

// entryFields renders e with its drug classes resolved against gen
func entryFields(gen *engine.Generation, e ontology.Entry) map[string]any {
	links := make([]any, 0, 4+len(e.Publications))
	for _, l := range ontology.Links(e) {
		links = append(links, map[string]any{"source": l.Source, "url": l.URL})
	}
	classes := make([]any, 0, len(e.DrugClasses))
	for _, k := range gen.Graph.DrugClassesOf(e.Key) {
		dc := gen.Store.Get(k)
		classes = append(classes, map[string]any{
			"accession":   dc.Accession,
			"name":        dc.Name,
			"description": dc.Description,
		})
	}
	return map[string]any{
		"key":                   strconv.FormatUint(uint64(e.Key), 10),
		"accession":             e.Accession,
		"name":                  e.Name,
		"description":           e.Description,
		"category":              string(e.Category),
		"synonyms":              stringList(e.Synonyms),
		"parents":               stringList(e.Parents),
		"drug_class_accessions": stringList(e.DrugClasses),
		"drug_classes":          classes,
		"publications":          stringList(e.Publications),
		"links":                 links,
	}
}

func stringList(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func toStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return sv.StringValue, nil
}

func optionalString(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func optionalInt(req *structpb.Struct, name string, def int) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || nv.NumberValue != float64(int(nv.NumberValue)) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	return int(nv.NumberValue), nil
}

func keyStatus(err error) error {
	if errors.Is(err, ontology.ErrForeignKey) {
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
