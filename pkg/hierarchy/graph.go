// ABOUTME: Directed acyclic parent/child graph derived from entry names
// ABOUTME: Edges that would close a cycle are rejected and reported, never fatal

package hierarchy

import (
	"fmt"
	"iter"
	"slices"

	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
)

// Edge is one child -> parent relation
type Edge struct {
	Child  ontology.Key
	Parent ontology.Key
	Rule   Rule
}

// Graph is immutable after Derive and safe for concurrent readers.
// Adjacency lists are indexed by ontology.Key.Index().
type Graph struct {
	store    *ontology.EntryStore
	parents  [][]ontology.Key
	children [][]ontology.Key
	edges    []Edge

	drugClasses [][]ontology.Key
}

// Derive applies the naming rules to every entry, in key order, and keeps
// each proposed edge that does not introduce a cycle. Visiting children in
// key order keeps every children list sorted.
func Derive(store *ontology.EntryStore, ix *index.Index) (*Graph, *ontology.Diagnostics) {
	diag := &ontology.Diagnostics{}
	g := &Graph{
		store:    store,
		parents:  make([][]ontology.Key, store.Len()),
		children: make([][]ontology.Key, store.Len()),

		drugClasses: make([][]ontology.Key, store.Len()),
	}

	for _, e := range store.Entries() {
		for _, p := range propose(e, ix, diag) {
			g.addEdge(e, p, diag)
		}
		g.drugClasses[e.Key.Index()] = resolveDrugClasses(e, ix, diag)
	}
	return g, diag
}

func (g *Graph) addEdge(child ontology.Entry, p proposal, diag *ontology.Diagnostics) {
	ci, pi := child.Key.Index(), p.parent.Index()
	if slices.Contains(g.parents[ci], p.parent) {
		return
	}
	if ci == pi || g.reaches(pi, ci) {
		parent := g.store.Get(p.parent)
		diag.Add(ontology.WarnCyclicEdge,
			fmt.Sprintf("%s edge %q -> %q would create a cycle", p.rule, child.Name, parent.Name),
			child.Key, p.parent)
		return
	}

	g.parents[ci] = append(g.parents[ci], p.parent)
	g.children[pi] = append(g.children[pi], child.Key)
	g.edges = append(g.edges, Edge{Child: child.Key, Parent: p.parent, Rule: p.rule})
}

// reaches reports whether target is an ancestor of (or equal to) from,
// walking parent links depth first
func (g *Graph) reaches(from, target int) bool {
	seen := make(map[int]struct{})
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		for _, p := range g.parents[n] {
			stack = append(stack, p.Index())
		}
	}
	return false
}

// ParentsOf returns the direct parents of key. The slice must not be modified.
func (g *Graph) ParentsOf(key ontology.Key) []ontology.Key {
	if !g.store.Owns(key) {
		return nil
	}
	return g.parents[key.Index()]
}

// ChildrenOf returns the direct children of key in key order.
// The slice must not be modified.
func (g *Graph) ChildrenOf(key ontology.Key) []ontology.Key {
	if !g.store.Owns(key) {
		return nil
	}
	return g.children[key.Index()]
}

// AncestorsOf yields every ancestor of key once, nearest first. The
// sequence is finite because the graph is acyclic, and can be ranged over
// any number of times.
func (g *Graph) AncestorsOf(key ontology.Key) iter.Seq[ontology.Key] {
	return g.walk(key, g.parents)
}

// DescendantsOf yields every descendant of key once, nearest first
func (g *Graph) DescendantsOf(key ontology.Key) iter.Seq[ontology.Key] {
	return g.walk(key, g.children)
}

func (g *Graph) walk(key ontology.Key, adj [][]ontology.Key) iter.Seq[ontology.Key] {
	return func(yield func(ontology.Key) bool) {
		if !g.store.Owns(key) {
			return
		}
		seen := map[ontology.Key]struct{}{key: {}}
		queue := slices.Clone(adj[key.Index()])
		for len(queue) > 0 {
			k := queue[0]
			queue = queue[1:]
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !yield(k) {
				return
			}
			queue = append(queue, adj[k.Index()]...)
		}
	}
}

// SiblingsOf returns the other children of key's parents, in key order
func (g *Graph) SiblingsOf(key ontology.Key) []ontology.Key {
	var out []ontology.Key
	for _, p := range g.ParentsOf(key) {
		for _, c := range g.children[p.Index()] {
			if c != key && !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Roots returns entries that have children but no parents
func (g *Graph) Roots() []ontology.Key {
	var out []ontology.Key
	for i := range g.parents {
		if len(g.parents[i]) == 0 && len(g.children[i]) > 0 {
			out = append(out, g.store.KeyAt(i))
		}
	}
	return out
}

// Edges returns every accepted edge in derivation order
func (g *Graph) Edges() []Edge {
	return g.edges
}
