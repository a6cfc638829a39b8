package hierarchy

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
)

func derive(t *testing.T, records []ontology.Record) (*ontology.EntryStore, *Graph, *ontology.Diagnostics) {
	t.Helper()
	store, err := ontology.Load(records)
	require.NoError(t, err)
	ix, _ := index.Build(store)
	g, diag := Derive(store, ix)
	return store, g, diag
}

func keyOf(t *testing.T, store *ontology.EntryStore, name string) ontology.Key {
	t.Helper()
	for _, e := range store.Entries() {
		if e.Name == name {
			return e.Key
		}
	}
	t.Fatalf("no entry named %q", name)
	return 0
}

func TestFamilyChildren(t *testing.T) {
	store, g, diag := derive(t, []ontology.Record{
		{Accession: "X1", Name: "TEM beta-lactamase"},
		{Accession: "X2", Name: "TEM-1"},
		{Accession: "X3", Name: "TEM-2"},
	})

	family := keyOf(t, store, "TEM beta-lactamase")
	assert.ElementsMatch(t,
		[]ontology.Key{keyOf(t, store, "TEM-1"), keyOf(t, store, "TEM-2")},
		g.ChildrenOf(family))
	assert.Equal(t, []ontology.Key{family}, g.ParentsOf(keyOf(t, store, "TEM-1")))
	assert.Empty(t, g.ParentsOf(family))
	assert.Equal(t, 0, diag.Len())

	for _, e := range g.Edges() {
		assert.Equal(t, RuleFamilyMember, e.Rule)
	}
}

func TestFamilyFallsBackToBareStem(t *testing.T) {
	store, g, _ := derive(t, []ontology.Record{
		{Accession: "A1", Name: "CTX-M"},
		{Accession: "A2", Name: "CTX-M-15"},
		{Accession: "A3", Name: "OXA-48"},
	})

	assert.Equal(t, []ontology.Key{keyOf(t, store, "CTX-M")}, g.ParentsOf(keyOf(t, store, "CTX-M-15")))
	assert.Empty(t, g.ParentsOf(keyOf(t, store, "OXA-48")))
}

func TestFamilyPrefersBetaLactamaseName(t *testing.T) {
	store, g, _ := derive(t, []ontology.Record{
		{Accession: "A1", Name: "SHV"},
		{Accession: "A2", Name: "SHV beta-lactamase"},
		{Accession: "A3", Name: "SHV-12"},
	})

	assert.Equal(t, []ontology.Key{keyOf(t, store, "SHV beta-lactamase")}, g.ParentsOf(keyOf(t, store, "SHV-12")))
}

func TestNearDuplicateNamesAreNotParents(t *testing.T) {
	store, g, _ := derive(t, []ontology.Record{
		{Accession: "A1", Name: "TEM-1"},
		{Accession: "A2", Name: "TEM-10"},
		{Accession: "A3", Name: "TEM-100"},
	})

	for _, e := range store.Entries() {
		assert.Empty(t, g.ParentsOf(e.Key), e.Name)
	}
}

func TestHeadTermChain(t *testing.T) {
	store, g, _ := derive(t, []ontology.Record{
		{Accession: "A1", Name: "beta-lactamase"},
		{Accession: "A2", Name: "TEM beta-lactamase"},
		{Accession: "A3", Name: "TEM-1"},
	})

	tem1 := keyOf(t, store, "TEM-1")
	ancestors := slices.Collect(g.AncestorsOf(tem1))
	assert.Equal(t, []ontology.Key{keyOf(t, store, "TEM beta-lactamase"), keyOf(t, store, "beta-lactamase")}, ancestors)

	descendants := slices.Collect(g.DescendantsOf(keyOf(t, store, "beta-lactamase")))
	assert.Equal(t, []ontology.Key{keyOf(t, store, "TEM beta-lactamase"), tem1}, descendants)

	assert.Equal(t, []ontology.Key{keyOf(t, store, "beta-lactamase")}, g.Roots())
}

func TestAmbiguousParentNameIsSkipped(t *testing.T) {
	store, g, diag := derive(t, []ontology.Record{
		{Accession: "A1", Name: "TEM beta-lactamase"},
		{Accession: "A2", Name: "tem beta-lactamase"},
		{Accession: "A3", Name: "TEM-1"},
	})

	assert.Empty(t, g.ParentsOf(keyOf(t, store, "TEM-1")))
	assert.Equal(t, 1, diag.Count(ontology.WarnAmbiguousParent))
}

func TestExplicitParents(t *testing.T) {
	store, g, diag := derive(t, []ontology.Record{
		{Accession: "ARO:3000001", Name: "antibiotic resistance gene"},
		{Accession: "ARO:3003080", Name: "daptomycin resistant pgsA", Parents: []string{"ARO:3000001", "ARO:9999999"}},
		{Accession: "ARO:0001003", Name: "antibiotic target protection"},
		{Accession: "ARO:0001003", Name: "skin epidermis"},
		{Accession: "ARO:3000002", Name: "tetM", Parents: []string{"ARO:0001003"}},
	})

	assert.Equal(t, []ontology.Key{keyOf(t, store, "antibiotic resistance gene")},
		g.ParentsOf(keyOf(t, store, "daptomycin resistant pgsA")))
	assert.Empty(t, g.ParentsOf(keyOf(t, store, "tetM")))
	assert.Equal(t, 1, diag.Count(ontology.WarnUnresolvedParent))
	assert.Equal(t, 1, diag.Count(ontology.WarnAmbiguousParent))
}

func TestCycleIsRejected(t *testing.T) {
	store, g, diag := derive(t, []ontology.Record{
		{Accession: "A1", Name: "KPC", Parents: []string{"A2"}},
		{Accession: "A2", Name: "KPC-2"},
		{Accession: "A3", Name: "self", Parents: []string{"A3"}},
	})

	kpc := keyOf(t, store, "KPC")
	kpc2 := keyOf(t, store, "KPC-2")
	assert.Equal(t, []ontology.Key{kpc2}, g.ParentsOf(kpc))
	assert.Empty(t, g.ParentsOf(kpc2))
	assert.Empty(t, g.ParentsOf(keyOf(t, store, "self")))
	assert.Equal(t, 2, diag.Count(ontology.WarnCyclicEdge))
}

func TestAncestorsNeverContainSelf(t *testing.T) {
	store, g, _ := derive(t, []ontology.Record{
		{Accession: "A1", Name: "beta-lactamase"},
		{Accession: "A2", Name: "class A beta-lactamase", Parents: []string{"A1"}},
		{Accession: "A3", Name: "TEM beta-lactamase", Parents: []string{"A2"}},
		{Accession: "A4", Name: "TEM-1", Parents: []string{"A2"}},
		{Accession: "A5", Name: "TEM-2"},
		{Accession: "A6", Name: "antibiotic", Parents: []string{"A4"}},
	})

	for _, e := range store.Entries() {
		seen := map[ontology.Key]bool{}
		for a := range g.AncestorsOf(e.Key) {
			assert.NotEqual(t, e.Key, a, "entry %q is its own ancestor", e.Name)
			assert.False(t, seen[a], "ancestor repeated for %q", e.Name)
			seen[a] = true
		}
	}

	// Restartable: a second range yields the same sequence
	tem1 := keyOf(t, store, "TEM-1")
	first := slices.Collect(g.AncestorsOf(tem1))
	second := slices.Collect(g.AncestorsOf(tem1))
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestSiblings(t *testing.T) {
	store, g, _ := derive(t, []ontology.Record{
		{Accession: "X1", Name: "TEM beta-lactamase"},
		{Accession: "X2", Name: "TEM-1"},
		{Accession: "X3", Name: "TEM-2"},
		{Accession: "X4", Name: "TEM-3"},
	})

	assert.Equal(t,
		[]ontology.Key{keyOf(t, store, "TEM-1"), keyOf(t, store, "TEM-3")},
		g.SiblingsOf(keyOf(t, store, "TEM-2")))
	assert.Empty(t, g.SiblingsOf(keyOf(t, store, "TEM beta-lactamase")))
}

func TestForeignKeysYieldNothing(t *testing.T) {
	_, g, _ := derive(t, []ontology.Record{{Accession: "X1", Name: "TEM beta-lactamase"}})
	other, err := ontology.Load([]ontology.Record{{Accession: "X1", Name: "TEM beta-lactamase"}})
	require.NoError(t, err)

	foreign := other.KeyAt(0)
	assert.Nil(t, g.ParentsOf(foreign))
	assert.Nil(t, g.ChildrenOf(foreign))
	assert.Empty(t, slices.Collect(g.AncestorsOf(foreign)))
}

func TestDrugClassesFallBackToFamily(t *testing.T) {
	store, g, diag := derive(t, []ontology.Record{
		{Accession: "ARO:0000032", Name: "cephalosporin"},
		{Accession: "ARO:0000022", Name: "penam"},
		{Accession: "ARO:3000014", Name: "TEM beta-lactamase", DrugClasses: []string{"ARO_0000032", "ARO:0000022", "ARO:0000032"}},
		{Accession: "ARO:3000873", Name: "TEM-1"},
		{Accession: "ARO:3000874", Name: "TEM-2", DrugClasses: []string{"0000022"}},
		{Accession: "ARO:3000875", Name: "TEM-3", DrugClasses: []string{"ARO:9999999"}},
	})

	ceph, penam := keyOf(t, store, "cephalosporin"), keyOf(t, store, "penam")
	family := keyOf(t, store, "TEM beta-lactamase")
	assert.Equal(t, []ontology.Key{ceph, penam}, g.DrugClassesOf(family))

	// no drug classes of its own: the family's
	assert.Equal(t, []ontology.Key{ceph, penam}, g.DrugClassesOf(keyOf(t, store, "TEM-1")))
	// its own list wins over the family's
	assert.Equal(t, []ontology.Key{penam}, g.DrugClassesOf(keyOf(t, store, "TEM-2")))
	// an unknown class is reported and skipped, leaving the family's
	assert.Equal(t, []ontology.Key{ceph, penam}, g.DrugClassesOf(keyOf(t, store, "TEM-3")))
	assert.Equal(t, 1, diag.Count(ontology.WarnUnresolvedDrugClass))

	assert.Empty(t, g.DrugClassesOf(ceph))
	assert.Nil(t, g.DrugClassesOf(ontology.Key(0)))
}
