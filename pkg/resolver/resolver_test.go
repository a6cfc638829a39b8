package resolver

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/aroresolve/pkg/hierarchy"
	"github.com/nainya/aroresolve/pkg/index"
	"github.com/nainya/aroresolve/pkg/ontology"
	"github.com/nainya/aroresolve/pkg/search"
)

func newResolver(t *testing.T, records ...ontology.Record) (*Resolver, *index.Index) {
	t.Helper()
	store, err := ontology.Load(records)
	require.NoError(t, err)
	ix, _ := index.Build(store)
	graph, _ := hierarchy.Derive(store, ix)
	return New(ix, graph, search.New(ix, search.DefaultOptions()), Options{}), ix
}

func fixture() []ontology.Record {
	return []ontology.Record{
		{Accession: "ARO:0001003", Name: "antibiotic target protection"},
		{Accession: "ARO:0001003", Name: "skin epidermis"},
		{Accession: "ARO:3000014", Name: "TEM beta-lactamase", Synonyms: []string{"blaTEM"}},
		{Accession: "ARO:3000873", Name: "TEM-1", Synonyms: []string{"blaTEM-1"}},
		{Accession: "ARO:3000874", Name: "TEM-10"},
		{Accession: "ARO:0000016", Name: "ErmD", Description: "ErmD is a methyltransferase"},
		{Accession: "ARO:3000498", Name: "ermD", Description: "ErmD is a methyltransferase"},
		{Accession: "ARO:0000042", Name: "cefepime"},
		{Accession: "ARO:0000043", Name: "cefotaxime"},
		{Accession: "ARO:0000044", Name: "ceftriaxone"},
		{Accession: "ARO:0000045", Name: "ceftazidime"},
		{Accession: "ARO:0000046", Name: "acriflavine"},
	}
}

func candidateNames(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Entry.Name)
	}
	return out
}

// outcome drops keys, which depend on input order, and sorts candidates
func outcome(res Result) []string {
	out := []string{res.Outcome.String(), res.Confidence.String(), res.Reason}
	if res.Resolved() {
		out = append(out, res.Entry.Accession+"|"+res.Entry.Name)
	}
	var cands []string
	for _, c := range res.Candidates {
		cands = append(cands, fmt.Sprintf("%s|%s|%d|%s", c.Entry.Accession, c.Entry.Name, c.Score, c.Reason))
	}
	slices.Sort(cands)
	return append(out, cands...)
}

func TestResolveIgnoresInputOrder(t *testing.T) {
	records := fixture()
	reversed := slices.Clone(records)
	slices.Reverse(reversed)
	rotated := append(slices.Clone(records[5:]), records[:5]...)

	var queries []Query
	for _, rec := range records {
		queries = append(queries, AccessionQuery(rec.Accession), NameQuery(rec.Name))
		for _, syn := range rec.Synonyms {
			queries = append(queries, NameQuery(syn))
		}
	}

	base, _ := newResolver(t, records...)
	for _, perm := range [][]ontology.Record{reversed, rotated} {
		r, _ := newResolver(t, perm...)
		for _, q := range queries {
			if diff := cmp.Diff(outcome(base.Resolve(q)), outcome(r.Resolve(q))); diff != "" {
				t.Errorf("%v %q differs (-base +permuted):\n%s", q.Kind, q.Text, diff)
			}
		}
	}
}

func TestDuplicateAccessionIsAmbiguous(t *testing.T) {
	r, _ := newResolver(t,
		ontology.Record{Accession: "ARO:0001003", Name: "antibiotic target protection"},
		ontology.Record{Accession: "ARO:0001003", Name: "skin epidermis"},
	)

	res := r.ResolveByAccession("ARO:0001003")
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Equal(t, []string{"antibiotic target protection", "skin epidermis"}, candidateNames(res.Candidates))
	for _, c := range res.Candidates {
		assert.Contains(t, c.Reason, "accession match")
	}
	assert.Contains(t, res.Reason, "2 entries share accession ARO:0001003")
}

func TestDuplicateAccessionNeverResolvesWithoutHint(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	for _, spelling := range []string{"ARO:0001003", "ARO_0001003", "0001003", " aro:0001003 "} {
		res := r.ResolveByAccession(spelling)
		require.Equal(t, OutcomeAmbiguous, res.Outcome, spelling)
		assert.Len(t, res.Candidates, 2, spelling)
	}
}

func TestMixedAccessionSpellingsAreOneAccession(t *testing.T) {
	r, _ := newResolver(t,
		ontology.Record{Accession: "ARO:0001003", Name: "antibiotic target protection"},
		ontology.Record{Accession: "ARO_0001003", Name: "skin epidermis"},
		ontology.Record{Accession: "ARO:3000873", Name: "TEM-1"},
	)

	for _, spelling := range []string{"ARO:0001003", "ARO_0001003", "0001003", "aro_0001003"} {
		res := r.ResolveByAccession(spelling)
		require.Equal(t, OutcomeAmbiguous, res.Outcome, spelling)
		assert.Equal(t, []string{"antibiotic target protection", "skin epidermis"}, candidateNames(res.Candidates), spelling)
		assert.Contains(t, res.Reason, "2 entries share accession ARO:0001003", spelling)
	}

	res := r.ResolveByAccession("ARO_3000873")
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "TEM-1", res.Entry.Name)
}

func TestUniqueAccessionsRoundTrip(t *testing.T) {
	r, ix := newResolver(t, fixture()...)

	checked := 0
	for _, e := range ix.Store().Entries() {
		if len(ix.LookupAccession(e.Accession)) != 1 {
			continue
		}
		res := r.ResolveByAccession(e.Accession)
		require.Equal(t, OutcomeResolved, res.Outcome, e.Accession)
		assert.Equal(t, e.Key, res.Entry.Key)
		assert.Equal(t, ConfidenceExact, res.Confidence)
		checked++
	}
	assert.Equal(t, len(fixture())-2, checked)
}

func TestNameLookupIgnoresCaseAndWhitespace(t *testing.T) {
	r, ix := newResolver(t, fixture()...)

	for _, e := range ix.Store().Entries() {
		messy := "\t " + strings.ReplaceAll(strings.ToUpper(e.Name), " ", "   ") + "  "
		assert.Equal(t, r.ResolveByName(e.Name), r.ResolveByName(messy), e.Name)
	}
}

func TestNearDuplicateNamesDoNotCollide(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.ResolveByName("TEM-1")
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "ARO:3000873", res.Entry.Accession)

	res = r.ResolveByName("tem-10")
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "ARO:3000874", res.Entry.Accession)
}

func TestIdenticalNamesAreAmbiguous(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.ResolveByName("ERMD")
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Equal(t, []string{"ErmD", "ermD"}, candidateNames(res.Candidates))
	assert.Equal(t, `2 entries are named "ermd"`, res.Reason)
}

func TestSynonymResolution(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.ResolveByName("blaTEM-1")
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "TEM-1", res.Entry.Name)
}

func TestPrimaryNamesBeforeSynonyms(t *testing.T) {
	r, _ := newResolver(t,
		ontology.Record{Accession: "ARO:0000001", Name: "tet(M) protein", Synonyms: []string{"tetM"}},
		ontology.Record{Accession: "ARO:0000002", Name: "tetM"},
	)

	res := r.ResolveByName("tetm")
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "tetM", res.Candidates[0].Entry.Name)
	assert.Equal(t, "name match", res.Candidates[0].Reason)
	assert.Equal(t, "tet(M) protein", res.Candidates[1].Entry.Name)
	assert.Equal(t, "synonym match", res.Candidates[1].Reason)
}

func TestCategoryHintDisambiguates(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.Resolve(Query{Kind: ByAccession, Text: "ARO:0001003", CategoryHint: "anatomy"})
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "skin epidermis", res.Entry.Name)
	assert.Equal(t, ConfidenceDisambiguated, res.Confidence)

	res = r.Resolve(Query{Kind: ByAccession, Text: "ARO:0001003", CategoryHint: "target protection"})
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "antibiotic target protection", res.Entry.Name)
}

func TestUnmatchedCategoryHintKeepsCandidates(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.Resolve(Query{Kind: ByAccession, Text: "ARO:0001003", CategoryHint: "porin"})
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Len(t, res.Candidates, 2)
	assert.Contains(t, res.Reason, `no candidate matches category "porin"`)

	res = r.Resolve(Query{Kind: ByAccession, Text: "ARO:0001003", CategoryHint: "zzz"})
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Contains(t, res.Reason, "not recognised")
}

func TestCategoryHintMatchesAncestors(t *testing.T) {
	r, _ := newResolver(t,
		ontology.Record{Accession: "ARO:3000014", Name: "TEM beta-lactamase"},
		ontology.Record{Accession: "ARO:7000001", Name: "TEM-1"},
		ontology.Record{Accession: "ARO:7000001", Name: "skin epidermis"},
	)

	res := r.Resolve(Query{Kind: ByAccession, Text: "ARO:7000001", CategoryHint: "beta-lactamase"})
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "TEM-1", res.Entry.Name)
	assert.Equal(t, ConfidenceDisambiguated, res.Confidence)
}

func TestFreeTextIsAdvisory(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.ResolveFreeText("cef", "")
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Equal(t, ConfidenceAdvisory, res.Confidence)
	assert.Equal(t, []string{"cefepime", "cefotaxime", "ceftriaxone", "ceftazidime"}, candidateNames(res.Candidates))
	assert.Equal(t, `prefix match on name "cefepime"`, res.Candidates[0].Reason)

	// a single exact hit is still only advisory
	res = r.ResolveFreeText("acriflavine", "")
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, search.ScoreExact, res.Candidates[0].Score)
}

func TestFreeTextCategoryFilter(t *testing.T) {
	r, _ := newResolver(t,
		ontology.Record{Accession: "ARO:3000014", Name: "TEM beta-lactamase"},
		ontology.Record{Accession: "ARO:3000873", Name: "TEM-1"},
		ontology.Record{Accession: "ARO:0000099", Name: "temperature sensor"},
	)

	res := r.ResolveFreeText("tem", "beta-lactamase")
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.ElementsMatch(t, []string{"TEM beta-lactamase", "TEM-1"}, candidateNames(res.Candidates))
	assert.Contains(t, res.Reason, "filtered by category")
}

func TestNotFound(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	res := r.ResolveByAccession("ARO:9999999")
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, "No match found for ARO:9999999 in the CARD Antibiotic Resistance Ontology.", res.Reason)

	assert.Equal(t, OutcomeNotFound, r.ResolveByName("TEM-999").Outcome)
	assert.Equal(t, OutcomeNotFound, r.ResolveFreeText("qqqqqqqq", "").Outcome)
}

func TestEmptyQueriesAreInvalid(t *testing.T) {
	r, _ := newResolver(t, fixture()...)

	for _, q := range []Query{
		AccessionQuery(""),
		AccessionQuery("   "),
		NameQuery("\t\n"),
		FreeTextQuery("", "anatomy"),
		{Kind: Kind(42), Text: "TEM-1"},
	} {
		res := r.Resolve(q)
		assert.Equal(t, OutcomeInvalidQuery, res.Outcome, q.Kind.String())
		assert.NotEmpty(t, res.Reason)
		assert.Empty(t, res.Candidates)
	}
}
