package retrieval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/models"
)

func doc(id string, payer models.Payer, category, text string) models.PolicyDocument {
	return models.PolicyDocument{ID: id, Payer: payer, Category: category, Text: text}
}

func ids(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Document.ID)
	}
	return out
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The MRI, of the Lumbar-Spine (L4/L5) x")
	assert.Equal(t, []string{"mri", "lumbar", "spine", "l4", "l5"}, got)
	assert.Empty(t, Tokenize("the of and x"))
	assert.Equal(t, []string{"knee", "knee"}, Tokenize("knee KNEE"))
}

func TestSearchRanksByCosine(t *testing.T) {
	idx := NewIndex([]models.PolicyDocument{
		doc("A", models.PayerUHC, "knee_replacement", "knee arthroplasty osteoarthritis"),
		doc("B", models.PayerAetna, "MRI", "lumbar spine mri"),
		doc("C", models.PayerBCBS, "MRI", "knee mri"),
	})

	results := idx.Search("knee", 5)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"C", "A"}, ids(results))

	idf := math.Log(3.0 / 2.0)
	wantC := idf / math.Sqrt(idf*idf+idf*idf)
	assert.InDelta(t, wantC, results[0].Score, 1e-9)
	assert.Greater(t, results[0].Score, results[1].Score)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0+1e-9)
	}
}

func TestSearchTiesKeepCorpusOrder(t *testing.T) {
	idx := NewIndex([]models.PolicyDocument{
		doc("D1", models.PayerUHC, "cardiac_catheterization", "cardiac catheterization"),
		doc("D2", models.PayerAetna, "cardiac_catheterization", "cardiac catheterization"),
		doc("D3", models.PayerBCBS, "MRI", "unrelated words here"),
	})
	results := idx.Search("cardiac", 5)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"D1", "D2"}, ids(results))
	assert.Equal(t, results[0].Score, results[1].Score)
}

func TestSearchTermInEveryDocumentStillScores(t *testing.T) {
	idx := NewIndex([]models.PolicyDocument{
		doc("P1", models.PayerUHC, "knee_replacement", "policy knee"),
		doc("P2", models.PayerAetna, "MRI", "policy spine"),
	})
	results := idx.Search("policy", 5)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"P1", "P2"}, ids(results))
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchSingleDocumentExactMatchScoresOne(t *testing.T) {
	text := "Total knee arthroplasty requires weight-bearing radiographs and failed physical therapy"
	idx := NewIndex([]models.PolicyDocument{doc("ONLY", models.PayerUHC, "knee_replacement", text)})

	results := idx.Search(text, 3)
	require.Len(t, results, 1)
	assert.Equal(t, "ONLY", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)

	// Unknown words carry no weight, so the match stays perfect.
	results = idx.Search(text+" zebra quantum", 3)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchEdgeCases(t *testing.T) {
	idx := NewIndex(corpus.Default().Documents)

	assert.Empty(t, idx.Search("", 5))
	assert.Empty(t, idx.Search("the of and", 5))
	assert.Empty(t, idx.Search("zebra quantum", 5))
	assert.Empty(t, idx.Search("knee", 0))
	assert.Empty(t, idx.Search("knee", -3))

	all := idx.Search("knee", 100)
	assert.Len(t, all, 3, "only positively scored documents are returned")

	var empty *Index
	assert.Empty(t, empty.Search("knee", 5))
	assert.Equal(t, 0, NewIndex(nil).Len())
	assert.Empty(t, NewIndex(nil).Search("knee", 5))
}

func TestSearchDefaultCorpus(t *testing.T) {
	idx := NewIndex(corpus.Default().Documents)
	assert.Equal(t, 8, idx.Len())
	assert.Greater(t, idx.Vocabulary(), 100)

	results := idx.Search("MRI Lumbar Spine MRI Aetna", 3)
	require.Len(t, results, 3)
	assert.Equal(t, "AETNA-MRI-001", results[0].Document.ID)

	results = idx.Search("osteoarthritis kellgren lawrence", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "UHC-KNEE-001", results[0].Document.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchFiltered(t *testing.T) {
	idx := NewIndex(corpus.Default().Documents)

	results := idx.SearchFiltered("knee", 5, Filter{Payer: models.PayerAetna})
	require.Len(t, results, 1)
	assert.Equal(t, "AETNA-KNEE-001", results[0].Document.ID)

	results = idx.SearchFiltered("prior authorization", 10, Filter{Category: "mri"})
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "MRI", r.Document.Category)
	}

	assert.Empty(t, idx.SearchFiltered("knee", 5, Filter{Payer: models.PayerBCBS, Category: "biologics"}))
}

func TestDocumentsReturnsCopy(t *testing.T) {
	idx := NewIndex(corpus.Default().Documents)
	docs := idx.Documents()
	docs[0].ID = "mutated"
	assert.NotEqual(t, "mutated", idx.Documents()[0].ID)
}
