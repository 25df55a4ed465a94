package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/clearpath-health/clearpath/internal/models"
)

// minIDF keeps terms present in every document at a small positive weight.
const minIDF = 0.1

// Index is a TF-IDF index over a fixed document set. It is read-only after
// NewIndex returns and safe for concurrent searches.
type Index struct {
	docs    []models.PolicyDocument
	vectors []map[string]float64
	norms   []float64
	idf     map[string]float64
}

// Result is one scored document.
type Result struct {
	Document models.PolicyDocument
	Score    float64
}

// Filter narrows the candidate set before ranking. Zero fields match everything.
type Filter struct {
	Payer    models.Payer
	Category string
}

func (f Filter) matches(doc models.PolicyDocument) bool {
	if f.Payer != "" && doc.Payer != f.Payer {
		return false
	}
	if f.Category != "" && !strings.EqualFold(doc.Category, f.Category) {
		return false
	}
	return true
}

// NewIndex builds the index. Title and body both contribute terms.
func NewIndex(docs []models.PolicyDocument) *Index {
	idx := &Index{
		docs:    append([]models.PolicyDocument(nil), docs...),
		vectors: make([]map[string]float64, len(docs)),
		norms:   make([]float64, len(docs)),
		idf:     make(map[string]float64),
	}

	tfs := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tfs[i] = termFrequencies(Tokenize(doc.Title + " " + doc.Text))
		for term := range tfs[i] {
			df[term]++
		}
	}

	n := float64(len(docs))
	for term, count := range df {
		idx.idf[term] = math.Max(math.Log(n/float64(count)), minIDF)
	}

	for i, tf := range tfs {
		vec := make(map[string]float64, len(tf))
		for term, count := range tf {
			vec[term] = float64(count) * idx.idf[term]
		}
		idx.vectors[i] = vec
		idx.norms[i] = magnitude(vec)
	}
	return idx
}

// Search returns up to topK documents with a positive cosine score, best first.
// Equal scores keep corpus order.
func (idx *Index) Search(query string, topK int) []Result {
	return idx.SearchFiltered(query, topK, Filter{})
}

// SearchFiltered is Search restricted to documents matching filter.
func (idx *Index) SearchFiltered(query string, topK int, filter Filter) []Result {
	if idx == nil || topK <= 0 {
		return nil
	}
	qvec := idx.queryVector(query)
	qnorm := magnitude(qvec)
	if qnorm == 0 {
		return nil
	}

	results := make([]Result, 0, len(idx.docs))
	for i, doc := range idx.docs {
		if !filter.matches(doc) || idx.norms[i] == 0 {
			continue
		}
		dot := 0.0
		for term, w := range qvec {
			dot += w * idx.vectors[i][term]
		}
		score := dot / (qnorm * idx.norms[i])
		if score <= 0 {
			continue
		}
		results = append(results, Result{Document: doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// queryVector weights query terms with the corpus IDF. Terms outside the
// vocabulary cannot match any document and are ignored.
func (idx *Index) queryVector(query string) map[string]float64 {
	tf := termFrequencies(Tokenize(query))
	vec := make(map[string]float64, len(tf))
	for term, count := range tf {
		idf, ok := idx.idf[term]
		if !ok {
			continue
		}
		vec[term] = float64(count) * idf
	}
	return vec
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}

// Vocabulary returns the number of distinct indexed terms.
func (idx *Index) Vocabulary() int {
	if idx == nil {
		return 0
	}
	return len(idx.idf)
}

// Documents returns a copy of the indexed documents in corpus order.
func (idx *Index) Documents() []models.PolicyDocument {
	if idx == nil {
		return nil
	}
	return append([]models.PolicyDocument(nil), idx.docs...)
}

func magnitude(vec map[string]float64) float64 {
	sum := 0.0
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}
