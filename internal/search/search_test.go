package search_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/recommender/internal/search"
)

func TestTokenize(t *testing.T) {
	text := "Hello, World! This is a test of Café_Bar 7 and a 24h diner."
	tokens := search.Tokenize(text)

	expected := []string{"hello", "world", "this", "is", "test", "of", "café_bar", "and", "24h", "diner"}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}

	for i, token := range tokens {
		if token != expected[i] {
			t.Errorf("At index %d: expected %s, got %s", i, expected[i], token)
		}
	}
}

func TestTokenizeFiltered(t *testing.T) {
	tokens := search.TokenizeFiltered("The best pizza in the whole town", search.EnglishStopWords())
	assert.Equal(t, []string{"best", "pizza", "town"}, tokens)

	extra := search.NewStopWords("Pizza")
	assert.Equal(t, []string{"best", "town"}, search.TokenizeFiltered("The best pizza in the whole town", extra))
}

func TestTFIDFVectorizer(t *testing.T) {
	docs := []string{
		"apple banana",
		"apple orange",
	}

	vectorizer := search.NewTFIDFVectorizer(search.EnglishStopWords())
	vectors := vectorizer.Fit(docs)

	require.Len(t, vectors, 2)
	assert.Equal(t, 3, vectorizer.VocabularySize())
	assert.Equal(t, []string{"apple", "banana", "orange"}, vectorizer.Terms)

	// idf(apple) = ln(3/3) + 1 = 1, idf(banana) = ln(3/2) + 1
	assert.InDelta(t, 1.0, vectorizer.IDF[0], 1e-9)
	assert.InDelta(t, math.Log(1.5)+1, vectorizer.IDF[1], 1e-9)

	banana := math.Log(1.5) + 1
	norm := math.Sqrt(1 + banana*banana)
	assert.Equal(t, []int{0, 1}, vectors[0].Indices)
	assert.InDelta(t, 1/norm, vectors[0].Values[0], 1e-9)
	assert.InDelta(t, banana/norm, vectors[0].Values[1], 1e-9)
	assert.InDelta(t, 1.0, vectors[0].Norm(), 1e-9)
}

func TestTFIDFVectorizer_TermFrequency(t *testing.T) {
	vectorizer := search.NewTFIDFVectorizer(nil)
	vectors := vectorizer.Fit([]string{"spicy spicy noodles", "noodles"})

	dense := vectors[0].Dense(vectorizer.VocabularySize())
	// noodles idf 1, spicy idf ln(3/2)+1 with tf 2
	spicy := 2 * (math.Log(1.5) + 1)
	norm := math.Sqrt(1 + spicy*spicy)
	assert.InDelta(t, 1/norm, dense[vectorizer.Vocabulary["noodles"]], 1e-9)
	assert.InDelta(t, spicy/norm, dense[vectorizer.Vocabulary["spicy"]], 1e-9)
}

func TestTFIDFVectorizer_EmptyDocument(t *testing.T) {
	vectorizer := search.NewTFIDFVectorizer(search.EnglishStopWords())
	vectors := vectorizer.Fit([]string{"", "the and of", "tacos"})

	assert.True(t, vectors[0].IsZero())
	assert.True(t, vectors[1].IsZero())
	assert.False(t, vectors[2].IsZero())
	assert.Equal(t, 0.0, vectors[0].Norm())
}

func TestTFIDFVectorizer_TransformIgnoresUnknownTerms(t *testing.T) {
	vectorizer := search.NewTFIDFVectorizer(search.EnglishStopWords())
	vectorizer.Fit([]string{"italian pasta", "japanese sushi"})

	vec := vectorizer.Transform("italian food with jazz")
	assert.Equal(t, 4, vectorizer.VocabularySize())
	assert.Equal(t, []int{vectorizer.Vocabulary["italian"]}, vec.Indices)
	assert.InDelta(t, 1.0, vec.Values[0], 1e-9)

	assert.True(t, vectorizer.Transform("nothing known").IsZero())
}

func TestCosineSimilarity(t *testing.T) {
	vecA := search.SparseVector{Indices: []int{0, 2}, Values: []float64{1, 1}}
	vecB := search.SparseVector{Indices: []int{1, 2}, Values: []float64{1, 1}}

	// Dot product 1, norms sqrt(2) each
	score := search.CosineSimilarity(vecA, vecB)

	if math.Abs(score-0.5) > 0.0001 {
		t.Errorf("Expected similarity 0.5, got %f", score)
	}

	assert.Equal(t, 0.0, search.CosineSimilarity(search.SparseVector{}, vecA))
	assert.Equal(t, 0.0, search.CosineSimilarity(search.SparseVector{}, search.SparseVector{}))
	assert.InDelta(t, 1.0, search.CosineSimilarity(vecA, vecA), 1e-12)
}

func TestPairwiseMatrix(t *testing.T) {
	vectorizer := search.NewTFIDFVectorizer(search.EnglishStopWords())
	vectors := vectorizer.Fit([]string{
		"italian pasta romantic",
		"japanese sushi casual",
		"italian pasta casual",
		"",
	})

	m := search.PairwiseMatrix(vectors)
	require.Equal(t, 4, m.Size())

	for i := 0; i < m.Size(); i++ {
		for j := 0; j < m.Size(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i), "matrix must be symmetric")
			assert.GreaterOrEqual(t, m.At(i, j), 0.0)
			assert.LessOrEqual(t, m.At(i, j), 1.0)
		}
	}

	assert.InDelta(t, 1.0, m.At(0, 0), 1e-9)
	assert.Equal(t, 0.0, m.At(3, 3), "zero vector diagonal is 0")
	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Greater(t, m.At(0, 2), m.At(0, 1))

	row := m.Row(0)
	row[1] = 42
	assert.Equal(t, 0.0, m.At(0, 1), "Row must return a copy")
}

func TestRank(t *testing.T) {
	scores := []search.Score{
		{Index: 0, Value: 0.2},
		{Index: 1, Value: 0.9},
		{Index: 2, Value: 0.2},
		{Index: 3, Value: 0.5},
		{Index: 4, Value: 0.9},
	}

	ranked := search.Rank(scores, 0, nil)
	got := make([]int, len(ranked))
	for i, s := range ranked {
		got[i] = s.Index
	}
	assert.Equal(t, []int{1, 4, 3, 0, 2}, got)

	ranked = search.Rank(scores, 2, func(i int) bool { return i == 1 })
	require.Len(t, ranked, 2)
	assert.Equal(t, 4, ranked[0].Index)
	assert.Equal(t, 3, ranked[1].Index)

	assert.Empty(t, search.Rank(nil, 10, nil))
}

func TestIndex_Query(t *testing.T) {
	index := search.NewIndex([]string{
		"go programming language",
		"python programming language",
		"banana fruit split",
	}, search.EnglishStopWords())

	assert.Equal(t, 3, index.Len())

	results := search.Rank(index.Query("go language"), 10, nil)
	if results[0].Index != 0 {
		t.Errorf("Expected top result to be doc 0, got %d", results[0].Index)
	}

	results = search.Rank(index.Query("python"), 10, nil)
	if results[0].Index != 1 {
		t.Errorf("Expected top result to be doc 1, got %d", results[0].Index)
	}

	similar := index.Similar(0)
	require.Len(t, similar, 3)
	assert.Greater(t, similar[1].Value, similar[2].Value)
}
