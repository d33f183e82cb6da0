package search

// Index holds the fitted vectorizer, every document vector and the
// precomputed pairwise similarity matrix. It is never mutated after
// NewIndex returns, so concurrent readers need no locking.
type Index struct {
	vectorizer *TFIDFVectorizer
	vectors    []SparseVector
	matrix     *Matrix
}

// NewIndex fits the vectorizer over docs and precomputes all similarities
func NewIndex(docs []string, stopWords StopWords) *Index {
	vectorizer := NewTFIDFVectorizer(stopWords)
	vectors := vectorizer.Fit(docs)
	return &Index{
		vectorizer: vectorizer,
		vectors:    vectors,
		matrix:     PairwiseMatrix(vectors),
	}
}

func (ix *Index) Len() int {
	return len(ix.vectors)
}

func (ix *Index) VocabularySize() int {
	return ix.vectorizer.VocabularySize()
}

func (ix *Index) Vector(i int) SparseVector {
	return ix.vectors[i]
}

func (ix *Index) Matrix() *Matrix {
	return ix.matrix
}

// Similar returns the precomputed similarity of row i to every row
func (ix *Index) Similar(i int) []Score {
	return ix.matrix.Scores(i)
}

// Query vectorizes free text against the fixed vocabulary and scores
// it against every row
func (ix *Index) Query(text string) []Score {
	return SimilarityOf(ix.vectorizer.Transform(text), ix.vectors)
}
