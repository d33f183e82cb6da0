package search

import (
	"math"
	"sort"
)

// Vectorizer turns text into a vector
type Vectorizer interface {
	Fit(docs []string) []SparseVector
	Transform(text string) SparseVector
	VocabularySize() int
}

// TFIDFVectorizer implements Term Frequency - Inverse Document Frequency
// with a sorted vocabulary, smoothed idf and L2 normalised output.
type TFIDFVectorizer struct {
	StopWords  StopWords
	Vocabulary map[string]int
	Terms      []string
	IDF        []float64
}

func NewTFIDFVectorizer(stopWords StopWords) *TFIDFVectorizer {
	return &TFIDFVectorizer{
		StopWords:  stopWords,
		Vocabulary: make(map[string]int),
	}
}

// Fit builds the vocabulary and IDF table from the corpus and returns
// the vector of every document, in input order.
func (v *TFIDFVectorizer) Fit(docs []string) []SparseVector {
	tokenized := make([][]string, len(docs))
	wordDocCounts := make(map[string]int)

	// 1. Tokenize and count document occurrences
	for i, doc := range docs {
		tokens := TokenizeFiltered(doc, v.StopWords)
		tokenized[i] = tokens
		seenInDoc := make(map[string]bool, len(tokens))
		for _, token := range tokens {
			if !seenInDoc[token] {
				wordDocCounts[token]++
				seenInDoc[token] = true
			}
		}
	}

	// 2. Sorted vocabulary so indices do not depend on map iteration
	terms := make([]string, 0, len(wordDocCounts))
	for term := range wordDocCounts {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v.Terms = terms
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))

	// 3. idf = ln((1 + N) / (1 + df)) + 1
	n := float64(len(docs))
	for idx, term := range terms {
		v.Vocabulary[term] = idx
		v.IDF[idx] = math.Log((1+n)/(1+float64(wordDocCounts[term]))) + 1
	}

	vectors := make([]SparseVector, len(docs))
	for i, tokens := range tokenized {
		vectors[i] = v.weigh(tokens)
	}
	return vectors
}

// Transform converts text to a vector based on the learned vocabulary.
// Terms outside the vocabulary are ignored.
func (v *TFIDFVectorizer) Transform(text string) SparseVector {
	return v.weigh(TokenizeFiltered(text, v.StopWords))
}

func (v *TFIDFVectorizer) VocabularySize() int {
	return len(v.Terms)
}

func (v *TFIDFVectorizer) weigh(tokens []string) SparseVector {
	tf := make(map[int]float64)
	for _, token := range tokens {
		if idx, exists := v.Vocabulary[token]; exists {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return SparseVector{}
	}

	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for k, idx := range indices {
		values[k] = tf[idx] * v.IDF[idx]
	}
	return normalize(SparseVector{Indices: indices, Values: values})
}
