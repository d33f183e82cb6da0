package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/catalog"
	"github.com/knowledge-engine/recommender/internal/search"
)

const DefaultTopK = 10

// Options tunes an engine build
type Options struct {
	TopK      int
	StopWords []string

	// StripMarkup indexes tags with HTML tags and entities removed. The
	// catalog items keep their original tag text either way.
	StripMarkup bool
}

// Recommendation is a catalog item with its similarity to the query
type Recommendation struct {
	Item  catalog.Item
	Score float64
}

// Request carries the two query modes. A non-blank Query wins over Name.
type Request struct {
	Name  string
	Query string
}

// Mode names the query mode a Request resolves to
type Mode string

const (
	ModeNone Mode = "none"
	ModeName Mode = "name"
	ModeText Mode = "text"
)

// Mode reports which query mode the request selects
func (r Request) Mode() Mode {
	switch {
	case strings.TrimSpace(r.Query) != "":
		return ModeText
	case strings.TrimSpace(r.Name) != "":
		return ModeName
	default:
		return ModeNone
	}
}

// Stats describes a built engine
type Stats struct {
	Items          int           `json:"items"`
	UniqueNames    int           `json:"unique_names"`
	VocabularySize int           `json:"vocabulary_size"`
	Fingerprint    string        `json:"fingerprint"`
	Signature      string        `json:"signature"`
	BuiltAt        time.Time     `json:"built_at"`
	BuildDuration  time.Duration `json:"build_duration"`
}

// Engine answers recommendation queries over one catalog. It is built
// once by Build and never mutated afterwards, so it is safe for any
// number of concurrent readers.
type Engine struct {
	catalog *catalog.Catalog
	index   *search.Index
	topK    int
	stats   Stats
}

// Build vectorizes the catalog and precomputes all pairwise similarities
func Build(cat *catalog.Catalog, opts Options, logger *logrus.Entry) (*Engine, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}

	start := time.Now()
	docs := cat.Tags()
	if opts.StripMarkup {
		docs = catalog.CleanAll(docs)
	}
	index := search.NewIndex(docs, search.NewStopWords(opts.StopWords...))

	e := &Engine{
		catalog: cat,
		index:   index,
		topK:    opts.TopK,
	}
	e.stats = Stats{
		Items:          cat.Len(),
		UniqueNames:    len(cat.Names()),
		VocabularySize: index.VocabularySize(),
		Fingerprint:    cat.Fingerprint(),
		Signature:      signature(cat.Fingerprint(), opts),
		BuiltAt:        time.Now(),
		BuildDuration:  time.Since(start),
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"items":       e.stats.Items,
			"vocabulary":  e.stats.VocabularySize,
			"duration":    e.stats.BuildDuration,
			"fingerprint": e.stats.Fingerprint[:12],
		}).Info("Recommendation engine built")
	}
	return e, nil
}

// RecommendByName returns the items most similar to the named one. The
// named item, and any duplicate rows sharing its lookup key, are excluded.
func (e *Engine) RecommendByName(name string) ([]Recommendation, error) {
	row, ok := e.catalog.Lookup(name)
	if !ok {
		return nil, &UnknownItemError{Name: name}
	}
	key := e.catalog.Item(row).Key
	exclude := func(i int) bool {
		return i == row || e.catalog.Item(i).Key == key
	}
	return e.collect(search.Rank(e.index.Similar(row), e.topK, exclude)), nil
}

// RecommendByText ranks every item against a free-text description. It
// never fails; text without known terms scores 0 everywhere.
func (e *Engine) RecommendByText(text string) []Recommendation {
	return e.collect(search.Rank(e.index.Query(text), e.topK, nil))
}

// Recommend dispatches a request to the mode it selects. A request with
// neither a name nor a query yields an empty result.
func (e *Engine) Recommend(req Request) ([]Recommendation, error) {
	switch req.Mode() {
	case ModeText:
		return e.RecommendByText(req.Query), nil
	case ModeName:
		return e.RecommendByName(req.Name)
	default:
		return []Recommendation{}, nil
	}
}

// ItemNames lists the unique display names in lexicographic order
func (e *Engine) ItemNames() []string {
	return e.catalog.Names()
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Engine) TopK() int {
	return e.topK
}

func (e *Engine) Stats() Stats {
	return e.stats
}

// signature identifies everything a result depends on: the catalog
// contents and the options that change scores or result length
func signature(fingerprint string, opts Options) string {
	words := make([]string, 0, len(opts.StopWords))
	for _, w := range opts.StopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|k=%d|markup=%t|stop=%s",
		fingerprint, opts.TopK, opts.StripMarkup, strings.Join(words, ","))))
	return hex.EncodeToString(sum[:])
}

func (e *Engine) collect(scores []search.Score) []Recommendation {
	out := make([]Recommendation, len(scores))
	for i, s := range scores {
		out[i] = Recommendation{Item: e.catalog.Item(s.Index), Score: s.Value}
	}
	return out
}
