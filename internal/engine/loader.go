package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/catalog"
	"github.com/knowledge-engine/recommender/internal/metrics"
)

// Load reads the catalog from src and builds an engine over it. Any
// catalog failure comes back wrapping catalog.ErrDataUnavailable.
func Load(ctx context.Context, src catalog.Source, opts Options, logger *logrus.Entry) (*Engine, error) {
	start := time.Now()

	cat, err := catalog.Load(ctx, src, logger)
	if err != nil {
		metrics.RecordBuildError()
		return nil, err
	}

	e, err := Build(cat, opts, logger)
	if err != nil {
		metrics.RecordBuildError()
		return nil, err
	}

	metrics.RecordBuild(e.stats.Items, e.stats.VocabularySize, time.Since(start).Seconds())
	return e, nil
}

// Builder returns a BuildFunc for Holder.Rebuild reading from src
func Builder(src catalog.Source, opts Options, logger *logrus.Entry) BuildFunc {
	return func(ctx context.Context) (*Engine, error) {
		return Load(ctx, src, opts, logger)
	}
}
