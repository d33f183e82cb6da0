package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/config"
	"github.com/knowledge-engine/recommender/internal/fetcher"
)

// Source yields the raw rows of the restaurant table, in table order
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
	String() string
}

// Columns names the fields a source maps onto a Row
type Columns struct {
	Name string
	Tags string
}

// Load reads src and builds the catalog. Rows that fail validation, such
// as a blank name, are skipped with a warning. Every failure is reported
// as ErrDataUnavailable; callers should disable recommendations rather
// than retry per request.
func Load(ctx context.Context, src Source, logger *logrus.Entry) (*Catalog, error) {
	raw, err := src.Rows(ctx)
	if err != nil {
		return nil, unavailable(src, err)
	}

	rows := make([]Row, 0, len(raw))
	for i, row := range raw {
		if err := row.Validate(); err != nil {
			if logger != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"source": src.String(),
					"row":    i + 1,
				}).Warn("Skipping invalid catalog row")
			}
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptyCatalog)
	}

	cat, err := New(rows)
	if err != nil {
		return nil, unavailable(src, err)
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"source":  src.String(),
			"items":   cat.Len(),
			"names":   len(cat.names),
			"skipped": len(raw) - len(rows),
		}).Info("Catalog loaded")
	}
	return cat, nil
}

// NewSource picks a source implementation from the shape of cfg.Source:
//   - http:// or https://: CSV downloaded through f
//   - postgres:// or postgresql://: PostgreSQL table
//   - sqlite:// prefix, or a .db/.sqlite path: SQLite table
//   - anything else: local CSV file
func NewSource(cfg config.CatalogConfig, f *fetcher.Fetcher) (Source, error) {
	location := strings.TrimSpace(cfg.Source)
	if location == "" {
		return nil, fmt.Errorf("%w: no catalog source configured", ErrDataUnavailable)
	}
	cols := Columns{Name: cfg.NameColumn, Tags: cfg.TagsColumn}

	switch {
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		if f == nil {
			return nil, fmt.Errorf("http catalog source requires a fetcher")
		}
		return &HTTPSource{URL: location, Columns: cols, Fetcher: f}, nil
	case strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://"):
		return NewPostgresSource(location, cfg.Table, cfg.OrderColumn, cols)
	case strings.HasPrefix(location, "sqlite://"):
		return NewSQLiteSource(strings.TrimPrefix(location, "sqlite://"), cfg.Table, cfg.OrderColumn, cols)
	case strings.HasSuffix(location, ".db") || strings.HasSuffix(location, ".sqlite"):
		return NewSQLiteSource(location, cfg.Table, cfg.OrderColumn, cols)
	default:
		return &CSVSource{Path: location, Columns: cols}, nil
	}
}
