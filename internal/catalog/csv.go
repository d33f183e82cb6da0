package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knowledge-engine/recommender/internal/fetcher"
)

// CSVSource reads the catalog from a local CSV file with a header row
type CSVSource struct {
	Path    string
	Columns Columns
}

func (s *CSVSource) String() string {
	return "csv:" + s.Path
}

func (s *CSVSource) Rows(ctx context.Context) ([]Row, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return ParseCSV(file, s.Columns)
}

// HTTPSource downloads a CSV catalog
type HTTPSource struct {
	URL     string
	Columns Columns
	Fetcher *fetcher.Fetcher
}

func (s *HTTPSource) String() string {
	return s.URL
}

func (s *HTTPSource) Rows(ctx context.Context) ([]Row, error) {
	res, err := s.Fetcher.Fetch(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	return ParseCSV(bytes.NewReader(res.Body), s.Columns)
}

// ParseCSV reads a header row followed by records. The name column is
// required; a missing tags column or a blank cell yields empty tags.
// Other columns are kept as item attributes. Records are returned as
// read; Load drops the ones that fail validation.
func ParseCSV(r io.Reader, cols Columns) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	nameIdx, tagsIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case cols.Name:
			if nameIdx < 0 {
				nameIdx = i
			}
		case cols.Tags:
			if tagsIdx < 0 {
				tagsIdx = i
			}
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("missing name column %q", cols.Name)
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := Row{Attributes: make(map[string]string)}
		for i, value := range record {
			if i >= len(header) {
				break
			}
			switch i {
			case nameIdx:
				row.Name = value
			case tagsIdx:
				row.Tags = value
			default:
				row.Attributes[strings.TrimSpace(header[i])] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
