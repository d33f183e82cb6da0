package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the catalog source could not be read. It is
	// fatal for the whole recommendation feature, not for one request.
	ErrDataUnavailable = errors.New("catalog data unavailable")

	// ErrEmptyCatalog is returned for a source with no rows. It also
	// matches ErrDataUnavailable.
	ErrEmptyCatalog = fmt.Errorf("%w: catalog is empty", ErrDataUnavailable)
)

func unavailable(src Source, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDataUnavailable, src, err)
}
