package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownItem is matched by every UnknownItemError
var ErrUnknownItem = errors.New("unknown item")

// UnknownItemError reports a by-name query whose name is not in the catalog.
// It is a normal negative result, not a failure of the engine.
type UnknownItemError struct {
	Name string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownItem, e.Name)
}

func (e *UnknownItemError) Unwrap() error {
	return ErrUnknownItem
}
