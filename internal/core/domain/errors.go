package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemporary       = errors.New("temporary failure")

	// Search pipeline failure kinds.
	ErrExpansionFailed      = errors.New("expansion failed")
	ErrRetrievalFailed      = errors.New("retrieval failed")
	ErrDegradedSearchFailed = errors.New("degraded search failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
