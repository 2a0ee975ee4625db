package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuery        = errors.New("invalid query")
	ErrNoContextFound      = errors.New("no relevant context found")
	ErrRetrievalTransport  = errors.New("retrieval transport failure")
	ErrGenerationTransport = errors.New("generation transport failure")
	ErrGenerationFatal     = errors.New("generation request rejected")

	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
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
