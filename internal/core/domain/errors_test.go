package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:6333: connection refused")
	err := WrapError(ErrRetrievalTransport, "vector search", cause)

	if !IsKind(err, ErrRetrievalTransport) {
		t.Fatalf("expected kind to be preserved")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	if IsKind(err, ErrGenerationTransport) {
		t.Fatalf("unexpected kind match")
	}
	if !strings.HasPrefix(err.Error(), "vector search: ") {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(ErrTemporary, "op", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}
