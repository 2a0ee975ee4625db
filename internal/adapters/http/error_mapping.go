package httpadapter

import (
	"net/http"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrInvalidQuery):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrRetrievalTransport),
		domain.IsKind(err, domain.ErrGenerationTransport):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrGenerationFatal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
