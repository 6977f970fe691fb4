package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/medworld/product-search/internal/pkg/errors"
)

// RespondDomainError maps a core error kind onto an HTTP status. Kinds are
// matched with errors.Is so wrapped chains resolve correctly; cancellation
// is checked first so a timed-out request never masquerades as a
// store failure.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		RespondError(c, http.StatusServiceUnavailable, "request_cancelled", err)
	case errors.Is(err, errs.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, errs.ErrAlreadyExists):
		RespondError(c, http.StatusConflict, "already_exists", err)
	case errors.Is(err, errs.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, errs.ErrEmbeddingUnavailable):
		RespondError(c, http.StatusBadGateway, "embedding_unavailable", err)
	case errors.Is(err, errs.ErrIndexUnavailable):
		RespondError(c, http.StatusBadGateway, "index_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
