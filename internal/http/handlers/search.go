package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medworld/product-search/internal/http/response"
	"github.com/medworld/product-search/internal/pkg/logger"
	"github.com/medworld/product-search/internal/services"
)

const maxImageUploadBytes = 16 << 20

type SearchHandler struct {
	log    *logger.Logger
	search services.SearchService
}

func NewSearchHandler(log *logger.Logger, search services.SearchService) *SearchHandler {
	return &SearchHandler{
		log:    log.With("handler", "SearchHandler"),
		search: search,
	}
}

// Search handles GET /search?q=...&top_k=...
func (h *SearchHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_query", fmt.Errorf("query parameter q is required"))
		return
	}
	results, err := h.search.Text(c.Request.Context(), q, topKParam(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, results)
}

// SearchByImage handles POST /search/image with a multipart "file" part.
func (h *SearchHandler) SearchByImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fileHeader.Size > maxImageUploadBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", fmt.Errorf("image exceeds %d bytes", maxImageUploadBytes))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxImageUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	results, err := h.search.Image(c.Request.Context(), raw, topKParam(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, results)
}

func topKParam(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("top_k"))
	if raw == "" {
		raw = strings.TrimSpace(c.PostForm("top_k"))
	}
	if raw == "" {
		return 0
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 0 {
		return 0
	}
	return k
}
