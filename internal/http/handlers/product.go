package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medworld/product-search/internal/catalog"
	"github.com/medworld/product-search/internal/http/response"
	"github.com/medworld/product-search/internal/pkg/logger"
	"github.com/medworld/product-search/internal/services"
)

type ProductHandler struct {
	log      *logger.Logger
	products services.ProductService
	search   services.SearchService
}

func NewProductHandler(log *logger.Logger, products services.ProductService, search services.SearchService) *ProductHandler {
	return &ProductHandler{
		log:      log.With("handler", "ProductHandler"),
		products: products,
		search:   search,
	}
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	out, err := h.search.List(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, out)
}

type insertProductRequest struct {
	ID             string          `json:"id" binding:"required"`
	OEMID          string          `json:"oem_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Images         []string        `json:"images"`
	Specifications json.RawMessage `json:"specifications"`
}

// Insert handles POST /products.
func (h *ProductHandler) Insert(c *gin.Context) {
	var req insertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	err := h.products.Insert(c.Request.Context(), req.ID, catalog.Fields{
		OEMID:          req.OEMID,
		Name:           req.Name,
		Description:    req.Description,
		Images:         req.Images,
		Specifications: specificationsString(req.Specifications),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"id": req.ID})
}

// updateProductRequest distinguishes absent fields (nil pointer: keep) from
// fields explicitly set to an empty value (clear).
type updateProductRequest struct {
	OEMID          *string          `json:"oem_id"`
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Images         *[]string        `json:"images"`
	Specifications *json.RawMessage `json:"specifications"`
	Deleted        *bool            `json:"deleted"`
}

// Update handles PUT /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	patch := catalog.Patch{
		OEMID:       req.OEMID,
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		Deleted:     req.Deleted,
	}
	if req.Specifications != nil {
		s := specificationsString(*req.Specifications)
		patch.Specifications = &s
	}
	if err := h.products.Update(c.Request.Context(), id, patch); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id})
}

// SoftDelete handles POST /products/:id/soft-delete.
func (h *ProductHandler) SoftDelete(c *gin.Context) {
	id := c.Param("id")
	if err := h.products.SoftDelete(c.Request.Context(), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "deleted": true})
}

// Delete handles DELETE /products/:id. With ?purge_images=true the
// dependent image records go too.
func (h *ProductHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	purge := strings.EqualFold(c.Query("purge_images"), "true")
	if err := h.products.HardDelete(c.Request.Context(), id, purge); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "removed": true, "purged_images": purge})
}

func specificationsString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	return s
}
