package v1

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/server/middleware"
	"github.com/nulzo/prism-console/internal/server/validator"
	"github.com/nulzo/prism-console/internal/template"
	"github.com/nulzo/prism-console/pkg/api"
)

type TemplateHandler struct {
	templates *template.Service
	audit     audit.Ingestor
}

func NewTemplateHandler(templates *template.Service, auditor audit.Ingestor) *TemplateHandler {
	return &TemplateHandler{templates: templates, audit: auditor}
}

// GetTemplate returns the model's current alias set with provenance.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	modelID := c.Param("id")

	t, err := h.templates.Get(c.Request.Context(), modelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.Error(domain.NotFoundError("Model not found"))
			return
		}
		c.Error(domain.InternalError("Failed to build template", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"model_id": modelID, "aliases": t.Items()})
}

// AddAlias stores a manual alias for a model.
func (h *TemplateHandler) AddAlias(c *gin.Context) {
	modelID := c.Param("id")

	var req api.AddAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	err := h.templates.AddManualAlias(c.Request.Context(), modelID, req.Alias)
	switch {
	case errors.Is(err, domain.ErrDuplicateAlias):
		c.Error(domain.ConflictError("Alias already exists under another provenance"))
		return
	case errors.Is(err, sql.ErrNoRows):
		c.Error(domain.NotFoundError("Model not found"))
		return
	case err != nil:
		c.Error(domain.InternalError("Failed to add alias", err))
		return
	}

	h.audit.Record(middleware.Actor(c), "model/"+modelID, "alias.add", req)
	c.JSON(http.StatusCreated, gin.H{"model_id": modelID, "alias": req.Alias})
}

// RemoveAlias deletes a manual alias. Canonical and derived aliases are not
// removable.
func (h *TemplateHandler) RemoveAlias(c *gin.Context) {
	modelID := c.Param("id")
	alias := c.Param("alias")

	err := h.templates.RemoveManualAlias(c.Request.Context(), modelID, alias)
	switch {
	case errors.Is(err, domain.ErrNotManual):
		c.Error(domain.BadRequestError("Only manually added aliases can be removed"))
		return
	case errors.Is(err, domain.ErrAliasNotFound):
		c.Error(domain.NotFoundError("Alias not found"))
		return
	case errors.Is(err, sql.ErrNoRows):
		c.Error(domain.NotFoundError("Model not found"))
		return
	case err != nil:
		c.Error(domain.InternalError("Failed to remove alias", err))
		return
	}

	h.audit.Record(middleware.Actor(c), "model/"+modelID, "alias.remove", gin.H{"alias": alias})
	c.Status(http.StatusNoContent)
}
