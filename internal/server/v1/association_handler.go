package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/reconcile"
	"github.com/nulzo/prism-console/internal/server/middleware"
	"github.com/nulzo/prism-console/internal/server/validator"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/pkg/api"
)

type AssociationHandler struct {
	repo   store.Repository
	engine *reconcile.Engine
	audit  audit.Ingestor
}

func NewAssociationHandler(repo store.Repository, engine *reconcile.Engine, auditor audit.Ingestor) *AssociationHandler {
	return &AssociationHandler{repo: repo, engine: engine, audit: auditor}
}

// ListAssociations returns associations, optionally scoped with ?model_id=.
func (h *AssociationHandler) ListAssociations(c *gin.Context) {
	associations, err := h.repo.Associations().List(c.Request.Context(), c.Query("model_id"))
	if err != nil {
		c.Error(domain.InternalError("Failed to list associations", err))
		return
	}
	c.JSON(http.StatusOK, api.NewList(associations))
}

// CreateAssociation inserts one association. With ?reconcile=true the
// reconciliation preview for additions runs synchronously afterwards, so the
// response carries the follow-up proposals the new binding unlocked.
func (h *AssociationHandler) CreateAssociation(c *gin.Context) {
	var req api.CreateAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	weight := req.Weight
	if weight <= 0 {
		weight = reconcile.DefaultWeight
	}

	now := time.Now()
	a := &model.Association{
		ID:                uuid.New().String(),
		ModelID:           req.ModelID,
		ProviderID:        req.ProviderID,
		ProviderModelName: req.ProviderModelName,
		SupportsStream:    req.SupportsStream,
		SupportsTools:     req.SupportsTools,
		SupportsVision:    req.SupportsVision,
		Weight:            weight,
		Priority:          req.Priority,
		Enabled:           req.Enabled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.repo.Associations().Create(c.Request.Context(), a); err != nil {
		c.Error(domain.ConflictError("Association already exists", domain.WithLog(err)))
		return
	}

	h.audit.Record(middleware.Actor(c), "association/"+a.ID, "association.create", a)

	if c.Query("reconcile") != "true" {
		c.JSON(http.StatusCreated, a)
		return
	}

	preview, err := h.engine.Preview(c.Request.Context())
	if err != nil {
		c.Error(domain.InternalError("Association created but reconcile preview failed", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"association": a, "preview": preview})
}

// DeleteAssociation removes one association. With ?reconcile=true a removal
// pass runs synchronously afterwards to clean other now-invalid bindings.
func (h *AssociationHandler) DeleteAssociation(c *gin.Context) {
	id := c.Param("id")

	removed, err := h.repo.Associations().Delete(c.Request.Context(), id)
	if err != nil {
		c.Error(domain.InternalError("Failed to delete association", err))
		return
	}
	if removed == 0 {
		c.Error(domain.NotFoundError("Association not found"))
		return
	}

	h.audit.Record(middleware.Actor(c), "association/"+id, "association.delete", nil)

	if c.Query("reconcile") != "true" {
		c.Status(http.StatusNoContent)
		return
	}

	snap, err := h.engine.Snapshot(c.Request.Context())
	if err != nil {
		c.Error(domain.InternalError("Association deleted but cleanup preview failed", err))
		return
	}
	removals := reconcile.PreviewRemovals(snap)
	result, err := h.engine.Apply(c.Request.Context(), &reconcile.Preview{Removals: removals})
	if err != nil {
		c.Error(domain.InternalError("Association deleted but cleanup apply failed", err))
		return
	}
	h.audit.Record(middleware.Actor(c), "associations", "reconcile.clean_invalid", result)
	c.JSON(http.StatusOK, gin.H{"deleted": id, "cleanup": result})
}

// BatchDelete removes many associations in one call.
func (h *AssociationHandler) BatchDelete(c *gin.Context) {
	var req api.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	removed, err := h.repo.Associations().BatchDelete(c.Request.Context(), req.IDs)
	if err != nil {
		c.Error(domain.InternalError("Failed to batch delete associations", err))
		return
	}

	h.audit.Record(middleware.Actor(c), "associations", "association.batch_delete", gin.H{
		"requested": len(req.IDs),
		"removed":   removed,
	})
	c.JSON(http.StatusOK, gin.H{"requested": len(req.IDs), "removed": removed})
}

// SetEnabled flips an association's enabled flag.
func (h *AssociationHandler) SetEnabled(c *gin.Context) {
	id := c.Param("id")

	var req api.SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	if err := h.repo.Associations().SetEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		c.Error(domain.InternalError("Failed to update association", err))
		return
	}

	h.audit.Record(middleware.Actor(c), "association/"+id, "association.set_enabled", req)
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}
