package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/reconcile"
	"github.com/nulzo/prism-console/internal/server/middleware"
	"github.com/nulzo/prism-console/internal/server/validator"
)

type ReconcileHandler struct {
	engine *reconcile.Engine
	audit  audit.Ingestor
}

func NewReconcileHandler(engine *reconcile.Engine, auditor audit.Ingestor) *ReconcileHandler {
	return &ReconcileHandler{engine: engine, audit: auditor}
}

// Preview computes the full blast radius — proposed additions and removals —
// without mutating anything.
func (h *ReconcileHandler) Preview(c *gin.Context) {
	preview, err := h.engine.Preview(c.Request.Context())
	if err != nil {
		c.Error(domain.InternalError("Failed to compute reconcile preview", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preview":   preview,
		"add_count": len(preview.Additions),
		"rm_count":  len(preview.Removals),
	})
}

// Apply executes a previously computed preview. The preview travels back
// from the client untouched so what was shown is exactly what runs; stale
// items are skipped and counted, never fatal.
func (h *ReconcileHandler) Apply(c *gin.Context) {
	var preview reconcile.Preview
	if err := c.ShouldBindJSON(&preview); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	result, err := h.engine.Apply(c.Request.Context(), &preview)
	if err != nil {
		c.Error(domain.InternalError("Failed to apply reconcile preview", err))
		return
	}

	h.audit.Record(middleware.Actor(c), "associations", "reconcile.apply", result)
	c.JSON(http.StatusOK, result)
}
