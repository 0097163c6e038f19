package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/pkg/api"
)

type AuditHandler struct {
	repo store.Repository
}

func NewAuditHandler(repo store.Repository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

func (h *AuditHandler) ListEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events, err := h.repo.Audit().GetRecent(c.Request.Context(), limit)
	if err != nil {
		c.Error(domain.InternalError("Failed to list audit events", err))
		return
	}

	c.JSON(http.StatusOK, api.NewList(events))
}
