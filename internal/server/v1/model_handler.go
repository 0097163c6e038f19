package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/pkg/api"
)

type ModelHandler struct {
	repo store.Repository
}

func NewModelHandler(repo store.Repository) *ModelHandler {
	return &ModelHandler{repo: repo}
}

func (h *ModelHandler) ListModels(c *gin.Context) {
	models, err := h.repo.Models().List(c.Request.Context())
	if err != nil {
		c.Error(domain.InternalError("Failed to list models", err))
		return
	}

	c.JSON(http.StatusOK, api.NewList(models))
}
