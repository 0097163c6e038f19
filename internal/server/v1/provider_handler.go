package v1

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/catalog"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/server/middleware"
	"github.com/nulzo/prism-console/internal/server/validator"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/cache"
	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/pkg/api"
)

const (
	providerListCacheKey = "console:providers"
	providerListCacheTTL = 30 * time.Second
)

type ProviderHandler struct {
	repo   store.Repository
	syncer *catalog.Syncer
	cache  cache.CacheService
	audit  audit.Ingestor
}

func NewProviderHandler(repo store.Repository, syncer *catalog.Syncer, cacheSvc cache.CacheService, auditor audit.Ingestor) *ProviderHandler {
	return &ProviderHandler{repo: repo, syncer: syncer, cache: cacheSvc, audit: auditor}
}

// ListProviders returns every provider with its merged catalog. The listing
// is cached briefly; any catalog mutation drops the cache entry.
func (h *ProviderHandler) ListProviders(c *gin.Context) {
	var cached []model.Provider
	if err := h.cache.Get(c.Request.Context(), providerListCacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, api.NewList(cached))
		return
	}

	providers, err := h.repo.Providers().List(c.Request.Context())
	if err != nil {
		c.Error(domain.InternalError("Failed to list providers", err))
		return
	}

	_ = h.cache.Set(c.Request.Context(), providerListCacheKey, providers, providerListCacheTTL)
	c.JSON(http.StatusOK, api.NewList(providers))
}

// SyncCatalog refreshes one provider's upstream catalog from the gateway.
func (h *ProviderHandler) SyncCatalog(c *gin.Context) {
	providerID := c.Param("id")

	result, err := h.syncer.SyncProvider(c.Request.Context(), providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.Error(domain.NotFoundError("Provider not found"))
			return
		}
		c.Error(domain.GatewayError("Catalog sync failed", err))
		return
	}

	_ = h.cache.Delete(c.Request.Context(), providerListCacheKey)
	h.audit.Record(middleware.Actor(c), "provider/"+providerID, "catalog.sync", result)
	c.JSON(http.StatusOK, result)
}

// SyncAllCatalogs refreshes every provider; per-provider failures are
// reported inline, never aborting the rest.
func (h *ProviderHandler) SyncAllCatalogs(c *gin.Context) {
	results, err := h.syncer.SyncAll(c.Request.Context())
	if err != nil {
		c.Error(domain.InternalError("Catalog sync failed", err))
		return
	}

	_ = h.cache.Delete(c.Request.Context(), providerListCacheKey)
	h.audit.Record(middleware.Actor(c), "catalog", "catalog.sync_all", results)
	c.JSON(http.StatusOK, api.NewList(results))
}

// AddCatalogEntry stores a custom model identifier for a provider.
func (h *ProviderHandler) AddCatalogEntry(c *gin.Context) {
	providerID := c.Param("id")

	var req api.AddCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	if err := h.repo.Providers().AddCustomCatalogEntry(c.Request.Context(), providerID, req.ModelName); err != nil {
		c.Error(domain.ConflictError("Catalog entry already exists", domain.WithLog(err)))
		return
	}

	_ = h.cache.Delete(c.Request.Context(), providerListCacheKey)
	h.audit.Record(middleware.Actor(c), "provider/"+providerID, "catalog.add_custom", req)
	c.JSON(http.StatusCreated, gin.H{"provider_id": providerID, "model_name": req.ModelName})
}

// RemoveCatalogEntry deletes a custom model identifier.
func (h *ProviderHandler) RemoveCatalogEntry(c *gin.Context) {
	providerID := c.Param("id")
	modelName := c.Param("model")

	if err := h.repo.Providers().RemoveCustomCatalogEntry(c.Request.Context(), providerID, modelName); err != nil {
		c.Error(domain.InternalError("Failed to remove catalog entry", err))
		return
	}

	_ = h.cache.Delete(c.Request.Context(), providerListCacheKey)
	h.audit.Record(middleware.Actor(c), "provider/"+providerID, "catalog.remove_custom", gin.H{"model_name": modelName})
	c.Status(http.StatusNoContent)
}
