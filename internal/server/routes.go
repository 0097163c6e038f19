package server

import (
	"github.com/nulzo/prism-console/internal/server/middleware"
	v1 "github.com/nulzo/prism-console/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler())

	// Health check (public)
	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	limiter := middleware.NewRateLimiter(
		s.config.RateLimit.RequestsPerSecond,
		s.config.RateLimit.Burst,
		s.logger,
	)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.deps.Repo, s.config.Server.APIKeys))
	api.Use(limiter.Middleware())
	api.Use(middleware.Tracing("prism-console"))
	{
		providerHandler := v1.NewProviderHandler(s.deps.Repo, s.deps.Syncer, s.deps.Cache, s.deps.Audit)
		api.GET("/providers", providerHandler.ListProviders)
		api.POST("/providers/:id/catalog/sync", providerHandler.SyncCatalog)
		api.POST("/providers/:id/catalog", providerHandler.AddCatalogEntry)
		api.DELETE("/providers/:id/catalog/:model", providerHandler.RemoveCatalogEntry)
		api.POST("/catalog/sync", providerHandler.SyncAllCatalogs)

		modelHandler := v1.NewModelHandler(s.deps.Repo)
		api.GET("/models", modelHandler.ListModels)

		templateHandler := v1.NewTemplateHandler(s.deps.Templates, s.deps.Audit)
		api.GET("/models/:id/template", templateHandler.GetTemplate)
		api.POST("/models/:id/aliases", templateHandler.AddAlias)
		api.DELETE("/models/:id/aliases/:alias", templateHandler.RemoveAlias)

		associationHandler := v1.NewAssociationHandler(s.deps.Repo, s.deps.Engine, s.deps.Audit)
		api.GET("/associations", associationHandler.ListAssociations)
		api.POST("/associations", associationHandler.CreateAssociation)
		api.DELETE("/associations/:id", associationHandler.DeleteAssociation)
		api.POST("/associations/batch-delete", associationHandler.BatchDelete)
		api.PATCH("/associations/:id/enabled", associationHandler.SetEnabled)

		reconcileHandler := v1.NewReconcileHandler(s.deps.Engine, s.deps.Audit)
		api.POST("/reconcile/preview", reconcileHandler.Preview)
		api.POST("/reconcile/apply", reconcileHandler.Apply)

		verifyHandler := v1.NewVerifyHandler(s.deps.Scheduler, s.deps.Runs, s.config.Verify.Concurrency, s.deps.Audit)
		api.POST("/verify/runs", verifyHandler.StartRun)
		api.GET("/verify/runs/:id", verifyHandler.GetRun)
		api.POST("/verify/runs/:id/cancel", verifyHandler.CancelRun)
		api.GET("/verify/runs/:id/select", verifyHandler.Select)
		api.DELETE("/verify/runs/:id", verifyHandler.ClearRun)

		auditHandler := v1.NewAuditHandler(s.deps.Repo)
		api.GET("/audit", auditHandler.ListEvents)
	}
}
