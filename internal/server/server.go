package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/catalog"
	"github.com/nulzo/prism-console/internal/config"
	"github.com/nulzo/prism-console/internal/reconcile"
	"github.com/nulzo/prism-console/internal/server/validator"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/cache"
	"github.com/nulzo/prism-console/internal/template"
	"github.com/nulzo/prism-console/internal/verify"
	"go.uber.org/zap"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Repo      store.Repository
	Cache     cache.CacheService
	Templates *template.Service
	Engine    *reconcile.Engine
	Scheduler *verify.Scheduler
	Runs      *verify.Registry
	Syncer    *catalog.Syncer
	Audit     audit.Ingestor
}

type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validator.InitValidator()

	engine := gin.New()
	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	s := &Server{
		router: engine,
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
