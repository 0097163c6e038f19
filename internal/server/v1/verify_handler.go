package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/server/middleware"
	"github.com/nulzo/prism-console/internal/server/validator"
	"github.com/nulzo/prism-console/internal/verify"
	"github.com/nulzo/prism-console/pkg/api"
)

type VerifyHandler struct {
	scheduler   *verify.Scheduler
	runs        *verify.Registry
	concurrency int
	audit       audit.Ingestor
}

func NewVerifyHandler(scheduler *verify.Scheduler, runs *verify.Registry, concurrency int, auditor audit.Ingestor) *VerifyHandler {
	return &VerifyHandler{scheduler: scheduler, runs: runs, concurrency: concurrency, audit: auditor}
}

// StartRun kicks off a verification batch and returns the run handle
// immediately; progress is polled separately.
func (h *VerifyHandler) StartRun(c *gin.Context) {
	var req api.StartVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}

	jobs := make([]verify.Job, 0, len(req.AssociationIDs)+len(req.Models))
	for _, id := range req.AssociationIDs {
		jobs = append(jobs, verify.AssociationJob(id))
	}
	for _, m := range req.Models {
		jobs = append(jobs, verify.ModelJob(m.ProviderID, m.ModelName))
	}

	limit := req.Concurrency
	if limit <= 0 {
		limit = h.concurrency
	}

	// Runs outlive the request; the scheduler gets a background context so
	// client disconnects do not tear down in-flight verification.
	run, err := h.scheduler.Start(context.Background(), jobs, limit)
	if err != nil {
		c.Error(domain.BadRequestError(err.Error()))
		return
	}

	h.runs.Add(run)
	h.audit.Record(middleware.Actor(c), "verify/"+run.ID, "verify.start", gin.H{
		"jobs":        len(jobs),
		"concurrency": limit,
	})

	c.JSON(http.StatusAccepted, gin.H{"run_id": run.ID, "progress": run.Progress()})
}

// GetRun returns the latest progress snapshot and per-job states.
func (h *VerifyHandler) GetRun(c *gin.Context) {
	run, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.Error(domain.NotFoundError("Run not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   run.ID,
		"progress": run.Progress(),
		"jobs":     run.Jobs(),
	})
}

// CancelRun stops admission of new jobs. In-flight calls drain to
// completion; the response reflects the state at cancel time.
func (h *VerifyHandler) CancelRun(c *gin.Context) {
	run, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.Error(domain.NotFoundError("Run not found"))
		return
	}

	run.Cancel()
	h.audit.Record(middleware.Actor(c), "verify/"+run.ID, "verify.cancel", nil)
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "progress": run.Progress()})
}

// Select returns job ids by outcome, restricted to the caller's view
// (?view=id1,id2). Ids outside the view are excluded even if tested.
func (h *VerifyHandler) Select(c *gin.Context) {
	run, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.Error(domain.NotFoundError("Run not found"))
		return
	}

	outcome := verify.State(c.Query("outcome"))
	switch outcome {
	case verify.StateSucceeded, verify.StateFailed, verify.StateCancelled, verify.StatePending, verify.StateRunning:
	default:
		c.Error(domain.BadRequestError("Unknown outcome: " + c.Query("outcome")))
		return
	}

	var view []string
	if raw := c.Query("view"); raw != "" {
		view = strings.Split(raw, ",")
	}

	ids := verify.SelectByOutcome(run, outcome, view)
	c.JSON(http.StatusOK, api.SelectionResponse{
		RunID:   run.ID,
		Outcome: string(outcome),
		IDs:     ids,
		Count:   len(ids),
	})
}

// ClearRun discards the run's job states and counters. Underlying records
// are untouched.
func (h *VerifyHandler) ClearRun(c *gin.Context) {
	if !h.runs.Clear(c.Param("id")) {
		c.Error(domain.NotFoundError("Run not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
