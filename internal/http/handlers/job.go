package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dislu/ai-study-circle-sub003/internal/http/response"
	"github.com/dislu/ai-study-circle-sub003/internal/jobs"
	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

type JobHandler struct {
	registry *jobs.Registry
	log      *logger.Logger
}

func NewJobHandler(registry *jobs.Registry, log *logger.Logger) *JobHandler {
	return &JobHandler{
		registry: registry,
		log:      log.With("handler", "JobHandler"),
	}
}

// GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.registry.GetJob(c.Param("id"))
	if err != nil {
		respondJobError(c, err)
		return
	}
	response.RespondOK(c, job)
}

// GET /api/jobs?type=...&status=...
func (h *JobHandler) List(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		s := types.JobStatus(status)
		if !s.Valid() {
			response.RespondError(c, http.StatusBadRequest, "invalid_status", errors.New("unknown job status"))
			return
		}
		response.RespondOK(c, gin.H{"jobs": h.registry.GetJobsByStatus(s)})
		return
	}
	if jobType := c.Query("type"); jobType != "" {
		response.RespondOK(c, gin.H{"jobs": h.registry.GetJobsByType(jobType)})
		return
	}
	response.RespondOK(c, gin.H{"jobs": h.registry.ListJobs()})
}

// GET /api/jobs/stats
func (h *JobHandler) Stats(c *gin.Context) {
	response.RespondOK(c, h.registry.Stats())
}

type progressRequest struct {
	Progress *int            `json:"progress"`
	Status   types.JobStatus `json:"status"`
}

// PATCH /api/jobs/:id
// Progress callback from the generation worker.
func (h *JobHandler) Update(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	upd := jobs.Update{Progress: req.Progress}
	if req.Status != "" {
		if !req.Status.Valid() {
			response.RespondError(c, http.StatusBadRequest, "invalid_status", errors.New("unknown job status"))
			return
		}
		upd.Status = &req.Status
	}
	job, err := h.registry.UpdateJob(c.Param("id"), upd)
	if err != nil {
		respondJobError(c, err)
		return
	}
	response.RespondOK(c, job)
}

type resultRequest struct {
	Result any `json:"result"`
}

// POST /api/jobs/:id/result
func (h *JobHandler) Complete(c *gin.Context) {
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.registry.SetJobResult(c.Param("id"), req.Result)
	if err != nil {
		respondJobError(c, err)
		return
	}
	response.RespondOK(c, job)
}

type failRequest struct {
	Error string `json:"error"`
}

// POST /api/jobs/:id/fail
func (h *JobHandler) Fail(c *gin.Context) {
	var req failRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.registry.FailJob(c.Param("id"), req.Error)
	if err != nil {
		respondJobError(c, err)
		return
	}
	response.RespondOK(c, job)
}

func respondJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "job_not_found", err)
	case errors.Is(err, jobs.ErrTerminalState):
		response.RespondError(c, http.StatusConflict, "job_terminal", err)
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_update", err)
	}
}
