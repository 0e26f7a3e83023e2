package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dislu/ai-study-circle-sub003/internal/extract"
	"github.com/dislu/ai-study-circle-sub003/internal/http/middleware"
	"github.com/dislu/ai-study-circle-sub003/internal/http/response"
	"github.com/dislu/ai-study-circle-sub003/internal/jobs"
	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

const defaultJobType = "content_generation"

type ContentHandler struct {
	extractor *extract.Extractor
	registry  *jobs.Registry
	log       *logger.Logger
}

func NewContentHandler(extractor *extract.Extractor, registry *jobs.Registry, log *logger.Logger) *ContentHandler {
	return &ContentHandler{
		extractor: extractor,
		registry:  registry,
		log:       log.With("handler", "ContentHandler"),
	}
}

// POST /api/content/upload
// Multipart upload: extract, clean, budget and hand off as a job.
func (h *ContentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("multipart field %q is required", "file"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, extract.MaxFileSize+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	text, meta, err := h.extractor.ProcessFile(data, fh.Filename)
	if err != nil {
		respondExtractionError(c, err)
		return
	}

	prepared, prepMeta := h.extractor.PreprocessForAI(text, extract.DefaultPreprocessOptions())
	job := h.createJob(c, prepared, meta, prepMeta)

	response.RespondOK(c, gin.H{
		"job":        job,
		"metadata":   meta,
		"preprocess": prepMeta,
	})
}

type generateRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// POST /api/content/generate
// Raw-text submission. The translation stage has already normalized the
// content aliases by the time this handler binds the body.
func (h *ContentHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	v := h.extractor.ValidateContent(req.Content, 0)
	if !v.Valid {
		response.RespondError(c, http.StatusBadRequest, "invalid_content", errors.New(v.Error))
		return
	}

	prepared, prepMeta := h.extractor.PreprocessForAI(extract.CleanText(req.Content), extract.DefaultPreprocessOptions())

	jobType := req.Type
	if jobType == "" {
		jobType = defaultJobType
	}
	payload := map[string]any{
		"content":    prepared,
		"word_count": v.WordCount,
	}
	if rec := middleware.GetTranslationRecord(c); rec != nil {
		payload["source_language"] = rec.DetectedLanguage
	}
	job := h.registry.CreateJob(jobType, payload)
	if updated, err := h.registry.SetJobStatus(job.ID, types.JobStatusProcessing, nil, ""); err == nil {
		job = updated
	}

	response.RespondOK(c, gin.H{
		"job":        job,
		"validation": v,
		"preprocess": prepMeta,
	})
}

type validateRequest struct {
	Text      string `json:"text"`
	MinLength int    `json:"min_length"`
}

// POST /api/content/validate
func (h *ContentHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.extractor.ValidateContent(req.Text, req.MinLength))
}

type batchValidateRequest struct {
	Texts []string `json:"texts"`
}

// POST /api/content/batch/validate
// Sits behind the batch translation stage; items arrive normalized.
func (h *ContentHandler) BatchValidate(c *gin.Context) {
	var req batchValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	results := make([]extract.Validation, len(req.Texts))
	for i, text := range req.Texts {
		results[i] = h.extractor.ValidateContent(text, 0)
	}
	payload := gin.H{"results": results}
	if rec := middleware.GetBatchRecord(c); rec != nil {
		payload["batch_translation"] = rec
	}
	response.RespondOK(c, payload)
}

func (h *ContentHandler) createJob(c *gin.Context, prepared string, meta *types.ContentMetadata, prepMeta extract.PreprocessMeta) *types.Job {
	payload := map[string]any{
		"content":   prepared,
		"file_type": meta.FileType,
		"truncated": prepMeta.Truncated,
	}
	if rec := middleware.GetTranslationRecord(c); rec != nil {
		payload["source_language"] = rec.DetectedLanguage
	}
	job := h.registry.CreateJob(defaultJobType, payload)
	if updated, err := h.registry.SetJobStatus(job.ID, types.JobStatusProcessing, nil, ""); err == nil {
		job = updated
	}
	return job
}

func respondExtractionError(c *gin.Context, err error) {
	var verr *extract.ValidationError
	if errors.As(err, &verr) {
		response.RespondError(c, http.StatusBadRequest, verr.Code, verr)
		return
	}
	response.RespondError(c, http.StatusUnprocessableEntity, "extraction_failed", err)
}
