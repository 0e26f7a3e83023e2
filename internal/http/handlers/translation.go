package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dislu/ai-study-circle-sub003/internal/http/response"
	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/translation"
)

type TranslationHandler struct {
	gateway *translation.Gateway
	log     *logger.Logger
}

func NewTranslationHandler(gateway *translation.Gateway, log *logger.Logger) *TranslationHandler {
	return &TranslationHandler{
		gateway: gateway,
		log:     log.With("handler", "TranslationHandler"),
	}
}

type detectRequest struct {
	Text string `json:"text"`
}

// POST /api/translation/detect
func (h *TranslationHandler) Detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Text == "" {
		response.RespondError(c, http.StatusBadRequest, "empty_text", errors.New("text is required"))
		return
	}
	det, err := h.gateway.DetectLanguage(c.Request.Context(), req.Text)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "detection_failed", err)
		return
	}
	response.RespondOK(c, det)
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// POST /api/translation/translate
func (h *TranslationHandler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Text == "" || req.Target == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("text and target are required"))
		return
	}
	out, err := h.gateway.TranslateText(c.Request.Context(), req.Text, req.Source, req.Target)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "translation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"text":            out,
		"target_language": req.Target,
	})
}

// GET /api/translation/languages
func (h *TranslationHandler) Languages(c *gin.Context) {
	response.RespondOK(c, gin.H{"languages": h.gateway.SupportedLanguages(c.Request.Context())})
}

// GET /api/translation/health
func (h *TranslationHandler) Health(c *gin.Context) {
	response.RespondOK(c, h.gateway.Health(c.Request.Context()))
}

// POST /api/translation/cache/clear
func (h *TranslationHandler) ClearCache(c *gin.Context) {
	h.gateway.ClearCache(c.Request.Context())
	response.RespondOK(c, gin.H{"cleared": true})
}
