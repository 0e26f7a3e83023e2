package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dislu/ai-study-circle-sub003/internal/http/response"
	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/translation"
)

type stubService struct {
	fail bool
}

func (s *stubService) DetectLanguage(ctx context.Context, text string) (*translation.Detection, error) {
	if s.fail {
		return nil, fmt.Errorf("detector down")
	}
	if bytes.Contains([]byte(text), []byte("hola")) {
		return &translation.Detection{Language: "es", Confidence: 0.97, Method: "api"}, nil
	}
	return &translation.Detection{Language: "en", Confidence: 0.99, Method: "api"}, nil
}

func (s *stubService) TranslateToEnglish(ctx context.Context, text, sourceHint string) (*translation.EnglishResult, error) {
	if s.fail {
		return nil, fmt.Errorf("translator down")
	}
	return &translation.EnglishResult{TranslatedText: "english:" + text, SourceLanguage: "es"}, nil
}

func (s *stubService) TranslateFromEnglish(ctx context.Context, text, targetLanguage string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("translator down")
	}
	return targetLanguage + ":" + text, nil
}

func (s *stubService) BatchTranslateToEnglish(ctx context.Context, items []string) ([]translation.BatchItem, error) {
	if s.fail {
		return nil, fmt.Errorf("translator down")
	}
	out := make([]translation.BatchItem, len(items))
	for i, item := range items {
		out[i] = translation.BatchItem{Text: "english:" + item}
	}
	return out, nil
}

func (s *stubService) ValidateConfiguration(ctx context.Context) translation.ConfigStatus {
	return translation.ConfigStatus{Valid: !s.fail}
}

func (s *stubService) SupportedLanguages(ctx context.Context) ([]translation.Language, error) {
	return nil, fmt.Errorf("unsupported")
}

func (s *stubService) Stats(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func newTestGateway(svc translation.Service) *translation.Gateway {
	cache := translation.NewMemoryCache(time.Hour)
	return translation.NewGateway(svc, cache, logger.NewNop(), "test", time.Hour)
}

func postJSON(r *gin.Engine, path string, body map[string]any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTranslateRewritesContentAlias(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{})

	var seen map[string]any
	var rec *translation.Record
	r := gin.New()
	r.POST("/t", Translate(gw), func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&seen))
		rec = GetTranslationRecord(c)
		c.Status(http.StatusNoContent)
	})

	w := postJSON(r, "/t", map[string]any{"content": "hola mundo"})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "english:hola mundo", seen["content"])
	require.NotNil(t, rec)
	assert.Equal(t, "es", rec.DetectedLanguage)
	assert.True(t, rec.Translated)
	assert.True(t, rec.Success)
}

func TestTranslateSkipsNonJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{})

	var recorded *translation.Record
	var body string
	r := gin.New()
	r.POST("/t", Translate(gw), func(c *gin.Context) {
		raw, _ := c.GetRawData()
		body = string(raw)
		recorded = GetTranslationRecord(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/t", bytes.NewReader([]byte("hola mundo")))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hola mundo", body)
	assert.Nil(t, recorded)
}

func TestTranslateNeverAbortsOnServiceFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{fail: true})

	var seen map[string]any
	var rec *translation.Record
	r := gin.New()
	r.POST("/t", Translate(gw), func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&seen))
		rec = GetTranslationRecord(c)
		c.Status(http.StatusOK)
	})

	w := postJSON(r, "/t", map[string]any{"content": "hola mundo"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hola mundo", seen["content"])
	require.NotNil(t, rec)
	assert.False(t, rec.Success)
	assert.Equal(t, "unknown", rec.DetectedLanguage)
}

func TestBatchTranslateRewritesItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{})

	var seen map[string]any
	var rec *translation.BatchRecord
	r := gin.New()
	r.POST("/b", BatchTranslate(gw), func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&seen))
		rec = GetBatchRecord(c)
		c.Status(http.StatusOK)
	})

	w := postJSON(r, "/b", map[string]any{"texts": []any{"hola uno", "hola dos"}})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec)
	assert.Equal(t, "texts", rec.Alias)
	items, ok := seen["texts"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "english:hola uno", items[0])
	assert.Equal(t, "english:hola dos", items[1])
}

func TestWrapResponseAttachesMetaAndBackTranslates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{})

	r := gin.New()
	r.POST("/g", Translate(gw), WrapResponse(gw), func(c *gin.Context) {
		response.RespondOK(c, gin.H{"result": "generated text"})
	})

	w := postJSON(r, "/g", map[string]any{
		"content":                      "hola mundo",
		"respond_in_original_language": true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)

	meta, ok := envelope.Data["translation_meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "es", meta["original_language"])
	assert.Equal(t, true, meta["translated"])
	assert.Equal(t, "es:generated text", envelope.Data["result"])
	assert.Equal(t, true, envelope.Data["response_translated"])
}

func TestWrapResponsePassthroughWithoutRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{})

	r := gin.New()
	r.GET("/g", WrapResponse(gw), func(c *gin.Context) {
		response.RespondOK(c, gin.H{"result": "plain"})
	})

	req := httptest.NewRequest(http.MethodGet, "/g", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "plain", envelope.Data["result"])
	_, hasMeta := envelope.Data["translation_meta"]
	assert.False(t, hasMeta)
}

func TestWrapResponseMetaOnlyWithoutOptIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := newTestGateway(&stubService{})

	r := gin.New()
	r.POST("/g", Translate(gw), WrapResponse(gw), func(c *gin.Context) {
		response.RespondOK(c, gin.H{"result": "generated text"})
	})

	w := postJSON(r, "/g", map[string]any{"content": "hola mundo"})

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	_, hasMeta := envelope.Data["translation_meta"]
	assert.True(t, hasMeta)
	assert.Equal(t, "generated text", envelope.Data["result"])
}
