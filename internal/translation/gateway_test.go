package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dislu/ai-study-circle-sub003/internal/logger"
)

type fakeService struct {
	mu sync.Mutex

	language   string
	confidence float64

	failDetect      bool
	failTranslate   bool
	failFromEnglish bool
	failBatch       bool
	badBatchIndex   int

	detectCalls      int
	translateCalls   int
	fromEnglishCalls int
	batchCalls       int
}

func newFakeService(lang string) *fakeService {
	return &fakeService{language: lang, confidence: 0.9, badBatchIndex: -1}
}

func (f *fakeService) DetectLanguage(_ context.Context, text string) (*Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detectCalls++
	if f.failDetect {
		return nil, errors.New("detection backend unreachable")
	}
	return &Detection{Language: f.language, Confidence: f.confidence, Method: "statistical"}, nil
}

func (f *fakeService) TranslateToEnglish(_ context.Context, text, _ string) (*EnglishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translateCalls++
	if f.failTranslate {
		return nil, errors.New("translation backend unreachable")
	}
	return &EnglishResult{TranslatedText: "english:" + text, SourceLanguage: f.language}, nil
}

func (f *fakeService) TranslateFromEnglish(_ context.Context, text, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fromEnglishCalls++
	if f.failFromEnglish {
		return "", errors.New("translation backend unreachable")
	}
	return target + ":" + text, nil
}

func (f *fakeService) BatchTranslateToEnglish(_ context.Context, items []string) ([]BatchItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.failBatch {
		return nil, errors.New("batch backend unreachable")
	}
	out := make([]BatchItem, len(items))
	for i, s := range items {
		if i == f.badBatchIndex {
			out[i] = BatchItem{Error: "malformed item"}
			continue
		}
		out[i] = BatchItem{Text: "english:" + s}
	}
	return out, nil
}

func (f *fakeService) ValidateConfiguration(context.Context) ConfigStatus {
	return ConfigStatus{Valid: false, Details: "TRANSLATION_API_URL is not set"}
}

func (f *fakeService) SupportedLanguages(context.Context) ([]Language, error) {
	return nil, errors.New("unavailable")
}

func (f *fakeService) Stats(context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detectCalls + f.translateCalls
}

func newTestGateway(svc Service) *Gateway {
	return NewGateway(svc, NewMemoryCache(time.Hour), logger.NewNop(), "test-provider", time.Hour)
}

func TestTranslateContentRewritesEveryPresentAlias(t *testing.T) {
	svc := newFakeService("es")
	g := newTestGateway(svc)

	body := map[string]any{"content": "hola mundo", "question": "hola mundo", "other": "left alone"}
	rec := g.TranslateContent(context.Background(), body)

	require.NotNil(t, rec)
	assert.True(t, rec.Success)
	assert.True(t, rec.Translated)
	assert.Equal(t, "es", rec.DetectedLanguage)
	assert.Equal(t, "hola mundo", rec.OriginalText)
	assert.Equal(t, "english:hola mundo", body["content"])
	assert.Equal(t, "english:hola mundo", body["question"])
	assert.Equal(t, "left alone", body["other"])
}

func TestTranslateContentNoAliasPassesThrough(t *testing.T) {
	g := newTestGateway(newFakeService("es"))

	body := map[string]any{"unrelated": "value"}
	rec := g.TranslateContent(context.Background(), body)
	assert.Nil(t, rec)
	assert.Equal(t, "value", body["unrelated"])
}

func TestTranslateContentNonStringAliasPassesThrough(t *testing.T) {
	g := newTestGateway(newFakeService("es"))

	body := map[string]any{"content": 42}
	rec := g.TranslateContent(context.Background(), body)
	assert.Nil(t, rec)
	assert.Equal(t, 42, body["content"])
}

func TestTranslateContentServiceFailureDegrades(t *testing.T) {
	svc := newFakeService("es")
	svc.failDetect = true
	g := newTestGateway(svc)

	body := map[string]any{"content": "hola"}
	rec := g.TranslateContent(context.Background(), body)

	require.NotNil(t, rec)
	assert.False(t, rec.Success)
	assert.Equal(t, "hola", body["content"], "original content must pass through unchanged")
	assert.Equal(t, "hola", rec.NormalizedText)
}

func TestTranslateContentCachesWithinTTL(t *testing.T) {
	svc := newFakeService("es")
	g := newTestGateway(svc)
	ctx := context.Background()

	first := g.TranslateContent(ctx, map[string]any{"content": "hola"})
	require.NotNil(t, first)
	assert.False(t, first.FromCache)
	callsAfterFirst := svc.calls()

	second := g.TranslateContent(ctx, map[string]any{"content": "hola"})
	require.NotNil(t, second)
	assert.True(t, second.FromCache)
	assert.Equal(t, callsAfterFirst, svc.calls(), "second call must be served entirely from cache")
	assert.Equal(t, first.NormalizedText, second.NormalizedText)
}

func TestTranslateContentEnglishSkipsTranslation(t *testing.T) {
	svc := newFakeService("en")
	g := newTestGateway(svc)

	body := map[string]any{"content": "already english"}
	rec := g.TranslateContent(context.Background(), body)

	require.NotNil(t, rec)
	assert.True(t, rec.Success)
	assert.False(t, rec.Translated)
	assert.Equal(t, "already english", body["content"])
	assert.Equal(t, 0, svc.translateCalls)
}

func TestBatchTranslateContent(t *testing.T) {
	svc := newFakeService("es")
	svc.badBatchIndex = 2
	g := newTestGateway(svc)

	body := map[string]any{"texts": []any{"hola", 42, "bonjour"}}
	rec := g.BatchTranslateContent(context.Background(), body)

	require.NotNil(t, rec)
	assert.True(t, rec.Success)
	assert.Equal(t, "texts", rec.Alias)
	assert.Equal(t, 3, rec.Items)
	assert.Equal(t, 2, rec.Failed) // the non-string and the malformed item

	out := body["texts"].([]any)
	assert.Equal(t, "english:hola", out[0])
	assert.Equal(t, 42, out[1])
	assert.Equal(t, "bonjour", out[2], "failed item keeps its original value")
}

func TestBatchTranslateContentServiceFailureDegrades(t *testing.T) {
	svc := newFakeService("es")
	svc.failBatch = true
	g := newTestGateway(svc)

	body := map[string]any{"messages": []any{"hola", "adios"}}
	rec := g.BatchTranslateContent(context.Background(), body)

	require.NotNil(t, rec)
	assert.False(t, rec.Success)
	assert.Equal(t, []any{"hola", "adios"}, body["messages"])
}

func TestTranslateResponseAttachesMeta(t *testing.T) {
	g := newTestGateway(newFakeService("es"))

	rec := &Record{DetectedLanguage: "es", Confidence: 0.9, Method: "statistical",
		Translated: true, Success: true}
	body := map[string]any{"result": "the answer"}

	out, translated := g.TranslateResponse(context.Background(), body, rec)
	assert.False(t, translated, "no opt-in, so no back-translation")

	meta := out["translation_meta"].(map[string]any)
	assert.Equal(t, "es", meta["original_language"])
	assert.Equal(t, "Español", meta["original_language_name"])
	assert.Equal(t, "test-provider", meta["translation_service"])
	assert.Equal(t, "the answer", out["result"])
}

func TestTranslateResponseBackTranslatesOnOptIn(t *testing.T) {
	svc := newFakeService("es")
	g := newTestGateway(svc)

	rec := &Record{DetectedLanguage: "es", Translated: true, Success: true, WantOriginal: true}
	body := map[string]any{"result": "the answer", "summary": "short version", "unrelated": 7}

	out, translated := g.TranslateResponse(context.Background(), body, rec)
	assert.True(t, translated)
	assert.Equal(t, "es:the answer", out["result"])
	assert.Equal(t, "es:short version", out["summary"])
	assert.Equal(t, 7, out["unrelated"])
	assert.Equal(t, true, out["response_translated"])
}

func TestTranslateResponseFailsOpen(t *testing.T) {
	svc := newFakeService("es")
	svc.failFromEnglish = true
	g := newTestGateway(svc)

	rec := &Record{DetectedLanguage: "es", Translated: true, Success: true, WantOriginal: true}
	body := map[string]any{"result": "the answer"}

	out, translated := g.TranslateResponse(context.Background(), body, rec)
	assert.False(t, translated)
	assert.Equal(t, "the answer", out["result"], "failure must return the body unmodified")
	_, hasMeta := out["translation_meta"]
	assert.False(t, hasMeta)
}

func TestTranslateResponseSkipsDegradedRecord(t *testing.T) {
	g := newTestGateway(newFakeService("es"))

	body := map[string]any{"result": "x"}
	out, translated := g.TranslateResponse(context.Background(), body, &Record{Success: false})
	assert.False(t, translated)
	assert.Equal(t, body, out)
}

func TestTranslateTextPivotsThroughEnglish(t *testing.T) {
	svc := newFakeService("fr")
	g := newTestGateway(svc)

	out, err := g.TranslateText(context.Background(), "bonjour", "fr", "es")
	require.NoError(t, err)
	assert.Equal(t, "es:english:bonjour", out)
	assert.Equal(t, 1, svc.translateCalls)
	assert.Equal(t, 1, svc.fromEnglishCalls)
}

func TestTranslateTextSameLanguageIsIdentity(t *testing.T) {
	svc := newFakeService("fr")
	g := newTestGateway(svc)

	out, err := g.TranslateText(context.Background(), "bonjour", "fr", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
	assert.Equal(t, 0, svc.calls())
}

func TestHealthReportsCacheAndConfig(t *testing.T) {
	g := newTestGateway(newFakeService("es"))
	ctx := context.Background()

	g.TranslateContent(ctx, map[string]any{"content": "hola"})
	h := g.Health(ctx)

	assert.Equal(t, 1, h["cache_size"])
	assert.Equal(t, 3600, h["cache_ttl_seconds"])
	assert.Equal(t, false, h["config_valid"])
}

func TestSupportedLanguagesFallsBackToCatalog(t *testing.T) {
	g := newTestGateway(newFakeService("es"))

	langs := g.SupportedLanguages(context.Background())
	require.NotEmpty(t, langs)
	assert.Equal(t, "en", langs[0].Code)
}

func TestClearCache(t *testing.T) {
	g := newTestGateway(newFakeService("es"))
	ctx := context.Background()

	g.TranslateContent(ctx, map[string]any{"content": "hola"})
	require.Equal(t, 1, g.cache.Len(ctx))
	g.ClearCache(ctx)
	assert.Equal(t, 0, g.cache.Len(ctx))
}
