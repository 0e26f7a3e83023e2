package translation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dislu/ai-study-circle-sub003/internal/logger"
)

// englishCode is the normalization target for all downstream AI processing.
const englishCode = "en"

// contentAliases are scanned in order; the first present string value is the
// submission content.
var contentAliases = []string{"content", "text", "message", "question"}

// batchAliases are the list-valued counterparts.
var batchAliases = []string{"contents", "texts", "messages", "questions"}

// responseFields are the known output fields eligible for back-translation.
var responseFields = []string{"result", "summary", "analysis"}

// optInField marks a request that wants the response translated back into
// its original language.
const optInField = "respond_in_original_language"

// Record describes what the gateway did to one request's content. A failed
// record (Success=false) means the original content passed through
// unchanged; it never aborts the pipeline.
type Record struct {
	DetectedLanguage string  `json:"detected_language"`
	Confidence       float64 `json:"confidence"`
	Method           string  `json:"method"`
	Translated       bool    `json:"translated"`
	Success          bool    `json:"success"`
	FromCache        bool    `json:"from_cache"`
	ProcessingMS     int64   `json:"processing_ms"`

	OriginalText   string `json:"-"`
	NormalizedText string `json:"-"`
	WantOriginal   bool   `json:"-"`
}

// BatchRecord summarizes a batch normalization pass.
type BatchRecord struct {
	Alias        string `json:"alias"`
	Items        int    `json:"items"`
	Failed       int    `json:"failed"`
	Success      bool   `json:"success"`
	ProcessingMS int64  `json:"processing_ms"`
}

// Gateway normalizes submission content to English in front of the AI
// pipeline and optionally translates responses back. Downstream translation
// failures are downgraded in-band, never surfaced as pipeline errors.
type Gateway struct {
	svc      Service
	cache    Cache
	log      *logger.Logger
	provider string
	ttl      time.Duration

	// collapses concurrent misses for identical content into one service call
	flight singleflight.Group
}

func NewGateway(svc Service, cache Cache, baseLog *logger.Logger, provider string, ttl time.Duration) *Gateway {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if provider == "" {
		provider = "translation-api"
	}
	return &Gateway{
		svc:      svc,
		cache:    cache,
		log:      baseLog.With("component", "TranslationGateway"),
		provider: provider,
		ttl:      ttl,
	}
}

// TranslateContent normalizes the first recognized content alias to English
// and rewrites every alias that was present. A nil return means no content
// alias was found and the request passes through untouched. It never
// returns an error: service failures yield a degraded record with the
// original content preserved.
func (g *Gateway) TranslateContent(ctx context.Context, body map[string]any) *Record {
	start := time.Now()

	alias, content, ok := firstStringAlias(body, contentAliases)
	if !ok {
		return nil
	}
	wantOriginal, _ := body[optInField].(bool)

	key := CacheKey(content)
	if res, hit := g.cache.Get(ctx, key); hit {
		writeAliases(body, contentAliases, res.TranslatedText)
		return g.record(res, content, wantOriginal, true, start)
	}

	res, err := g.normalizeOnce(ctx, key, content)
	if err != nil {
		g.log.Warn("Translation degraded, passing content through unchanged",
			"alias", alias, "error", err)
		return &Record{
			DetectedLanguage: "unknown",
			Success:          false,
			OriginalText:     content,
			NormalizedText:   content,
			WantOriginal:     wantOriginal,
			ProcessingMS:     time.Since(start).Milliseconds(),
		}
	}

	writeAliases(body, contentAliases, res.TranslatedText)
	return g.record(res, content, wantOriginal, false, start)
}

// normalizeOnce runs detect+translate behind singleflight so concurrent
// misses on the same key hit the service once.
func (g *Gateway) normalizeOnce(ctx context.Context, key, content string) (*Result, error) {
	v, err, _ := g.flight.Do(key, func() (any, error) {
		res, err := g.normalize(ctx, content)
		if err != nil {
			return nil, err
		}
		g.cache.Set(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (g *Gateway) normalize(ctx context.Context, content string) (*Result, error) {
	det, err := g.svc.DetectLanguage(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("detect language: %w", err)
	}
	if det.Language == "" || det.Language == englishCode {
		return &Result{Detection: *det, TranslatedText: content, Translated: false}, nil
	}
	tr, err := g.svc.TranslateToEnglish(ctx, content, det.Language)
	if err != nil {
		return nil, fmt.Errorf("translate to english: %w", err)
	}
	return &Result{Detection: *det, TranslatedText: tr.TranslatedText, Translated: true}, nil
}

func (g *Gateway) record(res *Result, original string, wantOriginal, fromCache bool, start time.Time) *Record {
	return &Record{
		DetectedLanguage: res.Detection.Language,
		Confidence:       res.Detection.Confidence,
		Method:           res.Detection.Method,
		Translated:       res.Translated,
		Success:          true,
		FromCache:        fromCache,
		ProcessingMS:     time.Since(start).Milliseconds(),
		OriginalText:     original,
		NormalizedText:   res.TranslatedText,
		WantOriginal:     wantOriginal,
	}
}

// BatchTranslateContent normalizes the first recognized list alias. Items
// are processed independently by the service; a bad item keeps its original
// value. The single-item cache is bypassed.
func (g *Gateway) BatchTranslateContent(ctx context.Context, body map[string]any) *BatchRecord {
	start := time.Now()

	alias, raw, ok := firstListAlias(body, batchAliases)
	if !ok {
		return nil
	}

	items := make([]string, len(raw))
	stringItem := make([]bool, len(raw))
	for i, v := range raw {
		if s, isStr := v.(string); isStr {
			items[i] = s
			stringItem[i] = true
		}
	}

	rec := &BatchRecord{Alias: alias, Items: len(raw)}
	translated, err := g.svc.BatchTranslateToEnglish(ctx, items)
	if err != nil {
		g.log.Warn("Batch translation degraded, passing items through unchanged",
			"alias", alias, "items", len(raw), "error", err)
		rec.Failed = len(raw)
		rec.ProcessingMS = time.Since(start).Milliseconds()
		return rec
	}

	out := make([]any, len(raw))
	for i, v := range raw {
		if !stringItem[i] || translated[i].Error != "" {
			out[i] = v
			rec.Failed++
			continue
		}
		out[i] = translated[i].Text
	}
	body[alias] = out

	rec.Success = true
	rec.ProcessingMS = time.Since(start).Milliseconds()
	return rec
}

// TranslateResponse attaches translation metadata to a response body and,
// when the caller opted in and the submission was non-English, translates
// the known output fields back to the source language. Any failure fails
// open: the body comes back unmodified.
func (g *Gateway) TranslateResponse(ctx context.Context, body map[string]any, rec *Record) (map[string]any, bool) {
	if rec == nil || !rec.Success {
		return body, false
	}

	out := make(map[string]any, len(body)+2)
	for k, v := range body {
		out[k] = v
	}
	out["translation_meta"] = map[string]any{
		"original_language":      rec.DetectedLanguage,
		"original_language_name": NativeName(rec.DetectedLanguage),
		"translated":             rec.Translated,
		"detection_method":       rec.Method,
		"translation_service":    g.provider,
		"confidence":             rec.Confidence,
		"processing_ms":          rec.ProcessingMS,
	}

	if !rec.WantOriginal || rec.DetectedLanguage == englishCode || rec.DetectedLanguage == "" {
		return out, false
	}

	translatedAny := false
	for _, field := range responseFields {
		s, isStr := out[field].(string)
		if !isStr || s == "" {
			continue
		}
		back, err := g.svc.TranslateFromEnglish(ctx, s, rec.DetectedLanguage)
		if err != nil {
			g.log.Warn("Response back-translation failed, returning English response",
				"field", field, "target", rec.DetectedLanguage, "error", err)
			return body, false
		}
		out[field] = back
		translatedAny = true
	}
	if translatedAny {
		out["response_translated"] = true
	}
	return out, translatedAny
}

// DetectLanguage is a direct passthrough for the detection endpoint.
func (g *Gateway) DetectLanguage(ctx context.Context, text string) (*Detection, error) {
	return g.svc.DetectLanguage(ctx, text)
}

// TranslateText translates between two arbitrary languages, pivoting
// through English when neither side is English.
func (g *Gateway) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	if text == "" || source == target {
		return text, nil
	}
	switch {
	case target == englishCode:
		res, err := g.svc.TranslateToEnglish(ctx, text, source)
		if err != nil {
			return "", err
		}
		return res.TranslatedText, nil
	case source == englishCode:
		return g.svc.TranslateFromEnglish(ctx, text, target)
	default:
		pivot, err := g.svc.TranslateToEnglish(ctx, text, source)
		if err != nil {
			return "", fmt.Errorf("pivot to english: %w", err)
		}
		out, err := g.svc.TranslateFromEnglish(ctx, pivot.TranslatedText, target)
		if err != nil {
			return "", fmt.Errorf("pivot from english: %w", err)
		}
		return out, nil
	}
}

// SupportedLanguages prefers the live service catalog and falls back to the
// embedded one.
func (g *Gateway) SupportedLanguages(ctx context.Context) []Language {
	langs, err := g.svc.SupportedLanguages(ctx)
	if err != nil || len(langs) == 0 {
		if err != nil {
			g.log.Debug("Supported-languages lookup failed, serving embedded catalog", "error", err)
		}
		return Catalog()
	}
	return langs
}

// Health reports cache size, configured TTL and service configuration state.
func (g *Gateway) Health(ctx context.Context) map[string]any {
	cfg := g.svc.ValidateConfiguration(ctx)
	return map[string]any{
		"cache_size":        g.cache.Len(ctx),
		"cache_ttl_seconds": int(g.ttl.Seconds()),
		"service":           g.provider,
		"config_valid":      cfg.Valid,
		"config_details":    cfg.Details,
	}
}

func (g *Gateway) ClearCache(ctx context.Context) {
	g.cache.Clear(ctx)
}

func firstStringAlias(body map[string]any, aliases []string) (string, string, bool) {
	for _, a := range aliases {
		v, present := body[a]
		if !present {
			continue
		}
		if s, isStr := v.(string); isStr && s != "" {
			return a, s, true
		}
	}
	return "", "", false
}

func firstListAlias(body map[string]any, aliases []string) (string, []any, bool) {
	for _, a := range aliases {
		v, present := body[a]
		if !present {
			continue
		}
		if list, isList := v.([]any); isList && len(list) > 0 {
			return a, list, true
		}
	}
	return "", nil, false
}

// writeAliases rewrites every alias that was originally present so the
// request keeps a consistent shape downstream.
func writeAliases(body map[string]any, aliases []string, value string) {
	for _, a := range aliases {
		if _, present := body[a]; present {
			body[a] = value
		}
	}
}
