package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/utils"
)

// Detection is the outcome of language detection on a piece of text.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// EnglishResult is a translation into English.
type EnglishResult struct {
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
}

// BatchItem is one entry of a batch translation. A failed item carries its
// own error and never fails its siblings.
type BatchItem struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

type ConfigStatus struct {
	Valid   bool   `json:"valid"`
	Details string `json:"details,omitempty"`
}

// Language is one entry of the supported-language catalog.
type Language struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	NativeName string `json:"native_name" yaml:"native_name"`
}

// Service is the narrow boundary to the external translation/detection
// backend. Implementations must honor ctx deadlines; callers never hold
// locks across these calls.
type Service interface {
	DetectLanguage(ctx context.Context, text string) (*Detection, error)
	TranslateToEnglish(ctx context.Context, text string, sourceHint string) (*EnglishResult, error)
	TranslateFromEnglish(ctx context.Context, text string, targetLanguage string) (string, error)
	BatchTranslateToEnglish(ctx context.Context, items []string) ([]BatchItem, error)
	ValidateConfiguration(ctx context.Context) ConfigStatus
	SupportedLanguages(ctx context.Context) ([]Language, error)
	Stats(ctx context.Context) (map[string]any, error)
}

type httpService struct {
	httpClient *http.Client
	log        *logger.Logger
	baseURL    string
	apiKey     string
	provider   string
}

// NewHTTPService builds the env-configured HTTP client for the external
// translation backend. Missing configuration is not an error here: the
// gateway degrades per request and the health endpoint reports the invalid
// configuration instead.
func NewHTTPService(log *logger.Logger) Service {
	serviceLog := log.With("service", "TranslationService")
	return &httpService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        serviceLog,
		baseURL:    utils.GetEnv("TRANSLATION_API_URL", "", serviceLog),
		apiKey:     utils.GetEnv("TRANSLATION_API_KEY", "", serviceLog),
		provider:   utils.GetEnv("TRANSLATION_PROVIDER", "translation-api", serviceLog),
	}
}

func (s *httpService) DetectLanguage(ctx context.Context, text string) (*Detection, error) {
	var out Detection
	if err := s.post(ctx, "/v1/detect", map[string]any{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpService) TranslateToEnglish(ctx context.Context, text string, sourceHint string) (*EnglishResult, error) {
	req := map[string]any{"text": text, "target": "en"}
	if sourceHint != "" {
		req["source"] = sourceHint
	}
	var out EnglishResult
	if err := s.post(ctx, "/v1/translate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpService) TranslateFromEnglish(ctx context.Context, text string, targetLanguage string) (string, error) {
	req := map[string]any{"text": text, "source": "en", "target": targetLanguage}
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := s.post(ctx, "/v1/translate", req, &out); err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

func (s *httpService) BatchTranslateToEnglish(ctx context.Context, items []string) ([]BatchItem, error) {
	req := map[string]any{"items": items, "target": "en"}
	var out struct {
		Items []BatchItem `json:"items"`
	}
	if err := s.post(ctx, "/v1/translate/batch", req, &out); err != nil {
		return nil, err
	}
	if len(out.Items) != len(items) {
		return nil, fmt.Errorf("batch size mismatch: sent %d, got %d", len(items), len(out.Items))
	}
	return out.Items, nil
}

func (s *httpService) ValidateConfiguration(ctx context.Context) ConfigStatus {
	if s.baseURL == "" {
		return ConfigStatus{Valid: false, Details: "TRANSLATION_API_URL is not set"}
	}
	if s.apiKey == "" {
		return ConfigStatus{Valid: false, Details: "TRANSLATION_API_KEY is not set"}
	}
	return ConfigStatus{Valid: true}
}

func (s *httpService) SupportedLanguages(ctx context.Context) ([]Language, error) {
	var out struct {
		Languages []Language `json:"languages"`
	}
	if err := s.get(ctx, "/v1/languages", &out); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

func (s *httpService) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := s.get(ctx, "/v1/stats", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *httpService) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return s.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (s *httpService) get(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

func (s *httpService) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if s.baseURL == "" {
		return fmt.Errorf("translation service is not configured (TRANSLATION_API_URL)")
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("translation service request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("read translation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("translation service %s %s: status %d: %s", method, path, resp.StatusCode, truncateForLog(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode translation response: %w", err)
	}
	return nil
}

func truncateForLog(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
