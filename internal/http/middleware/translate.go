package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dislu/ai-study-circle-sub003/internal/translation"
)

const (
	translationRecordKey = "translation_record"
	batchRecordKey       = "batch_translation_record"

	// requests larger than this skip translation rather than buffering
	maxTranslatableBody = 10 * 1024 * 1024
)

// GetTranslationRecord returns the record attached by Translate, or nil.
func GetTranslationRecord(c *gin.Context) *translation.Record {
	v, ok := c.Get(translationRecordKey)
	if !ok {
		return nil
	}
	rec, _ := v.(*translation.Record)
	return rec
}

// GetBatchRecord returns the record attached by BatchTranslate, or nil.
func GetBatchRecord(c *gin.Context) *translation.BatchRecord {
	v, ok := c.Get(batchRecordKey)
	if !ok {
		return nil
	}
	rec, _ := v.(*translation.BatchRecord)
	return rec
}

// Translate normalizes the request's content aliases to English before the
// handler runs. Requests without a JSON object body, without a recognized
// alias or hitting a failing translation backend proceed unchanged; this
// stage never aborts the chain.
func Translate(gw *translation.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, raw, ok := readJSONObject(c)
		if !ok {
			c.Next()
			return
		}

		rec := gw.TranslateContent(c.Request.Context(), body)
		if rec == nil {
			restoreBody(c, raw)
			c.Next()
			return
		}

		c.Set(translationRecordKey, rec)
		if rewritten, err := json.Marshal(body); err == nil {
			restoreBody(c, rewritten)
		} else {
			restoreBody(c, raw)
		}
		c.Next()
	}
}

// BatchTranslate is the list-valued variant of Translate.
func BatchTranslate(gw *translation.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, raw, ok := readJSONObject(c)
		if !ok {
			c.Next()
			return
		}

		rec := gw.BatchTranslateContent(c.Request.Context(), body)
		if rec == nil {
			restoreBody(c, raw)
			c.Next()
			return
		}

		c.Set(batchRecordKey, rec)
		if rewritten, err := json.Marshal(body); err == nil {
			restoreBody(c, rewritten)
		} else {
			restoreBody(c, raw)
		}
		c.Next()
	}
}

// WrapResponse buffers the handler's JSON output and rewrites it through
// the gateway: translation metadata is attached and, when the caller opted
// in, known output fields are translated back to the source language. The
// contract is body-in/body-out; nothing below the serialization layer is
// touched. On any rewrite problem the buffered body is sent as-is.
func WrapResponse(gw *translation.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		bw := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Next()
		c.Writer = bw.ResponseWriter

		body := bw.buf.Bytes()
		defer func() {
			if len(body) > 0 {
				_, _ = c.Writer.Write(body)
			}
		}()

		rec := GetTranslationRecord(c)
		if rec == nil || !rec.Success || c.Writer.Status() >= 400 {
			return
		}
		if !strings.Contains(c.Writer.Header().Get("Content-Type"), "application/json") {
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return
		}

		// handlers respond in a success/data envelope; the gateway operates
		// on the inner payload
		target := payload
		enveloped := false
		if succeeded, isBool := payload["success"].(bool); isBool {
			if !succeeded {
				return
			}
			if data, isMap := payload["data"].(map[string]any); isMap {
				target = data
				enveloped = true
			}
		}

		out, _ := gw.TranslateResponse(c.Request.Context(), target, rec)
		if enveloped {
			payload["data"] = out
		} else {
			payload = out
		}
		if rewritten, err := json.Marshal(payload); err == nil {
			body = rewritten
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// readJSONObject buffers and decodes a JSON object body. ok is false for
// non-JSON requests, oversized bodies and malformed JSON; the original body
// is restored in every case.
func readJSONObject(c *gin.Context) (map[string]any, []byte, bool) {
	if c.Request.Body == nil {
		return nil, nil, false
	}
	if !strings.Contains(c.ContentType(), "application/json") {
		return nil, nil, false
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTranslatableBody+1))
	if err != nil || len(raw) > maxTranslatableBody {
		restoreBody(c, raw)
		return nil, nil, false
	}
	restoreBody(c, raw)

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, false
	}
	return body, raw, true
}

func restoreBody(c *gin.Context, raw []byte) {
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	c.Request.ContentLength = int64(len(raw))
}
