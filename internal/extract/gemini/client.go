package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/extract"
)

// Extract implements extract.Extractor against the Generative Language API.
// The primary model is tried first; any failure (transport, parse, schema)
// falls through to the fallback model before the call as a whole fails.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) (*extract.Payload, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("extract.start",
		"req_id", rid,
		"primary_model", c.cfg.PrimaryModel,
		"fallback_model", c.cfg.FallbackModel,
		"image_bytes", len(image),
		"mime_type", mimeType,
	)

	payload, raw, err := c.extractWithModel(ctx, rid, c.cfg.PrimaryModel, image, mimeType)
	if err == nil {
		c.logger.Info("extract.ok",
			"req_id", rid, "model", c.cfg.PrimaryModel,
			"merchant", payload.Tienda, "fecha", payload.Fecha,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return payload, raw, nil
	}

	c.logger.Warn("extract.primary_failed",
		"req_id", rid, "model", c.cfg.PrimaryModel, "error", err)

	payload, raw, err = c.extractWithModel(ctx, rid, c.cfg.FallbackModel, image, mimeType)
	if err != nil {
		c.logger.Error("extract.failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("both extraction models failed: %w", err)
	}

	c.logger.Info("extract.ok",
		"req_id", rid, "model", c.cfg.FallbackModel,
		"merchant", payload.Tienda, "fecha", payload.Fecha,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return payload, raw, nil
}

func (c *Client) extractWithModel(ctx context.Context, rid, model string, image []byte, mimeType string) (*extract.Payload, []byte, error) {
	prompt := extract.BuildPrompt(constants.Categories())
	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": prompt},
				{"inline_data": map[string]any{
					"mime_type": constants.NormalizeMIME(mimeType),
					"data":      base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), model)
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, nil, err
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, raw, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return nil, raw, fmt.Errorf("no candidates in gemini response")
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	doc, err := extractJSON(text.String())
	if err != nil {
		return nil, raw, err
	}

	// Sanitize first, then validate against the wire schema.
	cleaned, touched, err := extract.SanitizePayload(doc)
	if err != nil {
		return nil, doc, fmt.Errorf("sanitize payload: %w", err)
	}
	if len(touched) > 0 {
		c.logger.Warn("extract.sanitize_applied", "req_id", rid, "model", model, "fields", touched)
	}
	schema := extract.BuildBoletaJSONSchema(constants.Categories())
	if err := extract.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		return nil, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	var out extract.Payload
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return nil, cleaned, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &out, cleaned, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

// extractJSON pulls the first top-level JSON object out of the model's text,
// tolerating markdown fences and commentary around it.
func extractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	return []byte(text[start : end+1]), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
