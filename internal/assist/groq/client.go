package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vickotoAguilera/BoletasScaner/internal/assist"
)

// Chat implements assist.Assistant against the Groq chat-completions API.
// The fast model is tried first; any failure falls through to the balanced
// model before the call as a whole fails.
func (c *Client) Chat(ctx context.Context, messages []assist.Message) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("assist.chat.start",
		"req_id", rid,
		"fast_model", c.cfg.FastModel,
		"turns", len(messages),
	)

	reply, err := c.chatWithModel(ctx, c.cfg.FastModel, messages)
	if err == nil {
		c.logger.Info("assist.chat.ok",
			"req_id", rid, "model", c.cfg.FastModel,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return reply, nil
	}

	c.logger.Warn("assist.chat.fast_failed",
		"req_id", rid, "model", c.cfg.FastModel, "error", err)

	reply, err = c.chatWithModel(ctx, c.cfg.BalancedModel, messages)
	if err != nil {
		c.logger.Error("assist.chat.failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("both chat models failed: %w", err)
	}

	c.logger.Info("assist.chat.ok",
		"req_id", rid, "model", c.cfg.BalancedModel,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

func (c *Client) chatWithModel(ctx context.Context, model string, messages []assist.Message) (string, error) {
	msgs := make([]assist.Message, 0, len(messages)+1)
	msgs = append(msgs, assist.Message{Role: "system", Content: assist.SystemPrompt})
	msgs = append(msgs, messages...)

	body := map[string]any{
		"model":       model,
		"messages":    msgs,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var cr struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode groq response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no reply in groq response")
	}
	return cr.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
