// Package answers calls the chat-completion API on behalf of gated
// operations. It is only reached after the feature gate has allowed the
// request; a denied request must never get this far.
package answers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-3.5-turbo"
)

const answerSystemPrompt = "You are a direct and concise answer provider. Give only the specific answer without additional explanations or context. Keep responses brief and to the point."

const explanationSystemPrompt = "You are an explanation validator. Your role is to explain why the provided answer is correct by:\n1. Identifying the key principles or concepts that make it correct\n2. Providing specific evidence or logical reasoning\n3. Citing relevant rules, formulas, or authoritative sources when applicable\nKeep the explanation clear and focused on validating the answer's correctness."

// Config holds the completion API credentials and endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg Config
	hc  *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, hc: &http.Client{Timeout: timeout}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Answer returns a short direct answer for the selected text.
func (c *Client) Answer(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
		MaxTokens:   150,
	})
}

// Explain returns reasoning for why the given answer is correct.
func (c *Client) Explain(ctx context.Context, text, answer string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: explanationSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Question: %s\nAnswer: %s\n\nExplain why this answer is correct using evidence and reasoning.", text, answer)},
		},
		Temperature: 0.5,
		MaxTokens:   200,
	})
}

func (c *Client) complete(ctx context.Context, body chatRequest) (string, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("answers: completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("answers: decode completion: %w", err)
	}
	if out.Error != nil {
		return "", errors.New(out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("answers: empty completion response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
