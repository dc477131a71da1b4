package aitext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/breakeven/internal/observability/tracing"
)

const requestTimeout = 60 * time.Second

type Config struct {
	APIKey  string
	BaseURL string
}

// GenerativeClient talks to a generateContent style endpoint.
type GenerativeClient struct {
	cfg    Config
	client *http.Client
}

func NewGenerativeClient(cfg Config, client *http.Client) *GenerativeClient {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GenerativeClient{cfg: cfg, client: client}
}

type part struct {
	Text string `json:"text"`
}

type contentBlock struct {
	Parts []part `json:"parts"`
}

type generationConfigBody struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []contentBlock       `json:"contents"`
	GenerationConfig generationConfigBody `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content contentBlock `json:"content"`
	} `json:"candidates"`
}

// StatusError carries a non-2xx response status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai text provider returned status %d", e.Status)
}

func (c *GenerativeClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Contents: []contentBlock{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfigBody{
			Temperature:     cfg.Temperature,
			TopK:            cfg.TopK,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, url.PathEscape(cfg.Model), url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tracing.Do(ctx, c.client, "aitext", "generate_content", req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Status: resp.StatusCode}
	}

	var decoded generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode generate content: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
