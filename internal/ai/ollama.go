package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaProvider implements Provider against a local Ollama server's REST
// API. No breaker or rate limiting: the server is assumed co-located.
type OllamaProvider struct {
	client     *http.Client
	url        string
	model      string
	embedModel string
}

func NewOllamaProvider(url, model, embedModel string) *OllamaProvider {
	return &OllamaProvider{
		client:     &http.Client{Timeout: 120 * time.Second},
		url:        url,
		model:      model,
		embedModel: embedModel,
	}
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
	}
	var resp struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := p.postJSON(ctx, "/api/generate", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Response == "" {
		return "", fmt.Errorf("ollama returned empty response")
	}
	return resp.Response, nil
}

func (p *OllamaProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"model": p.embedModel,
		"input": texts,
	}
	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := p.postJSON(ctx, "/api/embed", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (p *OllamaProvider) Close() error { return nil }

func (p *OllamaProvider) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
