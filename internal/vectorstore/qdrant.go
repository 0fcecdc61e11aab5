package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errAlreadyExists = errors.New("collection already exists")

// Point is one vector entry: opaque id, embedding, and the payload used for
// filtering and citation rendering.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Hit is one search result. Score is a similarity score; higher is more
// relevant.
type Hit struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// QdrantStore is a minimal REST client to Qdrant. Collections are passed
// per call; every search is filtered server-side to a single chat_id.
type QdrantStore struct {
	url      string
	apiKey   string
	distance string
	client   *http.Client
}

type QdrantConfig struct {
	URL      string
	APIKey   string
	Distance string
	Timeout  time.Duration
}

func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	distance := cfg.Distance
	if distance == "" {
		distance = "Cosine"
	}
	return &QdrantStore{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		distance: distance,
		client:   &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection if it does not exist. Qdrant
// answers 409 for a PUT on an existing collection, so the collection is
// checked first and left alone when its vector size already matches; a
// different size surfaces as an error.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return errors.New("invalid vector size")
	}
	existing, found, err := s.collectionVectorSize(ctx, collection)
	if err != nil {
		return err
	}
	if found {
		if existing != 0 && existing != vectorSize {
			return fmt.Errorf("collection %s has vector size %d, want %d", collection, existing, vectorSize)
		}
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": s.distance,
		},
	}
	err = s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, collection), body)
	if errors.Is(err, errAlreadyExists) {
		// Lost a create race; the collection is there now.
		return nil
	}
	return err
}

func (s *QdrantStore) collectionVectorSize(ctx context.Context, collection string) (int, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, collection), nil)
	if err != nil {
		return 0, false, err
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, false, nil
	}
	if resp.StatusCode >= 300 {
		return 0, false, fmt.Errorf("qdrant GET collection %s failed: %s", collection, resp.Status)
	}
	var out struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, false, fmt.Errorf("qdrant decode collection %s: %v", collection, err)
	}
	return out.Result.Config.Params.Vectors.Size, true, nil
}

// Upsert writes points, overwriting any existing point with the same id.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, collection), body)
}

// Search returns the top-k most similar points whose payload chat_id equals
// the given value. The filter runs server-side: entries from other chats are
// never transferred, let alone returned.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, chatID string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "chat_id",
					"match": map[string]any{"value": chatID},
				},
			},
		},
	}
	var resp struct {
		Result []Hit `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, collection), req, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// DeleteByChat removes every point belonging to a chat. Used by bulk chat
// deletion only.
func (s *QdrantStore) DeleteByChat(ctx context.Context, collection string, chatID string) error {
	req := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "chat_id",
					"match": map[string]any{"value": chatID},
				},
			},
		},
	}
	return s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, collection), req, nil)
}

func (s *QdrantStore) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("qdrant PUT %s: %w", url, errAlreadyExists)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *QdrantStore) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
