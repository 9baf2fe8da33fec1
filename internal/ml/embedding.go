package ml

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Provider turns text into a fixed-size unit-normed vector. The model
// itself runs out of process; implementations only move bytes.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// HTTPEmbedder calls an embedding inference server and caches results in
// Redis keyed by a hash of the input text. The model is deterministic,
// so cached vectors never go stale; the TTL only bounds memory.
type HTTPEmbedder struct {
	url        string
	dimensions int
	client     *http.Client
	redis      *redis.Client
	cacheTTL   time.Duration
	logger     *logrus.Logger
}

func NewHTTPEmbedder(
	url string,
	dimensions int,
	timeout time.Duration,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	logger *logrus.Logger,
) *HTTPEmbedder {
	return &HTTPEmbedder{
		url:        url,
		dimensions: dimensions,
		client:     &http.Client{Timeout: timeout},
		redis:      redisClient,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := fmt.Sprintf("embed:text:%x", sha256.Sum256([]byte(text)))

	if cached, err := e.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var vector []float32
		if err := json.Unmarshal(cached, &vector); err == nil && len(vector) == e.dimensions {
			return vector, nil
		}
	} else if err != redis.Nil {
		e.logger.WithError(err).Debug("Embedding cache read failed")
	}

	body, err := json.Marshal(embedRequest{Inputs: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != e.dimensions {
		return nil, fmt.Errorf("embedding server returned unexpected shape")
	}

	vector := Normalize(vectors[0])

	if data, err := json.Marshal(vector); err == nil {
		if err := e.redis.Set(ctx, cacheKey, data, e.cacheTTL).Err(); err != nil {
			e.logger.WithError(err).Debug("Embedding cache write failed")
		}
	}

	return vector, nil
}

// Normalize scales the vector to unit L2 norm. Cosine similarity in the
// index assumes unit vectors; a zero vector is returned unchanged.
func Normalize(vector []float32) []float32 {
	wide := make([]float64, len(vector))
	for i, v := range vector {
		wide[i] = float64(v)
	}

	norm := floats.Norm(wide, 2)
	if norm == 0 {
		return vector
	}
	floats.Scale(1/norm, wide)

	out := make([]float32, len(vector))
	for i, v := range wide {
		out[i] = float32(v)
	}
	return out
}
