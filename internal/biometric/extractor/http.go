package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"veridoc/pkg/platform/sentinel"
)

// HTTPExtractor calls an embedding service over HTTP. The service contract:
// POST {"image": "<base64>"} and receive {"embedding": [..]} with 200, or
// 422 when no face is detected.
type HTTPExtractor struct {
	url          string
	vectorLength int
	client       *http.Client
}

func NewHTTPExtractor(url string, vectorLength int) *HTTPExtractor {
	return &HTTPExtractor{
		url:          url,
		vectorLength: vectorLength,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

type representRequest struct {
	Image string `json:"image"`
}

type representResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) == 0 {
		return nil, ErrExtractionFailed
	}

	body, err := json.Marshal(representRequest{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call embedding service: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrExtractionFailed
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: embedding service returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var parsed representResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Embedding) != e.vectorLength {
		return nil, fmt.Errorf("embedding service returned %d dimensions, want %d", len(parsed.Embedding), e.vectorLength)
	}
	return parsed.Embedding, nil
}
