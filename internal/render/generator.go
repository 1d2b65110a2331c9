package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/storage"
)

const defaultImageModel = "imagen-3.0-generate-002"

// HTTPGenerator calls a prediction endpoint that returns base64 encoded
// images and stores the first one.
type HTTPGenerator struct {
	endpoint   string
	apiKey     string
	model      string
	store      storage.ObjectStore
	httpClient *http.Client
	log        logrus.FieldLogger
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
	Model       string `json:"model,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// NewHTTPGenerator has no request timeout; renders can take minutes.
func NewHTTPGenerator(endpoint, apiKey string, store storage.ObjectStore, log logrus.FieldLogger) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      defaultImageModel,
		store:      store,
		httpClient: &http.Client{},
		log:        logger.Component(log, "HTTPGenerator"),
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	url, err := g.generate(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return url, nil
}

func (g *HTTPGenerator) generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	payload, err := json.Marshal(predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: 1, AspectRatio: "1:1", Model: g.model},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generator status=%d body=%s", resp.StatusCode, string(body))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Predictions) == 0 || out.Predictions[0].BytesBase64Encoded == "" {
		return "", fmt.Errorf("generator returned no image")
	}

	data, err := base64.StdEncoding.DecodeString(out.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return "", fmt.Errorf("decode image bytes: %w", err)
	}

	contentType := out.Predictions[0].MimeType
	if contentType == "" {
		contentType = storage.ContentTypePNG
	}
	ext := ".png"
	if contentType == storage.ContentTypeJPEG {
		ext = ".jpg"
	}

	url, err := g.store.Put(ctx, storage.NewObjectKey(storage.FolderImages, ext), data, contentType)
	if err != nil {
		return "", err
	}

	g.log.WithFields(logrus.Fields{"bytes": len(data), "duration": time.Since(start)}).Info("image generated")
	return url, nil
}

// StockGenerator returns a random stock image. Used in development so the
// pipeline can run without a render backend.
type StockGenerator struct {
	urls []string
}

var defaultStockImages = []string{
	"https://picsum.photos/seed/imaginarium-1/1024/1024",
	"https://picsum.photos/seed/imaginarium-2/1024/1024",
	"https://picsum.photos/seed/imaginarium-3/1024/1024",
	"https://picsum.photos/seed/imaginarium-4/1024/1024",
}

func NewStockGenerator(urls []string) *StockGenerator {
	if len(urls) == 0 {
		urls = defaultStockImages
	}
	return &StockGenerator{urls: urls}
}

func (g *StockGenerator) Generate(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Err: err}
	}
	return g.urls[rand.IntN(len(g.urls))], nil
}
