package embedder

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

	"github.com/medworld/product-search/internal/pkg/ctxutil"
	errs "github.com/medworld/product-search/internal/pkg/errors"
	"github.com/medworld/product-search/internal/pkg/httpx"
	"github.com/medworld/product-search/internal/pkg/logger"
)

// Client talks to the embedding inference service. Text inputs go through
// the sentence-transformer model backing the text collection; image inputs
// go through the CLIP model backing the image collection, so image-query
// vectors land in the same space as the stored image embeddings.
type Client interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing embedder base URL")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &client{
		log:        log.With("client", "EmbedderClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type embedTextRequest struct {
	Inputs []string `json:"inputs"`
}

type embedTextResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(texts))
	for i := range texts {
		s := strings.TrimSpace(texts[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embedTextResponse
	if err := c.do(ctx, "/embed/text", embedTextRequest{Inputs: clean}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(clean) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			errs.ErrEmbeddingUnavailable, len(resp.Embeddings), len(clean))
	}
	return resp.Embeddings, nil
}

type embedImageRequest struct {
	ImageB64 string `json:"image_b64"`
}

type embedImageResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *client) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", errs.ErrEmbeddingUnavailable)
	}
	var resp embedImageResponse
	req := embedImageRequest{ImageB64: base64.StdEncoding.EncodeToString(image)}
	if err := c.do(ctx, "/embed/image", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", errs.ErrEmbeddingUnavailable)
	}
	return resp.Embedding, nil
}

func (c *client) do(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctxutil.Default(ctx).Done():
				return ctx.Err()
			case <-time.After(httpx.JitterSleep(time.Duration(attempt) * 500 * time.Millisecond)):
			}
		}

		req, err := http.NewRequestWithContext(ctxutil.Default(ctx), "POST", c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if cerr := ctxutil.Default(ctx).Err(); cerr != nil {
				return fmt.Errorf("embed request: %w", err)
			}
			lastErr = fmt.Errorf("%w: %s", errs.ErrEmbeddingUnavailable, err)
			continue
		}

		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("%w: decode: %s", errs.ErrEmbeddingUnavailable, err)
			}
			return nil
		}

		lastErr = fmt.Errorf("%w: http %d: %s", errs.ErrEmbeddingUnavailable, resp.StatusCode, string(raw))
		if !httpx.IsRetryableHTTPStatus(resp.StatusCode) {
			return lastErr
		}
		c.log.Warn("embedder returned retryable status",
			"path", path,
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
	}
	return lastErr
}
