package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medworld/product-search/internal/pkg/ctxutil"
	errs "github.com/medworld/product-search/internal/pkg/errors"
	"github.com/medworld/product-search/internal/pkg/logger"
)

// Client is the raw Chroma REST API client. Collection (collection.go) is
// the typed handle the rest of the backend uses.
type Client interface {
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (*CollectionInfo, error)
	Get(ctx context.Context, collectionID string, req GetRequest) (*GetResponse, error)
	Query(ctx context.Context, collectionID string, req QueryRequest) (*QueryResponse, error)
	Upsert(ctx context.Context, collectionID string, req UpsertRequest) error
	Delete(ctx context.Context, collectionID string, ids []string) error
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log:  log.With("client", "ChromaClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// -------------------- Collections --------------------

type CollectionInfo struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

type createCollectionRequest struct {
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GetOrCreate bool           `json:"get_or_create"`
}

func (c *client) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (*CollectionInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("collection name required")
	}
	return doJSON[CollectionInfo](c, ctx, "POST", c.cfg.BaseURL+"/api/v1/collections", createCollectionRequest{
		Name:        name,
		Metadata:    metadata,
		GetOrCreate: true,
	})
}

// -------------------- Records --------------------

type GetRequest struct {
	IDs     []string `json:"ids,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
	Include []string `json:"include,omitempty"`
}

type GetResponse struct {
	IDs       []string         `json:"ids"`
	Documents []*string        `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

func (c *client) Get(ctx context.Context, collectionID string, req GetRequest) (*GetResponse, error) {
	if err := requireCollection(collectionID); err != nil {
		return nil, err
	}
	if len(req.Include) == 0 {
		req.Include = []string{"metadatas", "documents"}
	}
	return doJSON[GetResponse](c, ctx, "POST", c.collectionURL(collectionID, "get"), req)
}

type QueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include,omitempty"`
}

// QueryResponse carries one inner slice per query embedding, each ordered
// ascending by distance.
type QueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

func (c *client) Query(ctx context.Context, collectionID string, req QueryRequest) (*QueryResponse, error) {
	if err := requireCollection(collectionID); err != nil {
		return nil, err
	}
	if len(req.QueryEmbeddings) == 0 {
		return nil, fmt.Errorf("query embedding required")
	}
	if req.NResults <= 0 {
		req.NResults = 10
	}
	if len(req.Include) == 0 {
		req.Include = []string{"metadatas", "documents", "distances"}
	}
	return doJSON[QueryResponse](c, ctx, "POST", c.collectionURL(collectionID, "query"), req)
}

type UpsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents,omitempty"`
	Metadatas  []map[string]any `json:"metadatas,omitempty"`
}

func (c *client) Upsert(ctx context.Context, collectionID string, req UpsertRequest) error {
	if err := requireCollection(collectionID); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return nil
	}
	_, err := doJSON[json.RawMessage](c, ctx, "POST", c.collectionURL(collectionID, "upsert"), req)
	return err
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

func (c *client) Delete(ctx context.Context, collectionID string, ids []string) error {
	if err := requireCollection(collectionID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := doJSON[json.RawMessage](c, ctx, "POST", c.collectionURL(collectionID, "delete"), deleteRequest{IDs: ids})
	return err
}

// -------------------- helpers --------------------

func (c *client) collectionURL(collectionID, op string) string {
	return c.cfg.BaseURL + "/api/v1/collections/" + collectionID + "/" + op
}

func requireCollection(collectionID string) error {
	if strings.TrimSpace(collectionID) == "" {
		return fmt.Errorf("collection id required")
	}
	return nil
}

func doJSON[T any](c *client, ctx context.Context, method, url string, body any) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if cerr := ctxutil.Default(ctx).Err(); cerr != nil {
			// Caller cancellation must surface as itself, not as a
			// store failure.
			return nil, fmt.Errorf("chroma request: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d: %s", errs.ErrIndexUnavailable, resp.StatusCode, string(raw))
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %s", errs.ErrIndexUnavailable, err)
	}
	return &out, nil
}
