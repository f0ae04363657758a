// Package qdrant implements the dual index over a qdrant collection:
// one named dense vector and one named sparse vector per point, so a
// single chunk serves both similarity and lexical search.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

const (
	denseVectorName   = "dense"
	lexicalVectorName = "lexical"
)

// chunkNamespace seeds the deterministic point IDs. Qdrant only
// accepts UUIDs or integers as point IDs, so the stable chunk key is
// hashed into a UUID and kept verbatim in the payload.
var chunkNamespace = uuid.MustParse("9a2f6a1e-4c2b-4f6e-9d1a-8b5c3e7f0a42")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// PointID derives the qdrant point UUID for a chunk key.
func PointID(chunkKey string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(chunkKey)).String()
}

func (c *Client) UpsertChunks(
	ctx context.Context,
	doc *domain.Document,
	chunks []string,
	metadata []map[string]any,
	dense [][]float32,
	sparse []domain.SparseVector,
) error {
	if len(chunks) == 0 || len(dense) == 0 {
		return nil
	}
	if len(chunks) != len(dense) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(dense[0])); err != nil {
		return err
	}

	type sparseVec struct {
		Indices []uint32  `json:"indices"`
		Values  []float32 `json:"values"`
	}
	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i := range chunks {
		chunkKey := domain.ChunkKey(doc.Name, i)

		payload := make(map[string]any, len(metadata)+3)
		if i < len(metadata) {
			for k, v := range metadata[i] {
				payload[k] = v
			}
		}
		payload["source"] = doc.Name
		payload["chunk_key"] = chunkKey
		payload["text"] = chunks[i]

		vector := map[string]any{denseVectorName: dense[i]}
		if i < len(sparse) && !sparse[i].IsEmpty() {
			vector[lexicalVectorName] = sparseVec{Indices: sparse[i].Indices, Values: sparse[i].Values}
		}

		points = append(points, point{
			ID:      PointID(chunkKey),
			Vector:  vector,
			Payload: payload,
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil)
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   denseVectorName,
			"vector": queryVector,
		},
		"limit":        limit,
		"with_payload": true,
	}
	if filter.Source != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "source",
					"match": map[string]any{
						"value": filter.Source,
					},
				},
			},
		}
	}
	return c.search(ctx, reqBody)
}

func (c *Client) SearchLexical(
	ctx context.Context,
	query domain.SparseVector,
	limit int,
) ([]domain.RetrievedChunk, error) {
	if query.IsEmpty() {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector": map[string]any{
			"name": lexicalVectorName,
			"vector": map[string]any{
				"indices": query.Indices,
				"values":  query.Values,
			},
		},
		"limit":        limit,
		"with_payload": true,
	}
	return c.search(ctx, reqBody)
}

func (c *Client) search(ctx context.Context, reqBody map[string]any) ([]domain.RetrievedChunk, error) {
	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievedChunk{
			Source:      getStringPayload(r.Payload, "source"),
			ChunkID:     getIntPayload(r.Payload, "chunk_id"),
			TotalChunks: getIntPayload(r.Payload, "total_chunks"),
			Text:        getStringPayload(r.Payload, "text"),
			Score:       r.Score,
		})
	}
	return out, nil
}

// DeleteBySource removes every point whose payload source matches.
// A collection that does not exist yet counts as already clean.
func (c *Client) DeleteBySource(ctx context.Context, source string) error {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key": "source",
					"match": map[string]any{
						"value": source,
					},
				},
			},
		},
	}
	return c.delete(ctx, reqBody)
}

// DeleteByChunkKeys removes points by their deterministic identifiers.
func (c *Client) DeleteByChunkKeys(ctx context.Context, chunkKeys []string) error {
	if len(chunkKeys) == 0 {
		return nil
	}
	ids := make([]string, 0, len(chunkKeys))
	for _, key := range chunkKeys {
		ids = append(ids, PointID(key))
	}
	return c.delete(ctx, map[string]any{"points": ids})
}

func (c *Client) delete(ctx context.Context, reqBody map[string]any) error {
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPost, url, reqBody, nil)
	if err != nil && strings.Contains(err.Error(), "404") {
		return nil
	}
	return err
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			lexicalVectorName: map[string]any{},
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if the collection already exists.
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) do(ctx context.Context, method, url string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant status: %s", resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
