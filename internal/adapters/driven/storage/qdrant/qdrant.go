// Package qdrant provides a driven.VectorStore backed by a Qdrant server over REST.
//
// Entries live in one collection using cosine distance, created on the first
// upsert with the dimension of the first vector. Index metadata is kept as a
// single point in a companion "<collection>_meta" collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const (
	defaultTimeout = 15 * time.Second
	scrollPageSize = 256
	metaSuffix     = "_meta"

	// metaPointID is the fixed id of the metadata point.
	metaPointID = "00000000-0000-0000-0000-000000000001"
)

// errCollectionMissing is returned by requests against a collection that does not exist.
var errCollectionMissing = errors.New("collection does not exist")

// Config holds the connection parameters.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store is a minimal REST client to Qdrant.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu      sync.Mutex
	created map[string]bool
}

// Option configures the store.
type Option func(*Store)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// NewStore creates a Qdrant store. No request is made until first use.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", domain.ErrConfiguration)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
		created:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the backend name.
func (s *Store) Name() string {
	return string(domain.VectorBackendQdrant)
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Collection returns the entries collection name.
func (s *Store) Collection() string {
	return s.collection
}

type payload struct {
	Source      string `json:"source"`
	ChunkIndex  int    `json:"chunk_index"`
	Text        string `json:"text"`
	ContentHash string `json:"content_hash"`
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

type metaPayload struct {
	EmbeddingModel string    `json:"embedding_model"`
	Dimensions     int       `json:"dimensions"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type metaPoint struct {
	ID      string      `json:"id"`
	Vector  []float32   `json:"vector"`
	Payload metaPayload `json:"payload"`
}

// Upsert writes entries, replacing any with the same key.
// Keys must be UUIDs, which is what the chunker produces.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, s.collection, len(entries[0].Vector), true); err != nil {
		return err
	}

	points := make([]point, len(entries))
	for i, e := range entries {
		points[i] = point{
			ID:     e.Key,
			Vector: e.Vector,
			Payload: payload{
				Source:      e.Source,
				ChunkIndex:  e.ChunkIndex,
				Text:        e.Text,
				ContentHash: e.ContentHash,
			},
		}
	}
	return s.do(ctx, http.MethodPut, s.pointsPath(s.collection)+"?wait=true", map[string]any{"points": points}, nil)
}

// Nearest returns the k entries most similar to vector.
// A missing collection yields no results.
func (s *Store) Nearest(ctx context.Context, vector []float32, k int) ([]domain.ScoredEntry, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"with_vector":  false,
	}
	var resp struct {
		Result []struct {
			ID      any     `json:"id"`
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.pointsPath(s.collection)+"/search", req, &resp)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	results := make([]domain.ScoredEntry, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.ScoredEntry{
			Entry: domain.IndexEntry{
				Key:         fmt.Sprint(r.ID),
				Source:      r.Payload.Source,
				ChunkIndex:  r.Payload.ChunkIndex,
				Text:        r.Payload.Text,
				ContentHash: r.Payload.ContentHash,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

// DeleteSource removes every entry owned by source.
func (s *Store) DeleteSource(ctx context.Context, source string) error {
	err := s.do(ctx, http.MethodPost, s.pointsPath(s.collection)+"/delete?wait=true",
		map[string]any{"filter": sourceFilter(source)}, nil)
	if errors.Is(err, errCollectionMissing) {
		return nil
	}
	return err
}

// Sources summarises stored entries per source by scrolling the collection.
func (s *Store) Sources(ctx context.Context) (map[string]domain.SourceInfo, error) {
	sources := make(map[string]domain.SourceInfo)
	var offset any

	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{"source", "content_hash"},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload payload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err := s.do(ctx, http.MethodPost, s.pointsPath(s.collection)+"/scroll", req, &resp)
		if errors.Is(err, errCollectionMissing) {
			return sources, nil
		}
		if err != nil {
			return nil, err
		}

		for _, p := range resp.Result.Points {
			info := sources[p.Payload.Source]
			info.Source = p.Payload.Source
			info.ContentHash = p.Payload.ContentHash
			info.Chunks++
			sources[p.Payload.Source] = info
		}

		if resp.Result.NextPageOffset == nil {
			return sources, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Metadata returns the index metadata, or domain.ErrNotFound if none was written.
func (s *Store) Metadata(ctx context.Context) (*domain.IndexMetadata, error) {
	var resp struct {
		Result *metaPoint `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.pointsPath(s.metaCollection())+"/"+metaPointID, nil, &resp)
	if errors.Is(err, errCollectionMissing) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.IndexMetadata{
		EmbeddingModel: resp.Result.Payload.EmbeddingModel,
		Dimensions:     resp.Result.Payload.Dimensions,
		UpdatedAt:      resp.Result.Payload.UpdatedAt,
	}, nil
}

// SetMetadata records the index metadata.
func (s *Store) SetMetadata(ctx context.Context, meta domain.IndexMetadata) error {
	if err := s.ensureCollection(ctx, s.metaCollection(), 1, false); err != nil {
		return err
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now()
	}
	p := metaPoint{
		ID:     metaPointID,
		Vector: []float32{1},
		Payload: metaPayload{
			EmbeddingModel: meta.EmbeddingModel,
			Dimensions:     meta.Dimensions,
			UpdatedAt:      meta.UpdatedAt.UTC(),
		},
	}
	return s.do(ctx, http.MethodPut, s.pointsPath(s.metaCollection())+"?wait=true",
		map[string]any{"points": []metaPoint{p}}, nil)
}

// Reset drops both collections.
func (s *Store) Reset(ctx context.Context) error {
	for _, name := range []string{s.collection, s.metaCollection()} {
		err := s.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, nil)
		if err != nil && !errors.Is(err, errCollectionMissing) {
			return err
		}
	}
	s.mu.Lock()
	s.created = make(map[string]bool)
	s.mu.Unlock()
	return nil
}

func (s *Store) metaCollection() string {
	return s.collection + metaSuffix
}

func (s *Store) pointsPath(collection string) string {
	return "/collections/" + url.PathEscape(collection) + "/points"
}

// ensureCollection creates the collection if it does not exist yet.
func (s *Store) ensureCollection(ctx context.Context, name string, size int, indexSource bool) error {
	s.mu.Lock()
	done := s.created[name]
	s.mu.Unlock()
	if done {
		return nil
	}
	if size <= 0 {
		return fmt.Errorf("%w: invalid vector dimension %d", domain.ErrInvalidInput, size)
	}

	path := "/collections/" + url.PathEscape(name)
	err := s.do(ctx, http.MethodGet, path, nil, nil)
	switch {
	case errors.Is(err, errCollectionMissing):
		body := map[string]any{
			"vectors": map[string]any{
				"size":     size,
				"distance": "Cosine",
			},
		}
		if err := s.do(ctx, http.MethodPut, path, body, nil); err != nil {
			return err
		}
		if indexSource {
			index := map[string]any{"field_name": "source", "field_schema": "keyword"}
			if err := s.do(ctx, http.MethodPut, path+"/index?wait=true", index, nil); err != nil {
				return err
			}
		}
	case err != nil:
		return err
	}

	s.mu.Lock()
	s.created[name] = true
	s.mu.Unlock()
	return nil
}

func sourceFilter(source string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": "source", "match": map[string]any{"value": source}},
		},
	}
}

// do sends a JSON request and decodes the response into out when non-nil.
// A 404 maps to errCollectionMissing.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("creating qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %w", domain.ErrVectorStoreUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: qdrant %s %s failed: %s: %s",
			domain.ErrVectorStoreUnavailable, method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding qdrant response: %w", err)
		}
	}
	return nil
}
