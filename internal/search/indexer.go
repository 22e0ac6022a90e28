// Package search wraps the external message-index collaborator. Indexing is
// best-effort: every failure is logged and swallowed, and chunk references
// are written back only after the owning message is durable.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Indexer is the narrow interface to the external index.
type Indexer interface {
	// IngestChunk indexes a message body and returns the assigned chunk id.
	IngestChunk(ctx context.Context, req *IngestChunkRequest) (string, error)
	// UpdateChunk re-indexes an edited message body.
	UpdateChunk(ctx context.Context, chunkID string, req *UpdateChunkRequest) error
	// DeleteChunk removes a chunk from the index.
	DeleteChunk(ctx context.Context, chunkID string) error
}

// IngestChunkRequest describes a message to index. ThreadID is the parent
// message id for replies and the message's own id for thread roots.
type IngestChunkRequest struct {
	Chunk          string    `json:"chunk"`
	ConversationID int64     `json:"conversation_id"`
	ThreadID       int64     `json:"thread_id"`
	UserID         int64     `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateChunkRequest carries the replacement body for an indexed chunk.
type UpdateChunkRequest struct {
	Chunk          string `json:"chunk"`
	ConversationID int64  `json:"conversation_id"`
	ThreadID       int64  `json:"thread_id"`
}

// HTTPIndexer talks to the index service over JSON/HTTP.
type HTTPIndexer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPIndexer creates an indexer against the given endpoint.
func NewHTTPIndexer(endpoint, apiKey string, timeout time.Duration) *HTTPIndexer {
	return &HTTPIndexer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type ingestResponse struct {
	Status  string `json:"status"`
	ChunkID string `json:"chunk_id"`
	Message string `json:"message,omitempty"`
}

// IngestChunk indexes a new chunk.
func (x *HTTPIndexer) IngestChunk(ctx context.Context, req *IngestChunkRequest) (string, error) {
	var out ingestResponse
	if err := x.do(ctx, http.MethodPost, x.endpoint+"/chunks", req, &out); err != nil {
		return "", err
	}
	if out.ChunkID == "" {
		return "", fmt.Errorf("index returned no chunk id: %s", out.Message)
	}
	return out.ChunkID, nil
}

// UpdateChunk replaces an indexed chunk's body.
func (x *HTTPIndexer) UpdateChunk(ctx context.Context, chunkID string, req *UpdateChunkRequest) error {
	return x.do(ctx, http.MethodPut, x.endpoint+"/chunks/"+chunkID, req, nil)
}

// DeleteChunk removes a chunk.
func (x *HTTPIndexer) DeleteChunk(ctx context.Context, chunkID string) error {
	return x.do(ctx, http.MethodDelete, x.endpoint+"/chunks/"+chunkID, nil, nil)
}

func (x *HTTPIndexer) do(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal index request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("index returned status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode index response: %w", err)
		}
	}
	return nil
}
