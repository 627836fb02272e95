// Package backend is the engine-side HTTP client for the graph and chat
// API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"rootie/application/ports"
	pkgerrors "rootie/pkg/errors"
)

// Client calls the backend REST API. It implements both
// ports.SnapshotStore and ports.ChatStreamer.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the backend at baseURL. The HTTP client
// carries no timeout: chat streams stay open for the duration of the
// model's reply.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger,
	}
}

// ListGraphs fetches all persisted graph summaries
func (c *Client) ListGraphs(ctx context.Context) ([]ports.GraphSummary, error) {
	var response struct {
		Graphs []ports.GraphSummary `json:"graphs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/graphs", nil, &response); err != nil {
		return nil, err
	}
	return response.Graphs, nil
}

// CreateGraph creates a new persisted graph
func (c *Client) CreateGraph(ctx context.Context, title, description string) (ports.GraphSummary, error) {
	body := map[string]string{"title": title, "description": description}
	var summary ports.GraphSummary
	if err := c.doJSON(ctx, http.MethodPost, "/api/graphs", body, &summary); err != nil {
		return ports.GraphSummary{}, err
	}
	return summary, nil
}

// RenameGraph updates a graph's title
func (c *Client) RenameGraph(ctx context.Context, id, title string) (ports.GraphSummary, error) {
	body := map[string]string{"title": title}
	var summary ports.GraphSummary
	if err := c.doJSON(ctx, http.MethodPut, "/api/graphs/"+id, body, &summary); err != nil {
		return ports.GraphSummary{}, err
	}
	return summary, nil
}

// DeleteGraph removes a persisted graph
func (c *Client) DeleteGraph(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/graphs/"+id, nil, nil)
}

// LoadGraph fetches a graph's full snapshot
func (c *Client) LoadGraph(ctx context.Context, id string) (ports.GraphSnapshot, error) {
	var snapshot ports.GraphSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/graphs/"+id+"/load", nil, &snapshot); err != nil {
		return ports.GraphSnapshot{}, err
	}
	return snapshot, nil
}

// SaveGraph uploads a graph's full snapshot
func (c *Client) SaveGraph(ctx context.Context, id string, nodes []ports.SnapshotNode, edges []ports.SnapshotEdge) error {
	body := map[string]interface{}{
		"graph_id": id,
		"nodes":    nodes,
		"edges":    edges,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/graphs/"+id+"/save", body, nil)
}

// StreamChat opens the chat stream. The caller owns closing the body.
func (c *Client) StreamChat(ctx context.Context, req ports.ChatStreamRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encode chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("chat stream request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, pkgerrors.NewNetworkError(
			fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
			fmt.Errorf("%s", readErrorBody(resp.Body)),
		)
	}
	return resp.Body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.NewNetworkError("backend request failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := readErrorBody(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return pkgerrors.NewNotFoundError(strings.TrimPrefix(path, "/api/"))
		}
		return pkgerrors.NewNetworkError(
			fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, message), nil)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(err, "decode response")
	}
	return nil
}

func readErrorBody(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var wrapper struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &wrapper) == nil && wrapper.Error != "" {
		return wrapper.Error
	}
	return strings.TrimSpace(string(raw))
}

var (
	_ ports.SnapshotStore = (*Client)(nil)
	_ ports.ChatStreamer  = (*Client)(nil)
)
