package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rootie/infrastructure/llm"
	"rootie/infrastructure/persistence/abstractions"
)

// ChatHandler handles streamed and plain chat requests. It rebuilds the
// conversation history leading to the submitted node and captures the
// answered node on completion.
type ChatHandler struct {
	repo     abstractions.Repository
	provider llm.Provider
	validate *validator.Validate
	logger   *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(repo abstractions.Repository, provider llm.Provider, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		repo:     repo,
		provider: provider,
		validate: validator.New(),
		logger:   logger,
	}
}

type chatRequest struct {
	Prompt       string        `json:"prompt" validate:"required"`
	ParentNodeID string        `json:"parent_node_id"`
	NodeID       string        `json:"node_id"`
	Nodes        []NodePayload `json:"nodes"`
	GraphID      string        `json:"graph_id"`
}

type chatResponse struct {
	NewNodeData map[string]interface{} `json:"new_node_data"`
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
}

// StreamChat handles POST /api/chat/stream. The body is a sequence of
// "data: <json>" lines with record types init, chunk, complete and
// error.
func (h *ChatHandler) StreamChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	nodeID := req.NodeID
	if nodeID == "" {
		nodeID = uuid.New().String()
	}

	context := h.buildContext(r, req)
	context = append(context, llm.Message{Role: llm.RoleUser, Content: req.Prompt})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeRecord := func(record map[string]interface{}) {
		payload, err := json.Marshal(record)
		if err != nil {
			h.logger.Error("failed to marshal stream record", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	writeRecord(map[string]interface{}{
		"type":           "init",
		"node_id":        nodeID,
		"question":       req.Prompt,
		"parent_node_id": req.ParentNodeID,
		"model_name":     h.provider.ModelName(),
	})

	full, err := h.provider.StreamCompletion(r.Context(), context, func(content string) error {
		writeRecord(map[string]interface{}{"type": "chunk", "content": content})
		return nil
	})
	if err != nil {
		h.logger.Warn("model stream failed", zap.String("nodeID", nodeID), zap.Error(err))
		writeRecord(map[string]interface{}{"type": "error", "error": err.Error()})
		return
	}

	record := abstractions.NodeRecord{
		ID:           nodeID,
		GraphID:      req.GraphID,
		ParentNodeID: req.ParentNodeID,
		UserPrompt:   req.Prompt,
		AIResponse:   full,
		CreatedAt:    time.Now().UTC(),
		ModelName:    h.provider.ModelName(),
	}
	if err := h.repo.UpsertNode(r.Context(), record); err != nil {
		h.logger.Warn("failed to store answered node",
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
	}

	writeRecord(map[string]interface{}{
		"type":          "complete",
		"full_response": full,
		"created_at":    record.CreatedAt.Format(time.RFC3339),
	})
}

// Chat handles POST /api/chat, the non-streaming variant
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	context := h.buildContext(r, req)
	context = append(context, llm.Message{Role: llm.RoleUser, Content: req.Prompt})

	answer, err := h.provider.Completion(r.Context(), context)
	if err != nil {
		h.logger.Warn("model call failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	record := abstractions.NodeRecord{
		ID:           uuid.New().String(),
		GraphID:      req.GraphID,
		ParentNodeID: req.ParentNodeID,
		UserPrompt:   req.Prompt,
		AIResponse:   answer,
		CreatedAt:    time.Now().UTC(),
		ModelName:    h.provider.ModelName(),
	}
	if err := h.repo.UpsertNode(r.Context(), record); err != nil {
		h.logger.Warn("failed to store answered node", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Success: true,
		NewNodeData: map[string]interface{}{
			"id":             record.ID,
			"question":       record.UserPrompt,
			"answer":         record.AIResponse,
			"parent_node_id": record.ParentNodeID,
			"created_at":     record.CreatedAt.Format(time.RFC3339),
			"model_name":     record.ModelName,
		},
	})
}

// Health handles GET /api/health
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// buildContext walks parent links from the submission's parent to the
// root, emitting user/assistant pairs oldest-first. The request's node
// list takes precedence; stored nodes fill the gaps.
func (h *ChatHandler) buildContext(r *http.Request, req chatRequest) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: llm.SystemPrompt}}
	if req.ParentNodeID == "" {
		return messages
	}

	byID := make(map[string]NodePayload, len(req.Nodes))
	for _, node := range req.Nodes {
		byID[node.ID] = node
	}

	var path []NodePayload
	currentID := req.ParentNodeID
	for currentID != "" && len(path) < 1000 {
		node, found := byID[currentID]
		if !found {
			stored, exists, err := h.repo.GetNode(r.Context(), currentID)
			if err != nil || !exists {
				h.logger.Warn("context node not found", zap.String("nodeID", currentID))
				break
			}
			node = NodePayload{
				ID:           stored.ID,
				UserPrompt:   stored.UserPrompt,
				AIResponse:   stored.AIResponse,
				ParentNodeID: stored.ParentNodeID,
			}
		}
		path = append(path, node)
		currentID = node.ParentNodeID
	}

	for i := len(path) - 1; i >= 0; i-- {
		if path[i].UserPrompt == "" && path[i].AIResponse == "" {
			continue
		}
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: path[i].UserPrompt},
			llm.Message{Role: llm.RoleAssistant, Content: path[i].AIResponse},
		)
	}
	return messages
}
