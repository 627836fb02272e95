package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rootie/infrastructure/persistence/abstractions"
	pkgerrors "rootie/pkg/errors"
)

// GraphHandler handles graph CRUD and snapshot requests
type GraphHandler struct {
	repo     abstractions.Repository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(repo abstractions.Repository, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

// GraphResponse is the wire form of graph metadata
type GraphResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodePayload is the wire form of one node in load/save bodies
type NodePayload struct {
	ID           string  `json:"id" validate:"required"`
	UserPrompt   string  `json:"user_prompt"`
	AIResponse   string  `json:"ai_response"`
	ParentNodeID string  `json:"parent_node_id,omitempty"`
	PositionX    float64 `json:"position_x"`
	PositionY    float64 `json:"position_y"`
}

// EdgePayload is the wire form of one edge in load/save bodies
type EdgePayload struct {
	ID     string `json:"id" validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

type createGraphRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

type renameGraphRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type saveGraphRequest struct {
	GraphID string        `json:"graph_id"`
	Nodes   []NodePayload `json:"nodes" validate:"dive"`
	Edges   []EdgePayload `json:"edges" validate:"dive"`
}

type loadGraphResponse struct {
	Graph GraphResponse `json:"graph"`
	Nodes []NodePayload `json:"nodes"`
	Edges []EdgePayload `json:"edges"`
}

// ListGraphs handles GET /api/graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListGraphs(r.Context())
	if err != nil {
		h.respondAppError(w, err, "Failed to list graphs")
		return
	}

	graphs := make([]GraphResponse, 0, len(records))
	for _, record := range records {
		graphs = append(graphs, toGraphResponse(record))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"graphs": graphs})
}

// CreateGraph handles POST /api/graphs
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req createGraphRequest
	if !h.decode(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	record := abstractions.GraphRecord{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.CreateGraph(r.Context(), record); err != nil {
		h.respondAppError(w, err, "Failed to create graph")
		return
	}
	respondJSON(w, http.StatusCreated, toGraphResponse(record))
}

// RenameGraph handles PUT /api/graphs/{graphID}
func (h *GraphHandler) RenameGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	var req renameGraphRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.repo.RenameGraph(r.Context(), graphID, req.Title)
	if err != nil {
		h.respondAppError(w, err, "Failed to rename graph")
		return
	}
	respondJSON(w, http.StatusOK, toGraphResponse(record))
}

// DeleteGraph handles DELETE /api/graphs/{graphID}
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if err := h.repo.DeleteGraph(r.Context(), graphID); err != nil {
		h.respondAppError(w, err, "Failed to delete graph")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// LoadGraph handles GET /api/graphs/{graphID}/load
func (h *GraphHandler) LoadGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	record, err := h.repo.GetGraph(r.Context(), graphID)
	if err != nil {
		h.respondAppError(w, err, "Failed to load graph")
		return
	}
	nodes, err := h.repo.GetNodes(r.Context(), graphID)
	if err != nil {
		h.respondAppError(w, err, "Failed to load graph nodes")
		return
	}
	edges, err := h.repo.GetEdges(r.Context(), graphID)
	if err != nil {
		h.respondAppError(w, err, "Failed to load graph edges")
		return
	}

	response := loadGraphResponse{
		Graph: toGraphResponse(record),
		Nodes: make([]NodePayload, 0, len(nodes)),
		Edges: make([]EdgePayload, 0, len(edges)),
	}
	for _, node := range nodes {
		response.Nodes = append(response.Nodes, NodePayload{
			ID:           node.ID,
			UserPrompt:   node.UserPrompt,
			AIResponse:   node.AIResponse,
			ParentNodeID: node.ParentNodeID,
			PositionX:    node.PositionX,
			PositionY:    node.PositionY,
		})
	}
	for _, edge := range edges {
		response.Edges = append(response.Edges, EdgePayload{
			ID:     edge.ID,
			Source: edge.SourceID,
			Target: edge.TargetID,
		})
	}
	respondJSON(w, http.StatusOK, response)
}

// SaveGraph handles POST /api/graphs/{graphID}/save
func (h *GraphHandler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	var req saveGraphRequest
	if !h.decode(w, r, &req) {
		return
	}

	nodes := make([]abstractions.NodeRecord, 0, len(req.Nodes))
	for _, node := range req.Nodes {
		nodes = append(nodes, abstractions.NodeRecord{
			ID:           node.ID,
			GraphID:      graphID,
			ParentNodeID: node.ParentNodeID,
			UserPrompt:   node.UserPrompt,
			AIResponse:   node.AIResponse,
			PositionX:    node.PositionX,
			PositionY:    node.PositionY,
		})
	}
	edges := make([]abstractions.EdgeRecord, 0, len(req.Edges))
	for _, edge := range req.Edges {
		edges = append(edges, abstractions.EdgeRecord{
			ID:       edge.ID,
			GraphID:  graphID,
			SourceID: edge.Source,
			TargetID: edge.Target,
		})
	}

	if err := h.repo.ReplaceSnapshot(r.Context(), graphID, nodes, edges); err != nil {
		h.respondAppError(w, err, "Failed to save graph")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "node_count": len(nodes)})
}

// ListNodes handles GET /api/nodes
func (h *GraphHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.GetAllNodes(r.Context())
	if err != nil {
		h.respondAppError(w, err, "Failed to list nodes")
		return
	}

	nodes := make([]NodePayload, 0, len(records))
	for _, record := range records {
		nodes = append(nodes, NodePayload{
			ID:           record.ID,
			UserPrompt:   record.UserPrompt,
			AIResponse:   record.AIResponse,
			ParentNodeID: record.ParentNodeID,
			PositionX:    record.PositionX,
			PositionY:    record.PositionY,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"nodes": nodes})
}

func (h *GraphHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *GraphHandler) respondAppError(w http.ResponseWriter, err error, fallback string) {
	h.logger.Error(fallback, zap.Error(err))
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		respondError(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	respondError(w, http.StatusInternalServerError, fallback)
}

func toGraphResponse(record abstractions.GraphRecord) GraphResponse {
	return GraphResponse{
		ID:          record.ID,
		Title:       record.Title,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message})
}
