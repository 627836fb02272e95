// Package sqlite implements the dialogue-graph repository on SQLite via
// mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"rootie/infrastructure/persistence/abstractions"
	pkgerrors "rootie/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS dialogue_graphs (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS dialogue_nodes (
	id             TEXT PRIMARY KEY,
	graph_id       TEXT REFERENCES dialogue_graphs(id) ON DELETE CASCADE,
	parent_node_id TEXT,
	user_prompt    TEXT NOT NULL,
	ai_response    TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	position_x     REAL NOT NULL DEFAULT 0,
	position_y     REAL NOT NULL DEFAULT 0,
	model_name     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dialogue_edges (
	id        TEXT NOT NULL,
	graph_id  TEXT NOT NULL REFERENCES dialogue_graphs(id) ON DELETE CASCADE,
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	PRIMARY KEY (graph_id, id)
);

CREATE INDEX IF NOT EXISTS idx_nodes_graph ON dialogue_nodes(graph_id);
`

// Repository is the SQLite-backed store
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository opens (creating if needed) the database at path and
// ensures the schema exists.
func NewRepository(path string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, pkgerrors.NewStorageError("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, pkgerrors.NewStorageError("open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, pkgerrors.NewStorageError("verify database connection", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.NewStorageError("create schema", err)
	}

	logger.Info("sqlite database opened", zap.String("path", path))
	return &Repository{db: db, logger: logger}, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

// ListGraphs returns all graphs newest-first
func (r *Repository) ListGraphs(ctx context.Context) ([]abstractions.GraphRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, created_at, updated_at
		 FROM dialogue_graphs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list graphs", err)
	}
	defer rows.Close()

	var records []abstractions.GraphRecord
	for rows.Next() {
		var record abstractions.GraphRecord
		if err := rows.Scan(&record.ID, &record.Title, &record.Description, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, pkgerrors.NewStorageError("scan graph", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// CreateGraph inserts graph metadata
func (r *Repository) CreateGraph(ctx context.Context, record abstractions.GraphRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dialogue_graphs (id, title, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Title, record.Description, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return pkgerrors.NewStorageError("create graph", err)
	}
	return nil
}

// GetGraph fetches graph metadata by ID
func (r *Repository) GetGraph(ctx context.Context, id string) (abstractions.GraphRecord, error) {
	var record abstractions.GraphRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at, updated_at
		 FROM dialogue_graphs WHERE id = ?`, id).
		Scan(&record.ID, &record.Title, &record.Description, &record.CreatedAt, &record.UpdatedAt)
	if err == sql.ErrNoRows {
		return record, pkgerrors.NewNotFoundError("graph " + id)
	}
	if err != nil {
		return record, pkgerrors.NewStorageError("get graph", err)
	}
	return record, nil
}

// RenameGraph updates a graph's title and returns the fresh record
func (r *Repository) RenameGraph(ctx context.Context, id, title string) (abstractions.GraphRecord, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE dialogue_graphs SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id)
	if err != nil {
		return abstractions.GraphRecord{}, pkgerrors.NewStorageError("rename graph", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return abstractions.GraphRecord{}, pkgerrors.NewNotFoundError("graph " + id)
	}
	return r.GetGraph(ctx, id)
}

// DeleteGraph removes a graph; its nodes and edges cascade
func (r *Repository) DeleteGraph(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dialogue_graphs WHERE id = ?`, id)
	if err != nil {
		return pkgerrors.NewStorageError("delete graph", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return pkgerrors.NewNotFoundError("graph " + id)
	}
	return nil
}

// ReplaceSnapshot swaps a graph's full node and edge sets in one
// transaction.
func (r *Repository) ReplaceSnapshot(ctx context.Context, graphID string, nodes []abstractions.NodeRecord, edges []abstractions.EdgeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewStorageError("begin snapshot transaction", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE dialogue_graphs SET updated_at = ? WHERE id = ?`, now, graphID)
	if err != nil {
		return pkgerrors.NewStorageError("touch graph", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return pkgerrors.NewNotFoundError("graph " + graphID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dialogue_nodes WHERE graph_id = ?`, graphID); err != nil {
		return pkgerrors.NewStorageError("clear nodes", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dialogue_edges WHERE graph_id = ?`, graphID); err != nil {
		return pkgerrors.NewStorageError("clear edges", err)
	}

	for _, node := range nodes {
		createdAt := node.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dialogue_nodes
			 (id, graph_id, parent_node_id, user_prompt, ai_response, created_at, position_x, position_y, model_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			node.ID, graphID, nullable(node.ParentNodeID), node.UserPrompt, node.AIResponse,
			createdAt, node.PositionX, node.PositionY, node.ModelName)
		if err != nil {
			return pkgerrors.NewStorageError("insert node", err)
		}
	}
	for _, edge := range edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dialogue_edges (id, graph_id, source_id, target_id) VALUES (?, ?, ?, ?)`,
			edge.ID, graphID, edge.SourceID, edge.TargetID)
		if err != nil {
			return pkgerrors.NewStorageError("insert edge", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.NewStorageError("commit snapshot", err)
	}
	return nil
}

// GetNodes returns a graph's nodes
func (r *Repository) GetNodes(ctx context.Context, graphID string) ([]abstractions.NodeRecord, error) {
	return r.queryNodes(ctx,
		`SELECT id, graph_id, parent_node_id, user_prompt, ai_response, created_at, position_x, position_y, model_name
		 FROM dialogue_nodes WHERE graph_id = ? ORDER BY created_at`, graphID)
}

// GetEdges returns a graph's edges
func (r *Repository) GetEdges(ctx context.Context, graphID string) ([]abstractions.EdgeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, graph_id, source_id, target_id FROM dialogue_edges WHERE graph_id = ?`, graphID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list edges", err)
	}
	defer rows.Close()

	var records []abstractions.EdgeRecord
	for rows.Next() {
		var record abstractions.EdgeRecord
		if err := rows.Scan(&record.ID, &record.GraphID, &record.SourceID, &record.TargetID); err != nil {
			return nil, pkgerrors.NewStorageError("scan edge", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpsertNode writes one node, inserting or overwriting by ID
func (r *Repository) UpsertNode(ctx context.Context, record abstractions.NodeRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dialogue_nodes
		 (id, graph_id, parent_node_id, user_prompt, ai_response, created_at, position_x, position_y, model_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   graph_id = excluded.graph_id,
		   parent_node_id = excluded.parent_node_id,
		   user_prompt = excluded.user_prompt,
		   ai_response = excluded.ai_response,
		   position_x = excluded.position_x,
		   position_y = excluded.position_y,
		   model_name = excluded.model_name`,
		record.ID, nullable(record.GraphID), nullable(record.ParentNodeID),
		record.UserPrompt, record.AIResponse, createdAt,
		record.PositionX, record.PositionY, record.ModelName)
	if err != nil {
		return pkgerrors.NewStorageError("upsert node", err)
	}
	return nil
}

// GetNode fetches one node by ID
func (r *Repository) GetNode(ctx context.Context, id string) (abstractions.NodeRecord, bool, error) {
	records, err := r.queryNodes(ctx,
		`SELECT id, graph_id, parent_node_id, user_prompt, ai_response, created_at, position_x, position_y, model_name
		 FROM dialogue_nodes WHERE id = ?`, id)
	if err != nil {
		return abstractions.NodeRecord{}, false, err
	}
	if len(records) == 0 {
		return abstractions.NodeRecord{}, false, nil
	}
	return records[0], true, nil
}

// GetAllNodes returns every stored node
func (r *Repository) GetAllNodes(ctx context.Context) ([]abstractions.NodeRecord, error) {
	return r.queryNodes(ctx,
		`SELECT id, graph_id, parent_node_id, user_prompt, ai_response, created_at, position_x, position_y, model_name
		 FROM dialogue_nodes ORDER BY created_at`)
}

func (r *Repository) queryNodes(ctx context.Context, query string, args ...interface{}) ([]abstractions.NodeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.NewStorageError("query nodes", err)
	}
	defer rows.Close()

	var records []abstractions.NodeRecord
	for rows.Next() {
		var record abstractions.NodeRecord
		var graphID, parentID sql.NullString
		if err := rows.Scan(&record.ID, &graphID, &parentID, &record.UserPrompt, &record.AIResponse,
			&record.CreatedAt, &record.PositionX, &record.PositionY, &record.ModelName); err != nil {
			return nil, pkgerrors.NewStorageError("scan node", err)
		}
		record.GraphID = graphID.String
		record.ParentNodeID = parentID.String
		records = append(records, record)
	}
	return records, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ abstractions.Repository = (*Repository)(nil)
