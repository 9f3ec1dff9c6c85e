package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend-gpslogger/internal/db"
	"backend-gpslogger/internal/record"
	"backend-gpslogger/internal/stream"

	"github.com/google/uuid"
)

// Service is the coordinate store: an append-only partition of payloads per
// user. Every successful append pushes a fresh full snapshot through the
// hub; rows are never updated or deleted.
type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Append writes one record under the user's partition and returns the
// generated child key. The write never touches existing children.
func (s *Service) Append(ctx context.Context, userID string, rec record.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if rec.CapturedAt == 0 {
		rec.CapturedAt = time.Now().UnixMilli()
	}

	key := uuid.NewString()
	payload, err := json.Marshal(rec.Payload())
	if err != nil {
		return "", err
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO coordinates (id, user_id, payload)
		VALUES ($1,$2,$3)
	`, key, userID, payload); err != nil {
		return "", err
	}

	s.broadcastSnapshot(ctx, userID)
	return key, nil
}

// Children returns the raw payloads of a user's partition in insertion
// order. Rows that do not decode are dropped, matching the parse policy
// for malformed children.
func (s *Service) Children(ctx context.Context, userID string) ([]record.Payload, error) {
	rows, err := s.db.Query(ctx, `
		SELECT payload FROM coordinates
		WHERE user_id=$1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := []record.Payload{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var child record.Payload
		if err := json.Unmarshal(raw, &child); err != nil {
			continue
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

// List returns the parsed records of a user's partition, skipping
// malformed children.
func (s *Service) List(ctx context.Context, userID string) ([]record.Record, error) {
	children, err := s.Children(ctx, userID)
	if err != nil {
		return nil, err
	}
	return record.ParseChildren(children), nil
}

// SnapshotJSON is the wire form of a full partition snapshot, as delivered
// to stream listeners.
func (s *Service) SnapshotJSON(ctx context.Context, userID string) ([]byte, error) {
	children, err := s.Children(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(children)
}

func (s *Service) broadcastSnapshot(ctx context.Context, userID string) {
	if s.hub == nil {
		return
	}
	snap, err := s.SnapshotJSON(ctx, userID)
	if err != nil {
		log.Printf("snapshot broadcast error: %v", err)
		return
	}
	s.hub.Broadcast(userID, snap)
}
