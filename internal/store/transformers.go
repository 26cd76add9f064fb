package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Transformer is the minimal asset registry entry measurements attach to.
type Transformer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SerialNumber string    `json:"serial_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateTransformer registers a transformer and returns it with its
// generated ID.
func (s *Store) CreateTransformer(ctx context.Context, name, serialNumber string) (*Transformer, error) {
	t := &Transformer{
		ID:           uuid.New(),
		Name:         name,
		SerialNumber: serialNumber,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transformers (id, name, serial_number, created_at)
		VALUES ($1,$2,$3,$4)`,
		t.ID, t.Name, t.SerialNumber, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create transformer: %w", err)
	}
	return t, nil
}

// GetTransformer loads one transformer.
func (s *Store) GetTransformer(ctx context.Context, id uuid.UUID) (*Transformer, error) {
	var t Transformer
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, serial_number, created_at
		FROM transformers WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.SerialNumber, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transformer: %w", err)
	}
	return &t, nil
}

// ListTransformers returns all registered transformers by name.
func (s *Store) ListTransformers(ctx context.Context) ([]Transformer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, serial_number, created_at
		FROM transformers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list transformers: %w", err)
	}
	defer rows.Close()

	out := make([]Transformer, 0)
	for rows.Next() {
		var t Transformer
		if err := rows.Scan(&t.ID, &t.Name, &t.SerialNumber, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transformer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransformerExists reports whether the given ID is a registered
// transformer. Malformed IDs simply do not exist.
func (s *Store) TransformerExists(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transformers WHERE id = $1)`, uid).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("transformer exists: %w", err)
	}
	return exists, nil
}
