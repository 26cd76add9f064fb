package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fradiag/fraingest/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// MeasurementFilter narrows measurement listings.
type MeasurementFilter struct {
	TransformerID string
	Vendor        string
	Skip          int
	Limit         int
}

// MeasurementSummary is a measurement row without the data arrays, for
// listings.
type MeasurementSummary struct {
	ID              uuid.UUID `json:"id"`
	TransformerID   string    `json:"transformer_id"`
	MeasurementDate time.Time `json:"measurement_date"`
	WindingConfig   string    `json:"winding_config"`
	Vendor          string    `json:"vendor"`
	OriginalFile    string    `json:"original_filename"`
	DataPoints      int       `json:"data_points"`
	CreatedAt       time.Time `json:"created_at"`
}

// InsertMeasurement stores a normalized measurement.
func (s *Store) InsertMeasurement(ctx context.Context, m *core.Measurement) error {
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if m.Metadata == nil {
		meta = []byte("{}")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO measurements (
			id, transformer_id, measurement_date, winding_config,
			frequency_hz, magnitude_db, phase_degrees,
			vendor, original_format, original_filename,
			temperature_celsius, notes, metadata, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		m.ID, m.TransformerID, m.MeasurementDate, string(m.WindingConfig),
		m.FrequencyHz, m.MagnitudeDB, phaseOrNil(m),
		string(m.Vendor), m.OriginalFormat, m.OriginalFile,
		m.TemperatureCelsius, m.Notes, meta, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

// GetMeasurement loads a full measurement including its data arrays.
func (s *Store) GetMeasurement(ctx context.Context, id uuid.UUID) (*core.Measurement, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, transformer_id, measurement_date, winding_config,
		       frequency_hz, magnitude_db, phase_degrees,
		       vendor, original_format, original_filename,
		       temperature_celsius, notes, metadata, created_at
		FROM measurements WHERE id = $1`, id)

	var (
		m     core.Measurement
		phase []float64
		meta  []byte
	)
	err := row.Scan(
		&m.ID, &m.TransformerID, &m.MeasurementDate, &m.WindingConfig,
		&m.FrequencyHz, &m.MagnitudeDB, &phase,
		&m.Vendor, &m.OriginalFormat, &m.OriginalFile,
		&m.TemperatureCelsius, &m.Notes, &meta, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get measurement: %w", err)
	}

	m.PhaseDegrees = phase
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &m, nil
}

// ListMeasurements returns measurement summaries, newest first.
func (s *Store) ListMeasurements(ctx context.Context, f MeasurementFilter) ([]MeasurementSummary, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, transformer_id, measurement_date, winding_config,
		       vendor, original_filename, cardinality(frequency_hz), created_at
		FROM measurements
		WHERE ($1 = '' OR transformer_id::text = $1)
		  AND ($2 = '' OR vendor = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		f.TransformerID, f.Vendor, limit, f.Skip)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	summaries := make([]MeasurementSummary, 0)
	for rows.Next() {
		var sm MeasurementSummary
		if err := rows.Scan(
			&sm.ID, &sm.TransformerID, &sm.MeasurementDate, &sm.WindingConfig,
			&sm.Vendor, &sm.OriginalFile, &sm.DataPoints, &sm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan measurement summary: %w", err)
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// DeleteMeasurement removes a measurement. Its history rows survive with
// a nulled measurement reference.
func (s *Store) DeleteMeasurement(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func phaseOrNil(m *core.Measurement) []float64 {
	if m.HasPhase() {
		return m.PhaseDegrees
	}
	return nil
}
