package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fradiag/fraingest/internal/core"
)

// ImportRecord is one row of the append-only import audit trail.
type ImportRecord struct {
	ID             uuid.UUID  `json:"id"`
	OriginalFile   string     `json:"original_filename"`
	FileSizeBytes  int64      `json:"file_size_bytes"`
	Status         string     `json:"status"`
	MeasurementID  *uuid.UUID `json:"measurement_id,omitempty"`
	TransformerID  string     `json:"transformer_id"`
	DetectedVendor string     `json:"detected_vendor"`
	DetectedFormat string     `json:"detected_format"`
	ParserUsed     string     `json:"parser_used"`
	DataPoints     int        `json:"data_points"`
	FrequencyRange string     `json:"frequency_range"`
	Warnings       []string   `json:"warnings"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    time.Time  `json:"completed_at"`
}

// ImportFilter narrows import history listings.
type ImportFilter struct {
	Status        string
	TransformerID string
	Skip          int
	Limit         int
}

// ImportStats aggregates the history by terminal status.
type ImportStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Partial int `json:"partial"`
	Failed  int `json:"failed"`
}

// AppendImport writes one audit row for a completed import attempt.
// Rows are never updated afterwards.
func (s *Store) AppendImport(ctx context.Context, o core.Outcome, measurementID *uuid.UUID) error {
	warnings := o.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	wj, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	var errMsg *string
	if o.Fatal != nil {
		msg := o.Fatal.Error()
		errMsg = &msg
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO import_history (
			id, original_filename, file_size_bytes, status, measurement_id,
			transformer_id, detected_vendor, detected_format, parser_used,
			data_points, frequency_range, warnings, error_message,
			created_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		uuid.New(), o.OriginalFile, int64(o.FileSizeBytes), string(o.Status), measurementID,
		o.TransformerID, string(o.DetectedVendor), string(o.DetectedFormat), o.ParserUsed,
		o.DataPoints, o.FrequencyRange, wj, errMsg,
		o.StartedAt, o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("append import history: %w", err)
	}
	return nil
}

// ListImports returns history rows, newest first.
func (s *Store) ListImports(ctx context.Context, f ImportFilter) ([]ImportRecord, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, original_filename, file_size_bytes, status, measurement_id,
		       transformer_id, detected_vendor, detected_format, parser_used,
		       data_points, frequency_range, warnings, error_message,
		       created_at, completed_at
		FROM import_history
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR transformer_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		f.Status, f.TransformerID, limit, f.Skip)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	records := make([]ImportRecord, 0)
	for rows.Next() {
		var (
			rec    ImportRecord
			wj     []byte
			errMsg *string
		)
		if err := rows.Scan(
			&rec.ID, &rec.OriginalFile, &rec.FileSizeBytes, &rec.Status, &rec.MeasurementID,
			&rec.TransformerID, &rec.DetectedVendor, &rec.DetectedFormat, &rec.ParserUsed,
			&rec.DataPoints, &rec.FrequencyRange, &wj, &errMsg,
			&rec.CreatedAt, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan import record: %w", err)
		}
		if len(wj) > 0 {
			if err := json.Unmarshal(wj, &rec.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings: %w", err)
			}
		}
		if errMsg != nil {
			rec.ErrorMessage = *errMsg
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats aggregates import counts by terminal status.
func (s *Store) Stats(ctx context.Context) (ImportStats, error) {
	var st ImportStats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'success'),
		       count(*) FILTER (WHERE status = 'partial'),
		       count(*) FILTER (WHERE status = 'failed')
		FROM import_history`).
		Scan(&st.Total, &st.Success, &st.Partial, &st.Failed)
	if err != nil {
		return ImportStats{}, fmt.Errorf("import stats: %w", err)
	}
	return st, nil
}
