package core

// service.go is the application service in front of the pipeline. It
// enforces request-level policy (size limit, transformer existence,
// concurrency cap), runs the pipeline, persists the result, and records
// every attempt in the append-only import history.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size
// limit before the pipeline ever runs.
var ErrFileTooLarge = errors.New("uploaded file exceeds the maximum allowed size")

// ErrTransformerNotFound is returned when the declared transformer ID
// does not exist.
var ErrTransformerNotFound = errors.New("transformer not found")

// DefaultMaxFileSizeBytes caps uploads at 50 MB.
const DefaultMaxFileSizeBytes = 50 << 20

// ImportStore persists measurements and the import audit trail. The
// store package provides the PostgreSQL implementation; tests use fakes.
type ImportStore interface {
	InsertMeasurement(ctx context.Context, m *Measurement) error
	AppendImport(ctx context.Context, o Outcome, measurementID *uuid.UUID) error
	TransformerExists(ctx context.Context, id string) (bool, error)
}

// ImportObserver receives the terminal outcome of every import attempt,
// successful or not. The metrics package implements it.
type ImportObserver interface {
	ObserveImport(status ImportStatus, duration time.Duration, dataPoints int)
}

// Service coordinates upload imports.
type Service struct {
	store    ImportStore
	observer ImportObserver
	pipeline *Pipeline
	limiter  *ImportLimiter
	logger   *slog.Logger
	maxBytes int
}

// ServiceOptions configures a Service. Zero values fall back to defaults.
type ServiceOptions struct {
	Limits           Limits
	MaxFileSizeBytes int
	MaxConcurrent    int
	MaxWait          time.Duration
}

// NewService wires a Service from its collaborators.
func NewService(store ImportStore, observer ImportObserver, logger *slog.Logger, opts ServiceOptions) *Service {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		observer: observer,
		pipeline: NewPipeline(opts.Limits),
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		logger:   logger,
		maxBytes: opts.MaxFileSizeBytes,
	}
}

// Limiter exposes the concurrency limiter for graceful shutdown.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

// MaxFileSizeBytes returns the configured upload size cap.
func (s *Service) MaxFileSizeBytes() int { return s.maxBytes }

// Import runs one upload through the full import flow. Failed imports
// return the fatal ImportError after their history record is written;
// policy rejections (size, unknown transformer, limiter) return their
// sentinel errors without touching the pipeline or the history.
func (s *Service) Import(ctx context.Context, upload RawUpload) (*UploadResponse, error) {
	if len(upload.Data) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	if upload.Hints.TransformerID != "" {
		ok, err := s.store.TransformerExists(ctx, upload.Hints.TransformerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTransformerNotFound
		}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	m, outcome := s.pipeline.Run(upload)
	outcome.TransformerID = upload.Hints.TransformerID

	if s.observer != nil {
		s.observer.ObserveImport(outcome.Status, outcome.CompletedAt.Sub(outcome.StartedAt), outcome.DataPoints)
	}

	if outcome.Status == StatusFailed {
		s.logFailure(upload, outcome)
		if err := s.store.AppendImport(ctx, outcome, nil); err != nil {
			s.logger.Error("failed to record import history", "file", upload.Filename, "error", err)
		}
		return nil, outcome.Fatal
	}

	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()

	if err := s.store.InsertMeasurement(ctx, m); err != nil {
		s.logger.Error("failed to persist measurement", "file", upload.Filename, "error", err)
		return nil, err
	}
	if err := s.store.AppendImport(ctx, outcome, &m.ID); err != nil {
		// The measurement is saved; a missing history row is not worth
		// failing the request over.
		s.logger.Error("failed to record import history", "file", upload.Filename, "error", err)
	}

	s.logger.Info("import completed",
		"file", upload.Filename,
		"status", outcome.Status,
		"vendor", outcome.DetectedVendor,
		"parser", outcome.ParserUsed,
		"points", outcome.DataPoints,
		"warnings", len(outcome.Warnings),
	)

	return buildResponse(m, outcome), nil
}

// logFailure logs pipeline bugs at error level and bad input at warn so
// operators can tell them apart.
func (s *Service) logFailure(upload RawUpload, outcome Outcome) {
	attrs := []any{
		"file", upload.Filename,
		"kind", outcome.Fatal.Kind,
		"error", outcome.Fatal.Message,
	}
	if outcome.Fatal.IsInputError() {
		s.logger.Warn("import failed on bad input", attrs...)
	} else {
		s.logger.Error("import failed on pipeline invariant", attrs...)
	}
}

func buildResponse(m *Measurement, outcome Outcome) *UploadResponse {
	msg := "measurement imported successfully"
	if outcome.Status == StatusPartial {
		msg = "measurement imported with warnings"
	}
	warnings := outcome.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &UploadResponse{
		MeasurementID:      m.ID.String(),
		TransformerID:      m.TransformerID,
		Filename:           m.OriginalFile,
		VendorDetected:     m.Vendor,
		DataPoints:         m.Points(),
		FrequencyRange:     outcome.FrequencyRange,
		ValidationWarnings: warnings,
		Message:            msg,
	}
}
