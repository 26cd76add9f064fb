package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type historyEntry struct {
	outcome       Outcome
	measurementID *uuid.UUID
}

type fakeStore struct {
	transformers map[string]bool
	existsErr    error
	insertErr    error
	inserted     []*Measurement
	history      []historyEntry
}

func (f *fakeStore) InsertMeasurement(ctx context.Context, m *Measurement) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeStore) AppendImport(ctx context.Context, o Outcome, measurementID *uuid.UUID) error {
	f.history = append(f.history, historyEntry{outcome: o, measurementID: measurementID})
	return nil
}

func (f *fakeStore) TransformerExists(ctx context.Context, id string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.transformers[id], nil
}

type fakeObserver struct {
	statuses []ImportStatus
	points   []int
}

func (f *fakeObserver) ObserveImport(status ImportStatus, duration time.Duration, dataPoints int) {
	f.statuses = append(f.statuses, status)
	f.points = append(f.points, dataPoints)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_ImportSuccess(t *testing.T) {
	st := &fakeStore{transformers: map[string]bool{"t-1": true}}
	obs := &fakeObserver{}
	svc := NewService(st, obs, quietLogger(), ServiceOptions{})

	resp, err := svc.Import(context.Background(), RawUpload{
		Data:     []byte(omicronExport(60)),
		Filename: "sweep.fra",
		Hints:    Hints{TransformerID: "t-1"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if len(st.inserted) != 1 {
		t.Fatalf("inserted %d measurements, want 1", len(st.inserted))
	}
	m := st.inserted[0]
	if m.ID == (uuid.UUID{}) {
		t.Error("persisted measurement has no ID")
	}
	if m.CreatedAt.IsZero() {
		t.Error("persisted measurement has no CreatedAt")
	}

	if len(st.history) != 1 {
		t.Fatalf("recorded %d history rows, want 1", len(st.history))
	}
	h := st.history[0]
	if h.measurementID == nil || *h.measurementID != m.ID {
		t.Errorf("history measurement ID = %v, want %v", h.measurementID, m.ID)
	}
	if h.outcome.TransformerID != "t-1" {
		t.Errorf("history transformer ID = %q, want t-1", h.outcome.TransformerID)
	}

	if resp.MeasurementID != m.ID.String() {
		t.Errorf("response measurement ID = %q, want %q", resp.MeasurementID, m.ID)
	}
	if resp.Message != "measurement imported successfully" {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.ValidationWarnings == nil {
		t.Error("ValidationWarnings must never be nil")
	}
	if len(resp.ValidationWarnings) != 0 {
		t.Errorf("clean import should carry no warnings, got %v", resp.ValidationWarnings)
	}

	if len(obs.statuses) != 1 || obs.statuses[0] != StatusSuccess {
		t.Errorf("observed statuses = %v", obs.statuses)
	}
	if obs.points[0] != 60 {
		t.Errorf("observed data points = %d, want 60", obs.points[0])
	}
}

func TestService_ImportFailureRecordsHistory(t *testing.T) {
	st := &fakeStore{}
	obs := &fakeObserver{}
	svc := NewService(st, obs, quietLogger(), ServiceOptions{})

	resp, err := svc.Import(context.Background(), RawUpload{
		Data:     []byte{},
		Filename: "empty.csv",
	})
	if resp != nil {
		t.Error("failed import should not return a response")
	}

	ierr, ok := AsImportError(err)
	if !ok || ierr.Kind != KindUnreadableInput {
		t.Fatalf("error = %v, want unreadable input", err)
	}

	if len(st.inserted) != 0 {
		t.Errorf("failed import persisted %d measurements", len(st.inserted))
	}
	if len(st.history) != 1 {
		t.Fatalf("recorded %d history rows, want 1", len(st.history))
	}
	if st.history[0].measurementID != nil {
		t.Error("failed import history row should carry no measurement ID")
	}
	if st.history[0].outcome.Status != StatusFailed {
		t.Errorf("history status = %s, want failed", st.history[0].outcome.Status)
	}

	if len(obs.statuses) != 1 || obs.statuses[0] != StatusFailed {
		t.Errorf("observed statuses = %v", obs.statuses)
	}
}

func TestService_PartialImportMessage(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st, nil, quietLogger(), ServiceOptions{})

	// No winding hint and no winding in the file forces a warning.
	var b strings.Builder
	b.WriteString("freq,mag\n")
	step := (2_000_000.0 - 20.0) / 59.0
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "%.4f,%.4f\n", 20.0+float64(i)*step, -10.0)
	}

	resp, err := svc.Import(context.Background(), RawUpload{
		Data:     []byte(b.String()),
		Filename: "nowinding.csv",
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if resp.Message != "measurement imported with warnings" {
		t.Errorf("Message = %q", resp.Message)
	}
	if len(resp.ValidationWarnings) == 0 {
		t.Error("partial import should surface its warnings")
	}
}

func TestService_RejectsOversizedUpload(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st, nil, quietLogger(), ServiceOptions{MaxFileSizeBytes: 16})

	_, err := svc.Import(context.Background(), RawUpload{
		Data:     make([]byte, 64),
		Filename: "big.csv",
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
	if len(st.history) != 0 {
		t.Error("policy rejection must not write a history row")
	}
}

func TestService_RejectsUnknownTransformer(t *testing.T) {
	st := &fakeStore{transformers: map[string]bool{}}
	svc := NewService(st, nil, quietLogger(), ServiceOptions{})

	_, err := svc.Import(context.Background(), RawUpload{
		Data:     []byte(omicronExport(60)),
		Filename: "sweep.fra",
		Hints:    Hints{TransformerID: "missing"},
	})
	if !errors.Is(err, ErrTransformerNotFound) {
		t.Errorf("error = %v, want ErrTransformerNotFound", err)
	}
	if len(st.history) != 0 {
		t.Error("policy rejection must not write a history row")
	}
}

func TestService_RejectsWhenLimiterFull(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st, nil, quietLogger(), ServiceOptions{
		MaxConcurrent: 1,
		MaxWait:       20 * time.Millisecond,
	})

	if err := svc.Limiter().Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer svc.Limiter().Release()

	_, err := svc.Import(context.Background(), RawUpload{
		Data:     []byte(omicronExport(60)),
		Filename: "sweep.fra",
	})
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("error = %v, want ErrTooManyImports", err)
	}
}

func TestService_InsertFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	st := &fakeStore{insertErr: boom}
	svc := NewService(st, nil, quietLogger(), ServiceOptions{})

	_, err := svc.Import(context.Background(), RawUpload{
		Data:     []byte(omicronExport(60)),
		Filename: "sweep.fra",
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want the insert error", err)
	}
}
