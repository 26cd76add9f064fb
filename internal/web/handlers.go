package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fradiag/fraingest/internal/core"
	"github.com/fradiag/fraingest/internal/logging"
	"github.com/fradiag/fraingest/internal/store"
)

// handleUpload accepts a multipart measurement file upload, runs it
// through the import pipeline, and returns the import result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := int64(s.service.MaxFileSizeBytes())
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	transformerID := strings.TrimSpace(r.FormValue("transformer_id"))
	if transformerID == "" {
		writeError(w, http.StatusBadRequest, "transformer_id is required")
		return
	}

	hints := core.Hints{
		TransformerID: transformerID,
		WindingConfig: core.WindingConfig(r.FormValue("winding_config")),
		Notes:         r.FormValue("notes"),
	}
	if v := r.FormValue("measurement_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid measurement_date; use RFC 3339 or YYYY-MM-DD")
			return
		}
		hints.MeasurementDate = &t
	}
	if v := r.FormValue("temperature_celsius"); v != "" {
		temp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid temperature_celsius")
			return
		}
		hints.TemperatureCelsius = &temp
	}

	logger := logging.FromContext(r.Context())
	logger.Info("upload received", "file", header.Filename, "size", len(data), "transformer", transformerID)

	resp, err := s.service.Import(r.Context(), core.RawUpload{
		Data:     data,
		Filename: header.Filename,
		Hints:    hints,
	})
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, resp)
}

// writeUploadError maps service and pipeline errors to HTTP statuses.
func (s *Server) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrTransformerNotFound):
		writeError(w, http.StatusNotFound, "transformer not found")
	case errors.Is(err, core.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", s.service.MaxFileSizeBytes()))
	case errors.Is(err, core.ErrTooManyImports):
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		if ierr, ok := core.AsImportError(err); ok {
			writeImportError(w, ierr)
			return
		}
		writeError(w, http.StatusInternalServerError, "import failed")
	}
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	filter := store.MeasurementFilter{
		TransformerID: r.URL.Query().Get("transformer_id"),
		Vendor:        r.URL.Query().Get("vendor"),
		Skip:          queryInt(r, "skip", 0),
		Limit:         queryInt(r, "limit", 100),
	}

	summaries, err := s.store.ListMeasurements(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("list measurements failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list measurements")
		return
	}
	writeJSON(w, summaries)
}

func (s *Server) handleGetMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := s.store.GetMeasurement(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "measurement not found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("get measurement failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load measurement")
		return
	}

	writeJSON(w, measurementJSON(m))
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	err := s.store.DeleteMeasurement(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "measurement not found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("delete measurement failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete measurement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportMeasurement streams a measurement as canonical CSV.
func (s *Server) handleExportMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := s.store.GetMeasurement(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "measurement not found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("export measurement failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load measurement")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "measurement_"+id.String()+".csv"))
	if err := core.WriteCSV(w, m); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	filter := store.ImportFilter{
		Status:        r.URL.Query().Get("status"),
		TransformerID: r.URL.Query().Get("transformer_id"),
		Skip:          queryInt(r, "skip", 0),
		Limit:         queryInt(r, "limit", 100),
	}

	records, err := s.store.ListImports(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("list imports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list imports")
		return
	}
	writeJSON(w, records)
}

func (s *Server) handleImportStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("import stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute import stats")
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleListTransformers(w http.ResponseWriter, r *http.Request) {
	transformers, err := s.store.ListTransformers(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("list transformers failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transformers")
		return
	}
	writeJSON(w, transformers)
}

func (s *Server) handleCreateTransformer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		SerialNumber string `json:"serial_number"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	t, err := s.store.CreateTransformer(r.Context(), req.Name, req.SerialNumber)
	if err != nil {
		logging.FromContext(r.Context()).Error("create transformer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transformer")
		return
	}
	writeJSONStatus(w, http.StatusCreated, t)
}

func (s *Server) handleGetTransformer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	t, err := s.store.GetTransformer(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transformer not found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("get transformer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transformer")
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			status = "database unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSONStatus(w, code, map[string]any{
		"status":         status,
		"active_imports": s.service.Limiter().ActiveCount(),
	})
}

// measurementJSON shapes a full measurement for the API.
func measurementJSON(m *core.Measurement) map[string]any {
	out := map[string]any{
		"id":                m.ID.String(),
		"transformer_id":    m.TransformerID,
		"measurement_date":  m.MeasurementDate,
		"winding_config":    string(m.WindingConfig),
		"frequency_hz":      m.FrequencyHz,
		"magnitude_db":      m.MagnitudeDB,
		"vendor":            string(m.Vendor),
		"original_format":   m.OriginalFormat,
		"original_filename": m.OriginalFile,
		"data_points":       m.Points(),
		"notes":             m.Notes,
		"metadata":          m.Metadata,
		"created_at":        m.CreatedAt,
	}
	if m.HasPhase() {
		out["phase_degrees"] = m.PhaseDegrees
	}
	if m.TemperatureCelsius != nil {
		out["temperature_celsius"] = *m.TemperatureCelsius
	}
	return out
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.UUID{}, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
