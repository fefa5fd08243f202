package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mockapi/mockapi/internal/service"
)

// RecordHandler handles HTTP requests for record operations.
type RecordHandler struct {
	svc    *service.RecordService
	logger *slog.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *service.RecordService, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /records.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListRecords(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// Create handles POST /records.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	rec, err := h.svc.CreateRecord(r.Context(), fields)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("record_created",
		"record_id", rec.ID(),
		"field_count", len(rec),
	)

	writeJSON(w, http.StatusCreated, rec)
}

// Update handles PUT /records/{id}.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.svc.GetRecord(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	fields, err := decodeObject(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	rec, err := h.svc.UpdateRecord(r.Context(), id, fields)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("record_updated",
		"record_id", rec.ID(),
		"updated_fields", len(fields),
	)

	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /records/{id}.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteRecord(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("record_deleted", "record_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *RecordHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Record not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
