// Package handler provides HTTP request handlers.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mockapi/mockapi/internal/handler/dto"
	"github.com/mockapi/mockapi/internal/middleware"
)

// Body decoding errors.
var (
	errEmptyBody = errors.New("request body is required")
	errBadJSON   = errors.New("invalid JSON body")
	errNotObject = errors.New("request body must be a JSON object")
)

// Handler serves the root and fallback endpoints.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Root reports that the service is up.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Mock API running")
}

// NotFound handles 404 responses. It is also used for known paths with an
// unsupported method.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.NotFoundResponse{
		Error: "Not found",
		Path:  r.URL.Path,
	})
}

// writeJSON writes a JSON response with the given status code. The body is
// encoded before the status is sent, so a value that cannot be encoded
// turns into a 500 instead of an empty response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("response_encode_failed", "status", status, "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"internal server error"}` + "\n")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// writeBodyError maps a decodeObject error to a response.
func writeBodyError(w http.ResponseWriter, err error) {
	if middleware.IsBodyTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, middleware.TooLargeMessage(err))
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// decodeObject reads the request body as a single JSON object. Numbers are
// kept as json.Number so integers round-trip without float conversion.
func decodeObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyBody
		}
		if middleware.IsBodyTooLarge(err) {
			return nil, err
		}
		return nil, errBadJSON
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if middleware.IsBodyTooLarge(err) {
			return nil, err
		}
		return nil, errBadJSON
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}
