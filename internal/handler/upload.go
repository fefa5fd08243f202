package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/mockapi/mockapi/internal/handler/dto"
	"github.com/mockapi/mockapi/internal/metrics"
	"github.com/mockapi/mockapi/internal/middleware"
)

// UploadField is the multipart field that carries the uploaded file.
const UploadField = "file"

// sniffLen is how much of a file is inspected when the client sent no
// Content-Type for it.
const sniffLen = 3072

// Upload rejection reasons.
var (
	errFileRequired    = errors.New("file is required")
	errTooManyFiles    = errors.New("only one file may be uploaded")
	errUnexpectedField = errors.New("unexpected file field")
	errBadMultipart    = errors.New("invalid multipart body")
)

// UploadHandler echoes metadata about a single uploaded file without
// keeping its content.
type UploadHandler struct {
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(recorder metrics.Recorder, logger *slog.Logger) *UploadHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UploadHandler{
		metrics: recorder,
		logger:  logger,
	}
}

// Upload handles POST /upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		h.reject(w, http.StatusBadRequest, errFileRequired)
		return
	}

	var result *dto.UploadResponse
	for {
		part, err := mr.NextRawPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.rejectRead(w, err)
			return
		}

		filename, isFile := partFilename(part)
		if !isFile {
			// Plain form values are accepted and ignored.
			if _, err := io.Copy(io.Discard, part); err != nil {
				h.rejectRead(w, err)
				return
			}
			continue
		}

		if name := part.FormName(); name != UploadField {
			h.reject(w, http.StatusBadRequest, errUnexpectedField, slog.String("field", name))
			return
		}
		if result != nil {
			h.reject(w, http.StatusBadRequest, errTooManyFiles)
			return
		}

		size, mediaType, err := consumePart(part)
		if err != nil {
			h.rejectRead(w, err)
			return
		}

		result = &dto.UploadResponse{
			Filename: filename,
			Size:     size,
			Mimetype: mediaType,
		}
	}

	if result == nil {
		h.reject(w, http.StatusBadRequest, errFileRequired)
		return
	}

	h.metrics.IncUpload(metrics.UploadAccepted)
	h.metrics.ObserveUploadSize(result.Size)

	h.logger.Info("file_uploaded",
		"filename", result.Filename,
		"size", result.Size,
		"size_human", humanize.IBytes(uint64(result.Size)),
		"mimetype", result.Mimetype,
	)

	writeJSON(w, http.StatusOK, result)
}

func (h *UploadHandler) reject(w http.ResponseWriter, status int, reason error, attrs ...any) {
	h.metrics.IncUpload(metrics.UploadRejected)
	h.logger.Warn("upload_rejected", append([]any{"reason", reason.Error()}, attrs...)...)

	msg := reason.Error()
	if errors.Is(reason, errUnexpectedField) {
		msg += ": only \"" + UploadField + "\" is accepted"
	}
	writeError(w, status, msg)
}

// rejectRead answers a failure while reading the multipart stream.
func (h *UploadHandler) rejectRead(w http.ResponseWriter, err error) {
	if middleware.IsBodyTooLarge(err) {
		h.metrics.IncUpload(metrics.UploadRejected)
		writeError(w, http.StatusRequestEntityTooLarge, middleware.TooLargeMessage(err))
		return
	}
	h.reject(w, http.StatusBadRequest, errBadMultipart, slog.String("error", err.Error()))
}

// partFilename returns the filename exactly as the client sent it. Parts
// without a non-empty filename are ordinary form values. An empty filename
// is what browsers send for a file input left blank.
func partFilename(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	filename, ok := params["filename"]
	if !ok || filename == "" {
		return "", false
	}
	return filename, true
}

// consumePart drains the part, returning its size and media type. The
// declared Content-Type is returned unchanged; when it is missing the type
// is sniffed from the leading bytes.
func consumePart(part *multipart.Part) (int64, string, error) {
	mediaType := part.Header.Get("Content-Type")
	if mediaType != "" {
		n, err := io.Copy(io.Discard, part)
		return n, mediaType, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, "", err
	}
	mediaType = mimetype.Detect(head[:n]).String()

	rest, err := io.Copy(io.Discard, part)
	if err != nil {
		return 0, "", err
	}
	return int64(n) + rest, mediaType, nil
}
