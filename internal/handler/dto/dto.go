// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NotFoundResponse is returned for unmatched routes.
type NotFoundResponse struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// UploadResponse describes an uploaded file. The content itself is discarded.
type UploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}
