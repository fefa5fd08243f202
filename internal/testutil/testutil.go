// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CaptureLogger returns a JSON logger writing into the returned buffer.
func CaptureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// Part is one section of a multipart/form-data body. A zero Filename makes
// it a plain form value. An empty ContentType leaves the header out.
type Part struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// MultipartBody encodes parts as multipart/form-data and returns the body
// with its Content-Type header value. Filenames are written verbatim.
func MultipartBody(t testing.TB, parts ...Part) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, p.Field)
		if p.Filename != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, escapeQuotes(p.Filename))
		}
		header.Set("Content-Disposition", disposition)
		if p.ContentType != "" {
			header.Set("Content-Type", p.ContentType)
		}

		w, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create part %q: %v", p.Field, err)
		}
		if _, err := w.Write(p.Content); err != nil {
			t.Fatalf("write part %q: %v", p.Field, err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// DecodeJSON decodes r into a value of type T, failing the test on error.
func DecodeJSON[T any](t testing.TB, r io.Reader) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

// ProjectRoot returns the module root directory.
func ProjectRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("resolve caller path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..")), nil
}

// Fixture returns the path of a file under the module's testdata directory.
func Fixture(t testing.TB, name string) string {
	t.Helper()

	root, err := ProjectRoot()
	if err != nil {
		t.Fatalf("project root: %v", err)
	}
	path := filepath.Join(root, "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return path
}
