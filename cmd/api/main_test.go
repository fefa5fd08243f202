package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockapi/mockapi/internal/config"
	"github.com/mockapi/mockapi/internal/handler/dto"
	"github.com/mockapi/mockapi/internal/seed"
	"github.com/mockapi/mockapi/internal/testutil"
	"github.com/mockapi/mockapi/internal/webhook"
)

func newTestServer(t *testing.T, env map[string]string) *httptest.Server {
	t.Helper()

	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Parse()
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, testutil.DiscardLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(a.router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return do(t, srv, method, path, "application/json", r)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doJSON(t, srv, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	health := testutil.DecodeJSON[dto.HealthResponse](t, resp.Body)
	assert.Equal(t, "ok", health.Status)
	assert.True(t, strings.HasSuffix(health.Time, "Z"), "time should be UTC: %s", health.Time)
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doJSON(t, srv, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Mock API running", string(body))
}

func TestRecords_EmptyList(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doJSON(t, srv, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRecordsLifecycle(t *testing.T) {
	// Seeded with a fixed createdAt so the newest-first order is deterministic.
	srv := newTestServer(t, map[string]string{
		"RECORD_ID_FORMAT": config.IDFormatULID,
		"SEED_FILE":        writeSeed(t, "- id: older\n  createdAt: 1700000000000\n  title: older\n"),
	})
	resp := doJSON(t, srv, http.MethodPost, "/records", `{"title":"first","nested":{"a":[1,2]}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := testutil.DecodeJSON[map[string]any](t, resp.Body)

	id, ok := first["id"].(string)
	require.True(t, ok, "id should be a string: %v", first["id"])
	parsed, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.EqualValues(t, parsed.Time(), first["createdAt"])

	resp = doJSON(t, srv, http.MethodGet, "/records", "")
	list := testutil.DecodeJSON[[]map[string]any](t, resp.Body)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0]["title"])
	assert.Equal(t, "older", list[1]["title"])

	resp = doJSON(t, srv, http.MethodPut, "/records/"+id, `{"title":"renamed","id":"hijack","extra":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := testutil.DecodeJSON[map[string]any](t, resp.Body)
	assert.Equal(t, id, updated["id"])
	assert.Equal(t, first["createdAt"], updated["createdAt"])
	assert.Equal(t, "renamed", updated["title"])
	assert.Equal(t, first["nested"], updated["nested"])
	assert.Contains(t, updated, "extra")
	assert.Nil(t, updated["extra"])

	resp = doJSON(t, srv, http.MethodDelete, "/records/"+id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodDelete, "/records/"+id, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Record not found", testutil.DecodeJSON[dto.ErrorResponse](t, resp.Body).Error)

	resp = doJSON(t, srv, http.MethodPut, "/records/"+id, `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/records", "")
	remaining := testutil.DecodeJSON[[]map[string]any](t, resp.Body)
	require.Len(t, remaining, 1)
	assert.Equal(t, "older", remaining[0]["id"])
}

func TestRecords_EqualCreatedAtKeepsInsertionOrder(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"SEED_FILE": writeSeed(t, `
- {id: a, createdAt: 1000}
- {id: b, createdAt: 1000}
- {id: c, createdAt: 2000}
- {id: d, createdAt: 1000}
`),
	})

	resp := doJSON(t, srv, http.MethodGet, "/records", "")
	list := testutil.DecodeJSON[[]map[string]any](t, resp.Body)

	var ids []any
	for _, rec := range list {
		ids = append(ids, rec["id"])
	}
	assert.Equal(t, []any{"c", "a", "b", "d"}, ids)
}

func TestRecords_BadBodies(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, body := range []string{`[]`, `"x"`, `12`, `{"a":`} {
		resp := doJSON(t, srv, http.MethodPost, "/records", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", body)
	}
}

func TestRecords_BodyLimit(t *testing.T) {
	srv := newTestServer(t, nil)

	const limit = 2 * 1024 * 1024
	padding := strings.Repeat("x", limit)

	resp := doJSON(t, srv, http.MethodPost, "/records", `{"blob":"`+padding+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	justUnder := `{"blob":"` + strings.Repeat("x", limit-len(`{"blob":""}`)) + `"}`
	resp = doJSON(t, srv, http.MethodPost, "/records", justUnder)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRecords_MillisIDs(t *testing.T) {
	srv := newTestServer(t, map[string]string{"RECORD_ID_FORMAT": config.IDFormatMillis})

	resp := doJSON(t, srv, http.MethodPost, "/records", `{}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&created))

	ms, err := created["createdAt"].(json.Number).Int64()
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(ms, 10), created["id"])
}

func TestRecords_ConcurrentCreates(t *testing.T) {
	srv := newTestServer(t, map[string]string{"RECORD_ID_FORMAT": config.IDFormatULID})

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/records", strings.NewReader(`{"i":`+strconv.Itoa(i)+`}`))
			resp, err := srv.Client().Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			var rec map[string]any
			if json.NewDecoder(resp.Body).Decode(&rec) == nil {
				ids <- rec["id"].(string)
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	resp := doJSON(t, srv, http.MethodGet, "/records", "")
	assert.Len(t, testutil.DecodeJSON[[]map[string]any](t, resp.Body), n)
}

func TestUpload(t *testing.T) {
	srv := newTestServer(t, nil)

	body, contentType := testutil.MultipartBody(t, testutil.Part{
		Field:       "file",
		Filename:    "hello.txt",
		ContentType: "text/plain",
		Content:     []byte("hello world"),
	})
	resp := do(t, srv, http.MethodPost, "/upload", contentType, body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	uploaded := testutil.DecodeJSON[dto.UploadResponse](t, resp.Body)
	assert.Equal(t, dto.UploadResponse{Filename: "hello.txt", Size: 11, Mimetype: "text/plain"}, uploaded)
}

func TestUpload_Errors(t *testing.T) {
	srv := newTestServer(t, map[string]string{"UPLOAD_MAX_BYTES": "1024"})

	resp := do(t, srv, http.MethodPost, "/upload", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file is required", testutil.DecodeJSON[dto.ErrorResponse](t, resp.Body).Error)

	body, contentType := testutil.MultipartBody(t, testutil.Part{
		Field:    "file",
		Filename: "big.bin",
		Content:  bytes.Repeat([]byte{0xff}, 4096),
	})
	resp = do(t, srv, http.MethodPost, "/upload", contentType, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "request body exceeds 1.0 KiB", testutil.DecodeJSON[dto.ErrorResponse](t, resp.Body).Error)
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodPost, "/health"},
		{http.MethodPatch, "/records/abc"},
		{http.MethodGet, "/records/abc"},
		{http.MethodGet, "/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := doJSON(t, srv, tt.method, tt.path, "")

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
			got := testutil.DecodeJSON[dto.NotFoundResponse](t, resp.Body)
			assert.Equal(t, dto.NotFoundResponse{Error: "Not found", Path: tt.path}, got)
		})
	}
}

func TestRouting_HeadAndTrailingSlash(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, srv, http.MethodHead, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp = do(t, srv, http.MethodHead, "/records", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/health/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", testutil.DecodeJSON[dto.HealthResponse](t, resp.Body).Status)

	resp = doJSON(t, srv, http.MethodPost, "/records/", `{"title":"slash"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/records", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/records", `{}`)

	resp := doJSON(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mockapi_records 1")
	assert.Contains(t, string(body), `mockapi_record_operations_total{operation="create"} 1`)
}

func TestMetrics_Disabled(t *testing.T) {
	srv := newTestServer(t, map[string]string{"METRICS_ENABLED": "false"})

	resp := doJSON(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSeedFile(t *testing.T) {
	srv := newTestServer(t, map[string]string{"SEED_FILE": testutil.Fixture(t, "seed.yaml")})

	resp := doJSON(t, srv, http.MethodGet, "/records", "")
	list := testutil.DecodeJSON[[]map[string]any](t, resp.Body)

	require.Len(t, list, 3)
	assert.Equal(t, "Generated id", list[0]["title"])
	assert.Equal(t, "seed-settings", list[1]["id"])
	assert.Equal(t, "seed-welcome", list[2]["id"])
	assert.EqualValues(t, 1700000000000, list[2]["createdAt"])
}

func TestNewApp_BadSeedFile(t *testing.T) {
	t.Setenv("SEED_FILE", "/does/not/exist.yaml")
	cfg, err := config.Parse()
	require.NoError(t, err)

	_, err = newApp(context.Background(), cfg, testutil.DiscardLogger())
	assert.Error(t, err)
}

func TestNewApp_SeedNotEncodableAsJSON(t *testing.T) {
	for name, content := range map[string]string{
		"non-string keys": "- title: ok\n  meta:\n    1: one\n",
		"nan":             "- title: ok\n  score: .nan\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SEED_FILE", writeSeed(t, content))
			cfg, err := config.Parse()
			require.NoError(t, err)

			_, err = newApp(context.Background(), cfg, testutil.DiscardLogger())
			assert.ErrorIs(t, err, seed.ErrInvalidFixture)
		})
	}
}

func TestWebhookDelivery(t *testing.T) {
	type delivery struct {
		event     string
		signature string
		body      []byte
	}
	received := make(chan delivery, 4)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- delivery{
			event:     r.Header.Get(webhook.HeaderEventType),
			signature: r.Header.Get(webhook.HeaderSignature),
			body:      body,
		}
	}))
	t.Cleanup(receiver.Close)

	for k, v := range map[string]string{
		"WEBHOOK_URL":            receiver.URL,
		"WEBHOOK_SECRET":         "0123456789abcdef",
		"WEBHOOK_ALLOW_INSECURE": "true",
	} {
		t.Setenv(k, v)
	}
	cfg, err := config.Parse()
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, testutil.DiscardLogger())
	require.NoError(t, err)
	require.NotNil(t, a.webhooks)
	a.webhooks.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.webhooks.Shutdown(ctx)
	})

	srv := httptest.NewServer(a.router)
	t.Cleanup(srv.Close)

	resp := doJSON(t, srv, http.MethodPost, "/records", `{"title":"hooked"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	select {
	case d := <-received:
		assert.Equal(t, "record.created", d.event)
		assert.NotEmpty(t, d.signature)
		assert.Contains(t, string(d.body), `"title":"hooked"`)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestNewApp_RejectsPrivateWebhookTarget(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "http://127.0.0.1:9/hook")
	t.Setenv("WEBHOOK_SECRET", "0123456789abcdef")
	cfg, err := config.Parse()
	require.NoError(t, err)

	_, err = newApp(context.Background(), cfg, testutil.DiscardLogger())
	assert.ErrorIs(t, err, webhook.ErrInvalidScheme)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}
