package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetcheck/sheetcheck/internal/config"
	"github.com/sheetcheck/sheetcheck/internal/core"
)

const handlersCSV = "id,amount\n1,10.5\n2,oops\n1,10.5\n"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Inference.AcceptanceThreshold = core.DefaultAcceptanceThreshold
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = testConfig()
	}
	return NewServer(core.NewService(cfg), cfg)
}

// uploadWorkbook posts a multipart upload and decodes the session payload.
func uploadWorkbook(t *testing.T, srv *Server, filename, contents string) core.Payload {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload core.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.SessionID)
	return payload
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestUpload_ReturnsSessionPayload(t *testing.T) {
	srv := newTestServer(nil)
	payload := uploadWorkbook(t, srv, "data.csv", handlersCSV)

	assert.Equal(t, "Sheet1", payload.SheetName)
	assert.Len(t, payload.Columns, 2)
	assert.Len(t, payload.Rows, 3)
	require.Len(t, payload.DuplicateGroups, 1)
	assert.Equal(t, core.DuplicateGroup{0, 2}, payload.DuplicateGroups[0])
}

func TestUpload_NoFile(t *testing.T) {
	srv := newTestServer(nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE003", decodeError(t, rec).Code)
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	srv := newTestServer(nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "data.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestValidate_OverrideFlow(t *testing.T) {
	srv := newTestServer(nil)
	payload := uploadWorkbook(t, srv, "data.csv", handlersCSV)

	rec := postJSON(t, srv, "/api/validate", map[string]any{
		"sessionId":   payload.SessionID,
		"columnTypes": map[string]string{"amount": "float"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got core.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, payload.SessionID, got.SessionID)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, 1, got.Errors[0].RowID)
	assert.Equal(t, "amount", got.Errors[0].Column)
}

func TestValidate_MissingSessionID(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv, "/api/validate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL002", decodeError(t, rec).Code)
}

func TestValidate_UnknownSession(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv, "/api/validate", map[string]any{"sessionId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SES001", decodeError(t, rec).Code)
}

func TestValidate_MalformedBody(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL002", decodeError(t, rec).Code)
}

func TestSwitchSheet_UnknownSheet(t *testing.T) {
	srv := newTestServer(nil)
	payload := uploadWorkbook(t, srv, "data.csv", handlersCSV)

	rec := postJSON(t, srv, "/api/sheet", map[string]any{
		"sessionId": payload.SessionID,
		"sheetName": "Sheet9",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SHT001", decodeError(t, rec).Code)
}

func TestRemoveDuplicates_Renumbers(t *testing.T) {
	srv := newTestServer(nil)
	payload := uploadWorkbook(t, srv, "data.csv", handlersCSV)
	require.Len(t, payload.DuplicateGroups, 1)

	rec := postJSON(t, srv, "/api/duplicates/remove", map[string]any{
		"sessionId": payload.SessionID,
		"rowIds":    []int(payload.DuplicateGroups[0]),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got core.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Rows, 2)
	assert.Empty(t, got.DuplicateGroups)
	for i, row := range got.Rows {
		assert.Equal(t, i, row.RowID)
	}
}

func TestSessionReport_Download(t *testing.T) {
	srv := newTestServer(nil)
	payload := uploadWorkbook(t, srv, "data.csv", handlersCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/report/"+payload.SessionID, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "data_report.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestSessionReport_UnknownSession(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/report/missing", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SES001", decodeError(t, rec).Code)
}

func TestPayloadReport_RequiresRows(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv, "/api/report", map[string]any{"rows": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL002", decodeError(t, rec).Code)
}

func TestPayloadReport_Download(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv, "/api/report", map[string]any{
		"columns": []map[string]any{{"name": "a", "detectedType": "string"}},
		"rows":    []map[string]any{{"rowId": 0, "values": map[string]any{"a": "x"}}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "validation_report.xlsx")
}

func TestExport_Download(t *testing.T) {
	srv := newTestServer(nil)

	rec := postJSON(t, srv, "/api/export", map[string]any{
		"columns": []map[string]any{{"name": "a", "detectedType": "string"}},
		"rows":    []map[string]any{{"rowId": 0, "values": map[string]any{"a": "x"}}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "edited_data.xlsx")
}

func TestRateLimiter_Blocks(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	srv := newTestServer(cfg)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Real-IP", "10.0.0.9")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
