package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dutysummary/internal/config"
	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/docservice"
)

const twoRowBody = `{
  "rows": [
    {"值班助理":"张三","日期":"3月1日","上书量":10,"纠错量":2,"整架范围":"A1-A3","工作地点":"一楼"},
    {"值班助理":"李四","日期":"3月2日","上书量":5,"纠错量":1,"整架范围":"B1","工作地点":"二楼"}
  ],
  "totals": {"总人数":2,"总班次":2,"上书量合计":15,"纠错量合计":3},
  "problems": "部分书架标签缺失"
}`

var fakeDocx = []byte("PK\x03\x04fake-docx")

// fakeDocService mimics the document service. uploadStatus and exportStatus
// switch the endpoints to error answers.
type fakeDocService struct {
	uploadStatus atomic.Int32
	exportStatus atomic.Int32
	uploads      atomic.Int32
	lastExport   atomic.Value // []byte
}

func (f *fakeDocService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/upload":
		f.uploads.Add(1)
		if status := int(f.uploadStatus.Load()); status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail":"文档格式无法识别"}`)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil || len(r.MultipartForm.File[docservice.FilesField]) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"no files"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, twoRowBody)
	case "/export":
		body, _ := io.ReadAll(r.Body)
		f.lastExport.Store(body)
		if status := int(f.exportStatus.Load()); status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail":"模板缺失"}`)
			return
		}
		w.Header().Set("Content-Type", core.DocxContentType)
		_, _ = w.Write(fakeDocx)
	default:
		http.NotFound(w, r)
	}
}

const testAPIKey = "test-api-key"

// apiRequest builds a request to an /api endpoint carrying the test key.
func apiRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-API-Key", testAPIKey)
	return req
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 10 * time.Second
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.MaxRequestSize = 4 << 20
	cfg.Export.Filename = core.DefaultExportFilename
	cfg.Export.DownloadTTL = time.Minute
	cfg.Session.CookieName = "sid"
	cfg.Session.TTL = time.Hour
	cfg.Session.MaxSessions = 100
	cfg.Security.EnableCSP = true
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{testAPIKey}
	return cfg
}

type stubAuditLog struct {
	events []core.AuditEvent
}

func (s *stubAuditLog) Recent(_ context.Context, limit int) ([]core.AuditEvent, error) {
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func newTestServer(t *testing.T, auditLog AuditLog) (*Server, *fakeDocService) {
	t.Helper()

	fake := &fakeDocService{}
	doc := httptest.NewServer(fake)
	t.Cleanup(doc.Close)

	client := docservice.New(doc.URL, 5*time.Second)
	limiter := core.NewLimiter(2, time.Second)
	uploads := core.NewUploadOrchestrator(client, limiter)
	exports := core.NewExportOrchestrator(client, limiter, core.DefaultExportFilename)

	s := NewServer(testConfig(), limiter, func(id string) *core.Controller {
		return core.NewController(id, uploads, exports, nil)
	}, auditLog)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, fake
}

// browser replays the session cookie on every request.
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) open() *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, "/", nil))
}

func (b *browser) selectFiles(files map[string]string, headers map[string]string) *httptest.ResponseRecorder {
	b.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(docservice.FilesField, name)
		require.NoError(b.t, err)
		_, err = io.WriteString(part, content)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/select", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return b.do(req)
}

func (b *browser) postJSON(path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(b.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(http.MethodPost, path, r)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return b.do(req)
}

func (b *browser) postForm(path string, form string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) core.Snapshot {
	t.Helper()
	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap), rec.Body.String())
	return snap
}

var jsonAccept = map[string]string{"Accept": "application/json"}

func reviewingBrowser(t *testing.T, s *Server) *browser {
	t.Helper()
	b := &browser{t: t, h: s.Router()}
	b.open()
	b.selectFiles(map[string]string{"1.docx": "one"}, jsonAccept)
	rec := b.postJSON("/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return b
}

func TestServer_FullWorkflow(t *testing.T) {
	s, fake := newTestServer(t, nil)
	b := &browser{t: t, h: s.Router()}

	rec := b.open()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "图书管理督导工作汇总系统")
	require.NotNil(t, b.cookie)
	assert.True(t, b.cookie.HttpOnly)

	rec = b.selectFiles(map[string]string{"a.docx": "doc", "notes.txt": "txt"}, jsonAccept)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, core.StateFilesSelected, snap.State)
	assert.Equal(t, []core.FileSummary{{Name: "a.docx", Size: 3}}, snap.Files)
	assert.Equal(t, "SEL001", snap.ErrorCode)

	rec = b.postJSON("/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decodeSnapshot(t, rec)
	assert.Equal(t, core.StateReviewing, snap.State)
	assert.Empty(t, snap.Error)
	require.NotNil(t, snap.Dataset)
	assert.Equal(t, core.ReportTotals{Assistants: 2, Shifts: 2, Shelving: 15, Corrections: 3}, snap.Dataset.Totals)

	rec = b.postJSON("/rows/0", editRequest{Field: "shelving", Value: "abc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decodeSnapshot(t, rec)
	assert.Equal(t, 5, snap.Dataset.Totals.Shelving)

	rec = b.postJSON("/problems", problemsRequest{Problems: "无"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "无", decodeSnapshot(t, rec).Dataset.Problems)

	rec = b.postJSON("/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var exp ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exp))
	assert.Equal(t, core.DefaultExportFilename, exp.Filename)
	assert.Equal(t, len(fakeDocx), exp.Size)
	assert.True(t, strings.HasPrefix(exp.DownloadURL, "/download/"))

	sent, _ := fake.lastExport.Load().([]byte)
	assert.Contains(t, string(sent), `"problems":"无"`)
	assert.Contains(t, string(sent), `"上书量合计":5`)

	rec = b.do(httptest.NewRequest(http.MethodGet, exp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fakeDocx, rec.Body.Bytes())
	assert.Equal(t, core.DocxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filename*=UTF-8''")

	// One-shot
	rec = b.do(httptest.NewRequest(http.MethodGet, exp.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = b.do(httptest.NewRequest(http.MethodGet, "/snapshot.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestServer_SessionRequired(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Accept", "application/json")
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SES001", body.Code)
}

func TestServer_ReloadStartsOver(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := reviewingBrowser(t, s)
	old := b.cookie

	b.open()
	assert.NotEqual(t, old.Value, b.cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Accept", "application/json")
	rec := b.do(req)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, core.StateIdle, snap.State)
	assert.Nil(t, snap.Dataset)

	stale := httptest.NewRequest(http.MethodGet, "/state", nil)
	stale.Header.Set("Accept", "application/json")
	stale.AddCookie(old)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, stale)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestServer_SubmitEmptySelection(t *testing.T) {
	s, fake := newTestServer(t, nil)
	b := &browser{t: t, h: s.Router()}
	b.open()

	rec := b.postJSON("/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "SEL003", snap.ErrorCode)
	assert.Equal(t, int32(0), fake.uploads.Load())
}

func TestServer_UploadFailure(t *testing.T) {
	s, fake := newTestServer(t, nil)
	fake.uploadStatus.Store(http.StatusUnprocessableEntity)
	b := &browser{t: t, h: s.Router()}
	b.open()
	b.selectFiles(map[string]string{"1.docx": "one"}, jsonAccept)

	t.Run("json", func(t *testing.T) {
		rec := b.postJSON("/submit", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		snap := decodeSnapshot(t, rec)
		assert.Equal(t, core.StateFilesSelected, snap.State)
		assert.Equal(t, "upload failed: 文档格式无法识别", snap.Error)
		assert.Equal(t, "UPL001", snap.ErrorCode)
		assert.Len(t, snap.Files, 1)
	})

	t.Run("htmx renders the error slot", func(t *testing.T) {
		rec := b.postForm("/submit", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, `<section id="workflow"`))
		assert.Contains(t, body, "文档格式无法识别")
		assert.Contains(t, body, `role="alert"`)
	})
}

func TestServer_EditErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := reviewingBrowser(t, s)

	tests := []struct {
		name string
		path string
		body editRequest
		code string
	}{
		{"index out of range", "/rows/9", editRequest{Field: "shelving", Value: "1"}, "REV002"},
		{"non-numeric index", "/rows/x", editRequest{Field: "shelving", Value: "1"}, "REV002"},
		{"unknown field", "/rows/0", editRequest{Field: "totals", Value: "1"}, "REV002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := b.postJSON(tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}

	t.Run("form edit over htmx", func(t *testing.T) {
		rec := b.postForm("/rows/1", "field=correction&value=4", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<strong>6</strong>")
	})

	t.Run("htmx error goes to the flash area", func(t *testing.T) {
		rec := b.postForm("/rows/7", "field=shelving&value=1", true)
		// htmx discards non-2xx bodies, so the partial must arrive as 200
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "#flash", rec.Header().Get("HX-Retarget"))
		assert.Equal(t, "innerHTML", rec.Header().Get("HX-Reswap"))
		assert.Contains(t, rec.Body.String(), "REV002")
	})
}

func TestServer_ExportWithoutDataset(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := &browser{t: t, h: s.Router()}
	b.open()

	rec := b.postJSON("/export", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.do(httptest.NewRequest(http.MethodGet, "/snapshot.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ExportFailureKeepsDataset(t *testing.T) {
	s, fake := newTestServer(t, nil)
	b := reviewingBrowser(t, s)
	fake.exportStatus.Store(http.StatusInternalServerError)

	rec := b.postJSON("/export", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, core.StateReviewing, snap.State)
	assert.Equal(t, "EXP001", snap.ErrorCode)
	assert.NotNil(t, snap.Dataset)
	assert.Equal(t, 0, s.downloads.Len())
}

func TestServer_ExportDelivery(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := reviewingBrowser(t, s)

	t.Run("htmx gets HX-Redirect", func(t *testing.T) {
		rec := b.postForm("/export", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/download/"))
	})

	t.Run("plain form gets a redirect", func(t *testing.T) {
		rec := b.postForm("/export", "", false)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/download/"))
	})

	t.Run("download is bound to its session", func(t *testing.T) {
		rec := b.postJSON("/export", nil)
		var exp ExportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exp))

		other := &browser{t: t, h: s.Router()}
		other.open()
		rec = other.do(httptest.NewRequest(http.MethodGet, exp.DownloadURL, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = b.do(httptest.NewRequest(http.MethodGet, exp.DownloadURL, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestServer_SelectTooLarge(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := &browser{t: t, h: s.Router()}
	b.open()

	big := strings.Repeat("x", int(s.cfg.Upload.MaxFileSize)+1)
	rec := b.selectFiles(map[string]string{"big.docx": big}, jsonAccept)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SEL004", body.Code)
}

func TestServer_SelectRendersPartialForHTMX(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := &browser{t: t, h: s.Router()}
	b.open()

	rec := b.selectFiles(map[string]string{"周报<1>.docx": "doc"}, map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<!doctype html>")
	assert.Contains(t, body, "周报&lt;1&gt;.docx")
	assert.Contains(t, body, `data-state="files_selected"`)
}

func TestServer_StatusAndHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	b := &browser{t: t, h: s.Router()}
	b.open()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, apiRequest("/api/status"))
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Sessions)
	assert.Equal(t, 2, status.RoundTrips.MaxConcurrent)
	assert.False(t, status.Audit)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
}

func TestServer_AuditLog(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, apiRequest("/api/audit"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("recent events", func(t *testing.T) {
		log := &stubAuditLog{events: []core.AuditEvent{
			{SessionTag: "a", Action: core.ActionUpload, Outcome: core.OutcomeSuccess},
			{SessionTag: "a", Action: core.ActionExport, Outcome: core.OutcomeFailure},
		}}
		s, _ := newTestServer(t, log)

		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, apiRequest("/api/audit?limit=1"))
		require.Equal(t, http.StatusOK, rec.Code)
		var events []core.AuditEvent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		require.Len(t, events, 1)
		assert.Equal(t, core.ActionUpload, events[0].Action)
	})

	t.Run("requires an API key", func(t *testing.T) {
		s, _ := newTestServer(t, &stubAuditLog{})
		b := &browser{t: t, h: s.Router()}
		b.open()

		// a session cookie is not an API credential
		rec := b.do(httptest.NewRequest(http.MethodGet, "/api/audit", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec = httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{core.ErrBusy, http.StatusConflict},
		{&core.UploadFailedError{Detail: "x"}, http.StatusBadGateway},
		{&core.ExportFailedError{Detail: "x"}, http.StatusBadGateway},
		{core.ErrEmptySelection, http.StatusBadRequest},
		{core.ErrTooManyFiles, http.StatusBadRequest},
		{core.ErrUnknownField, http.StatusBadRequest},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), "%v", tt.err)
	}
}

func TestSnapshotFilename(t *testing.T) {
	assert.Equal(t, "督导工作情况汇总.xlsx", snapshotFilename("督导工作情况汇总.docx"))
	assert.Equal(t, "summary.xlsx", snapshotFilename("summary"))
}
