package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/docservice"
	"github.com/JonMunkholm/dutysummary/internal/logging"
	"github.com/JonMunkholm/dutysummary/internal/spreadsheet"
	"github.com/JonMunkholm/dutysummary/internal/web/templates"
)

// multipartMemory is how much of a selection ParseMultipartForm keeps in
// memory before spilling to temp files.
const multipartMemory = 32 << 20

// handleIndex starts a fresh session and renders the page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}

	c, err := s.sessions.Create()
	if err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	s.setSessionCookie(w, c.ID())

	ctx := logging.WithSessionID(r.Context(), core.SessionTag(c.ID()))
	logging.FromContext(ctx).Debug("session started", "sessions", s.sessions.Len())

	s.renderWorkflow(w, r.WithContext(ctx), c.Snapshot(), nil)
}

// handleState returns the current snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.renderWorkflow(w, r, controllerFrom(r.Context()).Snapshot(), nil)
}

// handleSelect replaces the file selection with the posted files.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: request exceeds %d bytes", errSelectionTooBig, tooBig.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidForm, err), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[docservice.FilesField]
	raw := make([]core.FileHandle, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > s.cfg.Upload.MaxFileSize {
			s.respondError(w, r, fmt.Errorf("%w: %s exceeds %d bytes", errSelectionTooBig, fh.Filename, s.cfg.Upload.MaxFileSize), http.StatusRequestEntityTooLarge)
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, r, fmt.Errorf("open %s: %w", fh.Filename, err), http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.respondError(w, r, fmt.Errorf("read %s: %w", fh.Filename, err), http.StatusBadRequest)
			return
		}
		raw = append(raw, core.FileHandle{Name: fh.Filename, Content: content})
	}

	snap := c.OnFilesSelected(raw)
	logging.FromContext(r.Context()).Debug("files selected",
		"received", len(raw),
		"kept", len(snap.Files),
		"warning", snap.Error,
	)
	s.renderWorkflow(w, r, snap, nil)
}

// handleSubmit uploads the current selection to the document service.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())

	snap, err := c.OnSubmit(WithRequestMetadata(r.Context(), r))
	if errors.Is(err, core.ErrBusy) {
		s.respondError(w, r, err, http.StatusConflict)
		return
	}
	s.renderWorkflow(w, r, snap, err)
}

type editRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleEditRow sets one field of one row.
func (s *Server) handleEditRow(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())

	rawIndex := chi.URLParam(r, "index")
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrRowOutOfRange, rawIndex), http.StatusBadRequest)
		return
	}

	var req editRequest
	if err := decodeCommand(r, &req, func() {
		req.Field = r.FormValue("field")
		req.Value = r.FormValue("value")
	}); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	snap, err := c.OnCellEdit(index, core.Field(req.Field), req.Value)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}
	s.renderWorkflow(w, r, snap, nil)
}

type problemsRequest struct {
	Problems string `json:"problems"`
}

// handleProblems replaces the problems summary.
func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())

	var req problemsRequest
	if err := decodeCommand(r, &req, func() {
		req.Problems = r.FormValue("problems")
	}); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	snap, err := c.OnProblemsChange(req.Problems)
	if err != nil {
		s.respondError(w, r, err, statusForError(err))
		return
	}
	s.renderWorkflow(w, r, snap, nil)
}

// ExportResponse is the JSON answer to a successful export.
type ExportResponse struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	Fingerprint string `json:"fingerprint"`
}

// handleExport renders the dataset and hands the browser a one-shot
// download link.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())

	art, snap, err := c.OnExport(WithRequestMetadata(r.Context(), r))
	switch {
	case errors.Is(err, core.ErrBusy):
		s.respondError(w, r, err, http.StatusConflict)
		return
	case errors.Is(err, core.ErrNoDataset):
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	case err != nil:
		s.renderWorkflow(w, r, snap, err)
		return
	}

	token := s.downloads.Put(c.ID(), art)
	downloadURL := "/download/" + token
	logging.WithFields(r.Context(), "fingerprint", art.Fingerprint, "bytes", len(art.Body)).
		Info("export ready")

	switch {
	case isHTMX(r):
		w.Header().Set("HX-Redirect", downloadURL)
		w.WriteHeader(http.StatusOK)
	case wantsJSON(r):
		writeJSON(w, r, http.StatusOK, ExportResponse{
			DownloadURL: downloadURL,
			Filename:    art.Filename,
			Size:        len(art.Body),
			Fingerprint: art.Fingerprint,
		})
	default:
		http.Redirect(w, r, downloadURL, http.StatusSeeOther)
	}
}

// handleDownload serves an export artifact once.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())

	art, ok := s.downloads.Take(chi.URLParam(r, "token"), c.ID())
	if !ok {
		s.respondError(w, r, errDownloadNotFound, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(art.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(art.Body); err != nil {
		logging.FromContext(r.Context()).Warn("download write failed", "error", err)
	}
}

// handleSnapshot returns the reviewed dataset as a spreadsheet.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := controllerFrom(r.Context()).Snapshot()
	if !snap.HasDataset() {
		s.respondError(w, r, core.ErrNoDataset, http.StatusNotFound)
		return
	}

	body, err := spreadsheet.Render(snap.Dataset)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(snapshotFilename(s.cfg.Export.Filename)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

// renderWorkflow writes the snapshot as JSON, an htmx partial or the full
// page. For HTML the error slot is part of the view, so the status is 200.
func (s *Server) renderWorkflow(w http.ResponseWriter, r *http.Request, snap core.Snapshot, err error) {
	if wantsJSON(r) && !isHTMX(r) {
		writeJSON(w, r, statusForError(err), snap)
		return
	}

	v := templates.View{Snapshot: snap, MaxFiles: core.MaxFiles}
	if snap.Error != "" {
		v.Message = core.MapError(errors.New(snap.Error))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var renderErr error
	if isHTMX(r) {
		renderErr = templates.Workflow(v).Render(r.Context(), w)
	} else {
		renderErr = templates.Page(v).Render(r.Context(), w)
	}
	if renderErr != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", renderErr)
	}
}

// statusForError maps a workflow error to an HTTP status for JSON clients.
func statusForError(err error) int {
	var uploadErr *core.UploadFailedError
	var exportErr *core.ExportFailedError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &uploadErr), errors.As(err, &exportErr):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrEmptySelection),
		errors.Is(err, core.ErrTooManyFiles),
		errors.Is(err, core.ErrNoDataset),
		errors.Is(err, core.ErrRowOutOfRange),
		errors.Is(err, core.ErrUnknownField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeCommand reads a JSON body into v, or runs fromForm after parsing a
// form body.
func decodeCommand(r *http.Request, v any, fromForm func()) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
			return fmt.Errorf("%w: %v", errInvalidForm, err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	fromForm()
	return nil
}

// snapshotFilename swaps the export extension for .xlsx.
func snapshotFilename(exportName string) string {
	if i := strings.LastIndex(exportName, "."); i > 0 {
		exportName = exportName[:i]
	}
	return exportName + ".xlsx"
}
