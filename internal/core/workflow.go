package core

// workflow.go holds the per-session state machine.
//
//	Idle --select--> FilesSelected --submit--> Uploading --ok--> Reviewing
//	Uploading --fail--> FilesSelected (Idle when the selection was cleared)
//	Reviewing --edit--> Reviewing
//	Reviewing --export--> Exporting --ok|fail--> Reviewing
//	FilesSelected --select(empty)--> Idle (Reviewing when a dataset is held)
//
// The mutex is never held across a round trip. While a round trip is in
// flight the state is Uploading or Exporting, which is what blocks a second
// submit or export for the same session.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/dutysummary/internal/logging"
)

// WorkflowState is the controller's current phase.
type WorkflowState string

const (
	StateIdle          WorkflowState = "idle"
	StateFilesSelected WorkflowState = "files_selected"
	StateUploading     WorkflowState = "uploading"
	StateReviewing     WorkflowState = "reviewing"
	StateExporting     WorkflowState = "exporting"
)

// Busy reports whether a round trip is in flight in this state.
func (s WorkflowState) Busy() bool {
	return s == StateUploading || s == StateExporting
}

// FileSummary describes one selected file without its content.
type FileSummary struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	SessionID   string         `json:"sessionId"`
	State       WorkflowState  `json:"state"`
	Busy        bool           `json:"busy"`
	Files       []FileSummary  `json:"files"`
	Dataset     *ReportDataset `json:"dataset,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorCode   string         `json:"errorCode,omitempty"`
}

// HasDataset reports whether an upload has succeeded in this session.
func (s Snapshot) HasDataset() bool {
	return s.Dataset != nil
}

// Controller is the workflow state machine for one browser session.
type Controller struct {
	id      string
	uploads *UploadOrchestrator
	exports *ExportOrchestrator
	audit   AuditRecorder

	mu         sync.Mutex
	state      WorkflowState
	resume     WorkflowState // state to restore when an export finishes
	files      SelectedFileSet
	dataset    *ReportDataset
	err        error // the single error slot
	lastActive time.Time
}

// NewController creates a controller in Idle. A nil recorder discards events.
func NewController(id string, uploads *UploadOrchestrator, exports *ExportOrchestrator, audit AuditRecorder) *Controller {
	if audit == nil {
		audit = NopRecorder{}
	}
	return &Controller{
		id:         id,
		uploads:    uploads,
		exports:    exports,
		audit:      audit,
		state:      StateIdle,
		files:      SelectedFileSet{},
		lastActive: time.Now(),
	}
}

// ID returns the session ID the controller was created with.
func (c *Controller) ID() string {
	return c.id
}

// LastActive returns when a command last ran.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnFilesSelected replaces the selection. Selection warnings go to the error
// slot; they never block the remaining files. While a round trip is in
// flight the files are replaced but the state is left alone.
func (c *Controller) OnFilesSelected(raw []FileHandle) Snapshot {
	result := SelectFiles(raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()

	c.files = result.Files
	c.err = nil
	if msg := result.Message(); msg != nil {
		c.err = msg
	}

	switch c.state {
	case StateUploading:
	case StateExporting:
		c.resume = c.restingStateLocked()
	default:
		c.state = c.restingStateLocked()
	}
	return c.snapshotLocked()
}

// OnSubmit uploads the current selection. Validation failures and upload
// failures land in the error slot and are also returned. A submit while busy
// returns ErrBusy and changes nothing.
func (c *Controller) OnSubmit(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	c.touchLocked()
	if c.state.Busy() {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrBusy
	}
	if err := ValidateForSubmit(c.files); err != nil {
		c.err = err
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	files := c.files
	c.state = StateUploading
	c.err = nil
	c.mu.Unlock()

	logger := logging.WithFields(ctx, "files", len(files))
	logger.Info("upload started", "names", files.Names())
	started := time.Now()

	d, err := c.uploads.Upload(ctx, files)

	c.mu.Lock()
	c.touchLocked()
	if err != nil {
		c.err = err
		if len(c.files) > 0 {
			c.state = StateFilesSelected
		} else {
			c.state = StateIdle
		}
	} else {
		c.dataset = d
		c.state = StateReviewing
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	ev := newAuditEvent(ctx, c.id, ActionUpload, err, started)
	ev.Files = files.Names()
	if err != nil {
		logger.Warn("upload failed", "error", err, "duration_ms", time.Since(started).Milliseconds())
	} else {
		ev.Rows = len(d.Rows)
		ev.Fingerprint = snap.Fingerprint
		logger.Info("upload completed", "rows", len(d.Rows), "duration_ms", time.Since(started).Milliseconds())
	}
	c.record(ctx, ev)

	return snap, err
}

// OnCellEdit sets one field of one row and recomputes the totals.
// Numeric fields coerce non-numeric input to 0.
func (c *Controller) OnCellEdit(index int, field Field, raw string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()

	if c.state.Busy() {
		return c.snapshotLocked(), ErrBusy
	}
	next, err := ApplyEdit(c.dataset, index, field, raw)
	if err != nil {
		return c.snapshotLocked(), err
	}
	c.dataset = next
	return c.snapshotLocked(), nil
}

// OnProblemsChange replaces the problems summary. Totals are not touched.
func (c *Controller) OnProblemsChange(text string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked()

	if c.state.Busy() {
		return c.snapshotLocked(), ErrBusy
	}
	next, err := WithProblems(c.dataset, text)
	if err != nil {
		return c.snapshotLocked(), err
	}
	c.dataset = next
	return c.snapshotLocked(), nil
}

// OnExport renders the current dataset. On failure the error slot is set and
// the dataset is untouched. Either way the controller returns to the state it
// was in before the export.
func (c *Controller) OnExport(ctx context.Context) (*Artifact, Snapshot, error) {
	c.mu.Lock()
	c.touchLocked()
	if c.state.Busy() {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return nil, snap, ErrBusy
	}
	if c.dataset == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return nil, snap, ErrNoDataset
	}
	d := c.dataset.Clone()
	c.resume = c.state
	c.state = StateExporting
	c.mu.Unlock()

	started := time.Now()
	art, err := c.exports.Export(ctx, d)

	c.mu.Lock()
	c.touchLocked()
	c.state = c.resume
	c.resume = ""
	if err != nil {
		c.err = err
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	ev := newAuditEvent(ctx, c.id, ActionExport, err, started)
	ev.Rows = len(d.Rows)
	ev.Fingerprint = Fingerprint(d)
	if err != nil {
		logging.FromContext(ctx).Warn("export failed", "error", err)
	}
	c.record(ctx, ev)

	return art, snap, err
}

func (c *Controller) record(ctx context.Context, ev AuditEvent) {
	if err := c.audit.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Error("audit record failed",
			slog.String("action", string(ev.Action)),
			slog.Any("error", err),
		)
	}
}

// restingStateLocked is the non-busy state implied by the held selection
// and dataset.
func (c *Controller) restingStateLocked() WorkflowState {
	switch {
	case len(c.files) > 0:
		return StateFilesSelected
	case c.dataset != nil:
		return StateReviewing
	default:
		return StateIdle
	}
}

func (c *Controller) touchLocked() {
	c.lastActive = time.Now()
}

func (c *Controller) snapshotLocked() Snapshot {
	files := make([]FileSummary, len(c.files))
	for i, f := range c.files {
		files[i] = FileSummary{Name: f.Name, Size: f.Size()}
	}
	snap := Snapshot{
		SessionID: c.id,
		State:     c.state,
		Busy:      c.state.Busy(),
		Files:     files,
		Dataset:   c.dataset.Clone(),
	}
	if c.dataset != nil {
		snap.Fingerprint = Fingerprint(c.dataset)
	}
	if c.err != nil {
		snap.Error = c.err.Error()
		snap.ErrorCode = MapError(c.err).Code
	}
	return snap
}
