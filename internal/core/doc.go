// Package core provides the workflow logic for the duty-roster summary system.
//
// This package holds the domain model and the per-session state machine,
// independent of any UI or transport layer. The web handlers drive it, and
// tests construct a fresh [Controller] per case with a fake [DocumentService].
//
// # Architecture
//
//   - Selection: [SelectFiles] filters a raw selection to at most [MaxFiles]
//     .docx files, raising non-fatal [SelectionError] warnings.
//   - Upload: [UploadOrchestrator] validates the selection, performs one parse
//     round trip and decodes the [ReportDataset].
//   - Recompute: [ApplyEdit] changes one field of one row and recomputes
//     [ReportTotals] over all rows. Totals are never patched incrementally.
//   - Export: [ExportOrchestrator] sends the dataset back and returns an
//     [Artifact] to be downloaded under a fixed filename.
//   - Workflow: [Controller] composes the above and owns the error slot.
//
// # Round Trips
//
// Uploads and exports share one [Limiter] so that the number of concurrent
// calls to the document service stays bounded across sessions. A caller that
// cannot get a slot within the limiter's wait fails the round trip with
// [ErrServiceBusy]. Round trips are all-or-nothing: a failed upload leaves no
// partial dataset, a failed export leaves the dataset untouched.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SEL001-SEL004: Selection errors (file type, count, size)
//   - UPL001-UPL002: Upload errors (service failure, busy)
//   - REV001-REV002: Review errors (no dataset, invalid cell)
//   - EXP001-EXP002: Export errors (render failure, expired download)
//
// # Audit Logging
//
// Every upload and export outcome is passed to an [AuditRecorder] with the
// session ID, request IP and user agent, row count and dataset [Fingerprint].
// Recorder failures are logged and never fail the workflow.
package core
