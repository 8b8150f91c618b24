package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/dutysummary/internal/logging"
)

// DefaultExportFilename is the fixed name the summary document is saved under.
const DefaultExportFilename = "督导工作情况汇总.docx"

// DocxContentType is the MIME type of generated documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Artifact is a generated document held until the browser fetches it.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
	Fingerprint string // Fingerprint of the dataset it was rendered from
	CreatedAt   time.Time
}

// ExportOrchestrator sends a dataset to the service and returns the document.
type ExportOrchestrator struct {
	svc      DocumentService
	limiter  *Limiter
	filename string
}

// NewExportOrchestrator creates an orchestrator. An empty filename falls back
// to DefaultExportFilename.
func NewExportOrchestrator(svc DocumentService, limiter *Limiter, filename string) *ExportOrchestrator {
	if limiter == nil {
		limiter = NewLimiter(DefaultMaxRoundTrips, DefaultMaxWait)
	}
	if filename == "" {
		filename = DefaultExportFilename
	}
	return &ExportOrchestrator{svc: svc, limiter: limiter, filename: filename}
}

// Export renders d. The dataset is only read; a failure leaves it exactly
// as it was so the user can retry. Every failure is *ExportFailedError,
// except a nil dataset which returns ErrNoDataset.
func (o *ExportOrchestrator) Export(ctx context.Context, d *ReportDataset) (*Artifact, error) {
	if d == nil {
		return nil, ErrNoDataset
	}

	payload := d.Clone()
	fingerprint := Fingerprint(payload)
	logger := logging.WithFields(ctx, "rows", len(payload.Rows), "fingerprint", fingerprint)
	logger.Debug("export started")

	var (
		body        []byte
		contentType string
	)
	err := o.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		body, contentType, err = o.svc.Render(ctx, payload)
		return err
	})
	if err != nil {
		return nil, &ExportFailedError{Detail: failureDetail(err), Err: err}
	}
	if len(body) == 0 {
		return nil, &ExportFailedError{Detail: "empty document", Err: errors.New("render returned empty body")}
	}
	if contentType == "" {
		contentType = DocxContentType
	}

	logger.Info("export rendered", "bytes", len(body))
	return &Artifact{
		Filename:    o.filename,
		ContentType: contentType,
		Body:        body,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}, nil
}
