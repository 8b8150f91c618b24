package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonMunkholm/dutysummary/internal/logging"
)

// genericServiceDetail is shown when the service gave no detail of its own.
const genericServiceDetail = "document service request failed"

// DocumentService is the external document-processing service.
//
// Parse posts the files and returns the raw success body; Render posts a
// dataset and returns the generated document. A non-2xx answer is reported
// as *ServiceError, transport failures as any other error.
type DocumentService interface {
	Parse(ctx context.Context, files SelectedFileSet) ([]byte, error)
	Render(ctx context.Context, d *ReportDataset) (body []byte, contentType string, err error)
}

// UploadOrchestrator turns a SelectedFileSet into a ReportDataset.
type UploadOrchestrator struct {
	svc     DocumentService
	limiter *Limiter
}

// NewUploadOrchestrator creates an orchestrator. A nil limiter gets the defaults.
func NewUploadOrchestrator(svc DocumentService, limiter *Limiter) *UploadOrchestrator {
	if limiter == nil {
		limiter = NewLimiter(DefaultMaxRoundTrips, DefaultMaxWait)
	}
	return &UploadOrchestrator{svc: svc, limiter: limiter}
}

// Upload validates the set, performs one parse round trip and decodes the
// result. Validation failures return ErrEmptySelection or ErrTooManyFiles
// before any network call; every round-trip failure returns *UploadFailedError.
func (o *UploadOrchestrator) Upload(ctx context.Context, files SelectedFileSet) (*ReportDataset, error) {
	if err := ValidateForSubmit(files); err != nil {
		return nil, err
	}

	var body []byte
	err := o.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = o.svc.Parse(ctx, files)
		return err
	})
	if err != nil {
		return nil, &UploadFailedError{Detail: failureDetail(err), Err: err}
	}

	d, err := decodeDataset(ctx, body)
	if err != nil {
		return nil, &UploadFailedError{Detail: ErrEmptyResponse.Error(), Err: err}
	}
	return d, nil
}

// wireDataset is the parse response as sent by the service.
type wireDataset struct {
	Rows     *[]ReportRow  `json:"rows"`
	Totals   *ReportTotals `json:"totals"`
	Problems string        `json:"problems"`
}

// decodeDataset parses a success body. An empty body, JSON null, a body that
// is not JSON, and an object without rows all count as an empty response.
// Totals are always recomputed from the rows.
func decodeDataset(ctx context.Context, body []byte) (*ReportDataset, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, ErrEmptyResponse
	}

	var wire wireDataset
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	if wire.Rows == nil {
		return nil, fmt.Errorf("%w: missing rows", ErrEmptyResponse)
	}

	d := NewDataset(*wire.Rows, wire.Problems)
	if wire.Totals != nil && *wire.Totals != d.Totals {
		logging.FromContext(ctx).Warn("service totals differ from rows, using recomputed totals",
			"service_totals", *wire.Totals,
			"computed_totals", d.Totals,
		)
	}
	return d, nil
}

// failureDetail picks the message shown after a failed round trip.
func failureDetail(err error) string {
	var svcErr *ServiceError
	switch {
	case errors.As(err, &svcErr) && svcErr.Detail != "":
		return svcErr.Detail
	case errors.Is(err, ErrServiceBusy):
		return ErrServiceBusy.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "document service timed out"
	default:
		return genericServiceDetail
	}
}
