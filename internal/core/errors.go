package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection is returned by submit when no files are selected.
	ErrEmptySelection = errors.New("empty selection: select at least one .docx file")

	// ErrTooManyFiles is returned by submit when the selection exceeds MaxFiles.
	ErrTooManyFiles = fmt.Errorf("too many files: at most %d files can be uploaded", MaxFiles)

	// ErrBusy is returned when a round trip is already in flight for the session.
	ErrBusy = errors.New("workflow busy: wait for the current request to finish")

	// ErrNoDataset is returned by edit and export before any successful upload.
	ErrNoDataset = errors.New("no dataset: upload documents first")

	// ErrRowOutOfRange is returned by edits addressing a row that does not exist.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrUnknownField is returned by edits naming a field that is not a row field.
	ErrUnknownField = errors.New("unknown row field")

	// ErrEmptyResponse marks an upload whose body was empty or not a dataset.
	ErrEmptyResponse = errors.New("upload returned empty response")
)

// SelectionError is a non-fatal warning raised while filtering a selection.
// The filtered selection remains usable.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return e.Reason
}

// UploadFailedError is the single user-facing category for every failed
// upload round trip: bad status, transport failure, or empty response.
type UploadFailedError struct {
	Detail string // Service detail message, or a generic message
	Err    error  // Underlying cause, for logs
}

func (e *UploadFailedError) Error() string {
	return "upload failed: " + e.Detail
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}

// ExportFailedError is the single user-facing category for failed exports.
type ExportFailedError struct {
	Detail string
	Err    error
}

func (e *ExportFailedError) Error() string {
	return "export failed: " + e.Detail
}

func (e *ExportFailedError) Unwrap() error {
	return e.Err
}

// ServiceError is returned by a DocumentService when the service answered
// with a non-success status. Detail carries the service's `detail` field.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("document service status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("document service status %d", e.Status)
}
