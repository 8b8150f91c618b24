package core

// selection.go filters a raw file selection down to an admissible set.
//
// Two rules run in order:
//  1. Extension filter: keep names ending in AcceptedExtension (case-insensitive).
//  2. Cardinality cap: keep at most MaxFiles, in original order.
//
// Either rule may raise a warning. When both fire, the cardinality warning is
// the one reported in Message; Warnings keeps both for callers that want them.

import (
	"fmt"
	"strings"
)

// MaxFiles is the largest admissible selection.
const MaxFiles = 3

// AcceptedExtension is the only document extension the service parses.
const AcceptedExtension = ".docx"

// SelectionResult is the outcome of filtering one selection event.
type SelectionResult struct {
	Files    SelectedFileSet
	Warnings []*SelectionError // In the order the rules fired
	Dropped  []string          // Names removed by either rule
}

// Message returns the warning to show, or nil. Later rules overwrite earlier ones.
func (r SelectionResult) Message() *SelectionError {
	if len(r.Warnings) == 0 {
		return nil
	}
	return r.Warnings[len(r.Warnings)-1]
}

// SelectFiles applies the extension and cardinality rules to a raw selection.
// An empty input yields an empty set and no warning. No I/O happens here.
func SelectFiles(raw []FileHandle) SelectionResult {
	var result SelectionResult
	if len(raw) == 0 {
		result.Files = SelectedFileSet{}
		return result
	}

	kept := make(SelectedFileSet, 0, len(raw))
	for _, f := range raw {
		if HasAcceptedExtension(f.Name) {
			kept = append(kept, f)
			continue
		}
		result.Dropped = append(result.Dropped, f.Name)
	}
	if len(kept) != len(raw) {
		result.Warnings = append(result.Warnings, &SelectionError{
			Reason: fmt.Sprintf("unsupported file type: only %s files are accepted", AcceptedExtension),
		})
	}

	if len(kept) > MaxFiles {
		for _, f := range kept[MaxFiles:] {
			result.Dropped = append(result.Dropped, f.Name)
		}
		kept = kept[:MaxFiles:MaxFiles]
		result.Warnings = append(result.Warnings, &SelectionError{
			Reason: fmt.Sprintf("too many files: at most %d files can be selected, keeping the first %d", MaxFiles, MaxFiles),
		})
	}

	result.Files = kept
	return result
}

// HasAcceptedExtension reports whether name ends in AcceptedExtension, ignoring case.
func HasAcceptedExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), AcceptedExtension)
}

// ValidateForSubmit re-checks the set at submit time, before any network call.
func ValidateForSubmit(files SelectedFileSet) error {
	if len(files) == 0 {
		return ErrEmptySelection
	}
	if len(files) > MaxFiles {
		return ErrTooManyFiles
	}
	return nil
}
