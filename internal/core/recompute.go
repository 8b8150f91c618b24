package core

// recompute.go keeps ReportTotals consistent with ReportRow edits.
//
// Totals are never patched incrementally. Every edit produces a new row
// slice (copy-on-write) and the totals are recomputed from scratch over the
// whole slice, then swapped in together with the rows.

import (
	"fmt"
	"strings"
)

// ComputeTotals is the pure fold over a row sequence.
//
//   - Assistants: size of the set of trimmed, non-blank assistant names
//   - Shifts: number of rows
//   - Shelving, Corrections: sums of the two counters (missing counters are 0)
func ComputeTotals(rows []ReportRow) ReportTotals {
	names := make(map[string]struct{}, len(rows))
	totals := ReportTotals{Shifts: len(rows)}
	for _, r := range rows {
		if name := strings.TrimSpace(r.Assistant); name != "" {
			names[name] = struct{}{}
		}
		totals.Shelving += int(r.Shelving)
		totals.Corrections += int(r.Correction)
	}
	totals.Assistants = len(names)
	return totals
}

// NewDataset builds a dataset whose totals are derived from rows.
func NewDataset(rows []ReportRow, problems string) *ReportDataset {
	if rows == nil {
		rows = []ReportRow{}
	}
	return &ReportDataset{
		Rows:     rows,
		Totals:   ComputeTotals(rows),
		Problems: problems,
	}
}

// ApplyEdit returns a new dataset with one field of one row replaced and the
// totals recomputed. The input dataset is not modified.
//
// Numeric fields are coerced with CoerceCount, so non-numeric input stores 0
// instead of rejecting the edit.
func ApplyEdit(d *ReportDataset, index int, field Field, raw string) (*ReportDataset, error) {
	if d == nil {
		return nil, ErrNoDataset
	}
	if index < 0 || index >= len(d.Rows) {
		return nil, fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, index, len(d.Rows))
	}
	spec, ok := LookupField(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	rows := make([]ReportRow, len(d.Rows))
	copy(rows, d.Rows)

	row := rows[index]
	if spec.Type == FieldNumeric {
		n := Count(CoerceCount(raw))
		switch field {
		case FieldShelving:
			row.Shelving = n
		case FieldCorrection:
			row.Correction = n
		}
	} else {
		switch field {
		case FieldAssistant:
			row.Assistant = raw
		case FieldDate:
			row.Date = raw
		case FieldShelfRange:
			row.ShelfRange = raw
		case FieldLocation:
			row.Location = raw
		}
	}
	rows[index] = row

	return &ReportDataset{
		Rows:     rows,
		Totals:   ComputeTotals(rows),
		Problems: d.Problems,
	}, nil
}

// WithProblems returns a copy of the dataset with a new problems summary.
// Rows and totals are shared untouched.
func WithProblems(d *ReportDataset, problems string) (*ReportDataset, error) {
	if d == nil {
		return nil, ErrNoDataset
	}
	out := *d
	out.Problems = strings.ReplaceAll(problems, "\r\n", "\n")
	return &out, nil
}

// TotalsConsistent reports whether the stored totals equal a recomputation.
func TotalsConsistent(d *ReportDataset) bool {
	if d == nil {
		return true
	}
	return d.Totals == ComputeTotals(d.Rows)
}
