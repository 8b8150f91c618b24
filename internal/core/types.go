// Package core provides the workflow logic for the duty-roster summary system.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FieldType represents the expected data type for a report row field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// Field identifies one editable column of a ReportRow.
type Field string

const (
	FieldAssistant  Field = "assistant"
	FieldDate       Field = "date"
	FieldShelving   Field = "shelving"
	FieldCorrection Field = "correction"
	FieldShelfRange Field = "shelf_range"
	FieldLocation   Field = "location"
)

// FieldSpec describes a single row field for presentation and edit coercion.
type FieldSpec struct {
	Field Field     // Domain identifier used by edit commands
	Label string    // Column header shown to users
	Type  FieldType // Numeric fields are coerced to integers on edit
	Edit  bool      // Offered as an input in the review table
}

// FieldSpecs lists the row fields in display order.
var FieldSpecs = []FieldSpec{
	{Field: FieldAssistant, Label: "值班助理", Type: FieldText},
	{Field: FieldDate, Label: "日期", Type: FieldText},
	{Field: FieldShelving, Label: "上书量", Type: FieldNumeric, Edit: true},
	{Field: FieldCorrection, Label: "纠错量", Type: FieldNumeric, Edit: true},
	{Field: FieldShelfRange, Label: "整架范围", Type: FieldText, Edit: true},
	{Field: FieldLocation, Label: "工作地点", Type: FieldText},
}

// LookupField returns the spec for a field identifier.
func LookupField(f Field) (FieldSpec, bool) {
	for _, spec := range FieldSpecs {
		if spec.Field == f {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// FileHandle is one selected document: its name and binary content.
type FileHandle struct {
	Name    string
	Content []byte
}

// Size returns the content length in bytes.
func (f FileHandle) Size() int {
	return len(f.Content)
}

// SelectedFileSet is the admissible, ordered selection produced by SelectFiles.
// It is replaced wholesale on every selection event and never mutated in place.
type SelectedFileSet []FileHandle

// Names returns the file names in selection order.
func (s SelectedFileSet) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Count is a non-negative shift counter that decodes leniently from the
// document service: numbers, numeric strings, null and garbage all become
// an integer (0 when nothing numeric is present).
type Count int

// UnmarshalJSON accepts a JSON number, a string, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Count(CoerceCount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = 0
		return nil
	}
	if f < 0 {
		f = 0
	}
	*c = Count(int(f))
	return nil
}

// ReportRow is one duty-shift record. JSON keys match the document service.
type ReportRow struct {
	Assistant  string `json:"值班助理"`
	Date       string `json:"日期"`
	Shelving   Count  `json:"上书量"`
	Correction Count  `json:"纠错量"`
	ShelfRange string `json:"整架范围"`
	Location   string `json:"工作地点"`

	// Pass-through columns the service reads back on export.
	Seq        string `json:"序号,omitempty"`
	SignIn     string `json:"值班签到,omitempty"`
	Inspection string `json:"督导检查情况,omitempty"`
}

// Value returns the display value of a field.
func (r ReportRow) Value(f Field) string {
	switch f {
	case FieldAssistant:
		return r.Assistant
	case FieldDate:
		return r.Date
	case FieldShelving:
		return strconv.Itoa(int(r.Shelving))
	case FieldCorrection:
		return strconv.Itoa(int(r.Correction))
	case FieldShelfRange:
		return r.ShelfRange
	case FieldLocation:
		return r.Location
	}
	return ""
}

// ReportTotals is the derived aggregate over a row sequence.
// It is only ever produced by ComputeTotals.
type ReportTotals struct {
	Assistants  int `json:"总人数"`
	Shifts      int `json:"总班次"`
	Shelving    int `json:"上书量合计"`
	Corrections int `json:"纠错量合计"`
}

// ReportDataset is the aggregate root: rows, derived totals, problems summary.
type ReportDataset struct {
	Rows     []ReportRow  `json:"rows"`
	Totals   ReportTotals `json:"totals"`
	Problems string       `json:"problems"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (d *ReportDataset) Clone() *ReportDataset {
	if d == nil {
		return nil
	}
	out := &ReportDataset{
		Rows:     make([]ReportRow, len(d.Rows)),
		Totals:   d.Totals,
		Problems: d.Problems,
	}
	copy(out.Rows, d.Rows)
	return out
}

// CoerceCount converts raw edited input to a count. It reads an optional
// sign and the leading run of digits after surrounding whitespace, so "12",
// " 12 " and "12abc" give 12. Anything without a leading integer, and any
// negative value, gives 0.
func CoerceCount(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || neg {
		return 0
	}
	return n
}
