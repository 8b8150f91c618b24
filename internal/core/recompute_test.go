package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []ReportRow {
	return []ReportRow{
		{Assistant: "张三", Date: "3月1日", Shelving: 10, Correction: 2, ShelfRange: "A1-A3", Location: "一楼"},
		{Assistant: "李四", Date: "3月1日", Shelving: 7, Correction: 1, ShelfRange: "B1", Location: "二楼"},
		{Assistant: "张三", Date: "3月2日", Shelving: 5, Correction: 0, ShelfRange: "A4", Location: "一楼"},
		{Assistant: "王五", Date: "3月3日", Shelving: 3, Correction: 4, ShelfRange: "", Location: "三楼"},
		{Assistant: "李四", Date: "3月4日", Shelving: 0, Correction: 0, ShelfRange: "C2", Location: "二楼"},
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name string
		rows []ReportRow
		want ReportTotals
	}{
		{
			name: "empty rows",
			rows: nil,
			want: ReportTotals{},
		},
		{
			name: "distinct assistants counted once",
			rows: sampleRows(),
			want: ReportTotals{Assistants: 3, Shifts: 5, Shelving: 25, Corrections: 7},
		},
		{
			name: "blank assistants are not counted",
			rows: []ReportRow{{Assistant: ""}, {Assistant: "  "}, {Assistant: "x"}},
			want: ReportTotals{Assistants: 1, Shifts: 3},
		},
		{
			name: "names are trimmed before counting",
			rows: []ReportRow{{Assistant: "张三 "}, {Assistant: " 张三"}, {Assistant: "李四"}},
			want: ReportTotals{Assistants: 2, Shifts: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTotals(tt.rows))
		})
	}
}

func TestApplyEdit(t *testing.T) {
	base := NewDataset(sampleRows(), "无")

	t.Run("numeric edit recomputes totals", func(t *testing.T) {
		got, err := ApplyEdit(base, 0, FieldShelving, "20")
		require.NoError(t, err)
		assert.Equal(t, Count(20), got.Rows[0].Shelving)
		assert.Equal(t, base.Totals.Shelving+10, got.Totals.Shelving)
		assert.True(t, TotalsConsistent(got))
	})

	t.Run("non-numeric input coerces to zero", func(t *testing.T) {
		// row 2 holds shelving 5
		got, err := ApplyEdit(base, 2, FieldShelving, "abc")
		require.NoError(t, err)
		assert.Equal(t, Count(0), got.Rows[2].Shelving)
		assert.Equal(t, base.Totals.Shelving-5, got.Totals.Shelving)
	})

	t.Run("assistant edit changes distinct count", func(t *testing.T) {
		got, err := ApplyEdit(base, 3, FieldAssistant, "张三")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Totals.Assistants)
	})

	t.Run("input dataset is not modified", func(t *testing.T) {
		before := base.Clone()
		_, err := ApplyEdit(base, 1, FieldCorrection, "99")
		require.NoError(t, err)
		assert.Equal(t, before, base)
	})

	t.Run("reapplying the same edit is a no-op", func(t *testing.T) {
		once, err := ApplyEdit(base, 1, FieldShelfRange, "D1-D9")
		require.NoError(t, err)
		twice, err := ApplyEdit(once, 1, FieldShelfRange, "D1-D9")
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("problems carried over", func(t *testing.T) {
		got, err := ApplyEdit(base, 0, FieldLocation, "四楼")
		require.NoError(t, err)
		assert.Equal(t, "无", got.Problems)
	})

	t.Run("out of range index", func(t *testing.T) {
		_, err := ApplyEdit(base, 5, FieldShelving, "1")
		assert.ErrorIs(t, err, ErrRowOutOfRange)
		_, err = ApplyEdit(base, -1, FieldShelving, "1")
		assert.ErrorIs(t, err, ErrRowOutOfRange)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ApplyEdit(base, 0, Field("totals"), "1")
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := ApplyEdit(nil, 0, FieldShelving, "1")
		assert.ErrorIs(t, err, ErrNoDataset)
	})
}

func TestApplyEdit_TotalsNeverDrift(t *testing.T) {
	d := NewDataset(sampleRows(), "")
	edits := []struct {
		index int
		field Field
		raw   string
	}{
		{0, FieldShelving, "3"},
		{1, FieldCorrection, "-4"},
		{2, FieldAssistant, "王五"},
		{3, FieldShelving, "12.7"},
		{4, FieldCorrection, " 8 "},
		{0, FieldAssistant, ""},
	}
	for _, e := range edits {
		var err error
		d, err = ApplyEdit(d, e.index, e.field, e.raw)
		require.NoError(t, err)
		require.True(t, TotalsConsistent(d), "after editing row %d %s", e.index, e.field)
	}
}

func TestWithProblems(t *testing.T) {
	base := NewDataset(sampleRows(), "old")

	got, err := WithProblems(base, "line1\r\nline2")
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", got.Problems)
	assert.Equal(t, base.Totals, got.Totals)
	assert.Equal(t, "old", base.Problems)

	_, err = WithProblems(nil, "x")
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestCoerceCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"12", 12},
		{" 12 ", 12},
		{"12abc", 12},
		{"+7", 7},
		{"3.9", 3},
		{"abc", 0},
		{"", 0},
		{"-5", 0},
		{"99999999999999999999999", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceCount(tt.raw))
		})
	}
}
