package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

func renderString(t *testing.T, v View, page bool) string {
	t.Helper()
	var buf bytes.Buffer
	var err error
	if page {
		err = Page(v).Render(context.Background(), &buf)
	} else {
		err = Workflow(v).Render(context.Background(), &buf)
	}
	require.NoError(t, err)
	return buf.String()
}

func reviewView() View {
	d := core.NewDataset([]core.ReportRow{
		{Assistant: "张三", Date: "3月1日", Shelving: 10, Correction: 2, ShelfRange: "A1", Location: "一楼"},
		{Assistant: "<b>李四</b>", Date: "3月2日", Shelving: 5, Correction: 1, ShelfRange: "B1", Location: "二楼"},
	}, "标签缺失")
	return View{
		Snapshot: core.Snapshot{State: core.StateReviewing, Dataset: d, Fingerprint: core.Fingerprint(d)},
		MaxFiles: core.MaxFiles,
	}
}

func TestPage(t *testing.T) {
	html := renderString(t, View{Snapshot: core.Snapshot{State: core.StateIdle}, MaxFiles: 3}, true)

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, HTMXSrc)
	assert.Contains(t, html, `<div id="flash"></div>`)
	assert.Contains(t, html, `<section id="workflow" data-state="idle">`)
	assert.Contains(t, html, "未选择文件")
	assert.NotContains(t, html, `id="review"`)
}

func TestWorkflow_Review(t *testing.T) {
	html := renderString(t, reviewView(), false)

	// Totals
	assert.Contains(t, html, "<span>总人数</span><strong>2</strong>")
	assert.Contains(t, html, "<span>上书量合计</span><strong>15</strong>")
	assert.Contains(t, html, "<span>纠错量合计</span><strong>3</strong>")

	// One form per editable cell, none for read-only columns
	assert.Equal(t, 6, strings.Count(html, `<input type="hidden" name="field"`))
	assert.Contains(t, html, `action="/rows/1"`)
	assert.Contains(t, html, `value="shelf_range"`)

	// Sequence column is 1-based
	assert.Contains(t, html, `<td class="center">2</td>`)

	// Cell text is escaped
	assert.Contains(t, html, "&lt;b&gt;李四&lt;/b&gt;")
	assert.NotContains(t, html, "<b>李四</b>")

	assert.Contains(t, html, ">标签缺失</textarea>")
	assert.Contains(t, html, "下载汇总文档")
	assert.Contains(t, html, "版本 "+core.Fingerprint(reviewView().Snapshot.Dataset))
}

func TestWorkflow_SequenceColumn(t *testing.T) {
	d := core.NewDataset([]core.ReportRow{
		{Seq: "7", Assistant: "张三", Date: "3月1日"},
		{Assistant: "李四", Date: "3月2日"},
		{Seq: "甲", Assistant: "王五", Date: "3月3日"},
	}, "")
	v := View{Snapshot: core.Snapshot{State: core.StateReviewing, Dataset: d}}
	html := renderString(t, v, false)

	assert.Contains(t, html, `<td class="center">7</td>`)
	assert.Contains(t, html, `<td class="center">2</td>`)
	assert.Contains(t, html, `<td class="center">甲</td>`)
	assert.NotContains(t, html, `<td class="center">1</td>`)
	assert.NotContains(t, html, `<td class="center">3</td>`)
}

func TestWorkflow_EmptyDataset(t *testing.T) {
	v := View{Snapshot: core.Snapshot{State: core.StateReviewing, Dataset: core.NewDataset(nil, "")}}
	html := renderString(t, v, false)

	assert.Contains(t, html, "没有解析到值班记录")
	assert.NotContains(t, html, "下载汇总文档")
}

func TestWorkflow_BusyDisablesActions(t *testing.T) {
	v := reviewView()
	v.Snapshot.State = core.StateExporting
	v.Snapshot.Busy = true
	html := renderString(t, v, false)

	assert.Contains(t, html, "处理中...")
	assert.Contains(t, html, `class="primary" disabled`)
	assert.Contains(t, html, `class="success" disabled`)
}

func TestWorkflow_ErrorSlot(t *testing.T) {
	err := &core.UploadFailedError{Detail: "文档格式无法识别"}
	v := View{
		Snapshot: core.Snapshot{
			State:     core.StateFilesSelected,
			Files:     []core.FileSummary{{Name: "a.docx", Size: 2048}},
			Error:     err.Error(),
			ErrorCode: "UPL001",
		},
		Message: core.MapError(err),
	}
	html := renderString(t, v, false)

	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "upload failed: 文档格式无法识别")
	assert.Contains(t, html, "(UPL001)")
	assert.Contains(t, html, "a.docx <small>2.0 KB</small>")
}

func TestAlertAction(t *testing.T) {
	assert.Equal(t, "Reload the page (SES001)", alertAction("Reload the page", "SES001"))
	assert.Equal(t, "Reload the page", alertAction("Reload the page", ""))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2<<20))
}
