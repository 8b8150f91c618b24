// Package templates holds the HTML views as templ components. The .templ
// sources are compiled with `templ generate`; the *_templ.go files are the
// generated output and are checked in.
//
// The page is one workflow section swapped in place by htmx. Every form also
// works without JavaScript: plain posts get the full page back.
package templates

//go:generate templ generate

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

// HTMXOrigin serves the htmx script. The CSP allows it.
const HTMXOrigin = "https://unpkg.com"

// HTMXSrc is the htmx script the page loads.
const HTMXSrc = HTMXOrigin + "/htmx.org@1.9.12"

// View is everything a workflow render needs.
type View struct {
	Snapshot core.Snapshot
	Message  core.UserMessage // Mapped error slot, zero when empty
	MaxFiles int
}

// seqLabel is the 序号 cell: the row's own sequence number when the
// document carried one, its 1-based position otherwise.
func seqLabel(row core.ReportRow, i int) string {
	if row.Seq != "" {
		return row.Seq
	}
	return strconv.Itoa(i + 1)
}

func rowPath(index int) string {
	return fmt.Sprintf("/rows/%d", index)
}

func alertAction(action, code string) string {
	if code == "" {
		return action
	}
	return action + " (" + code + ")"
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
