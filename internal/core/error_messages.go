// Package core provides the workflow logic for the duty-roster summary system.
//
// # Error Codes Reference
//
// This file maps workflow errors to user-friendly messages with codes for
// support reference. Codes are grouped by category:
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - Unsupported file type: only .docx documents are accepted
//	         Action: Remove files that are not Word documents
//	         Patterns: "unsupported file type"
//
//	SEL002 - Too many files: more files than allowed were selected
//	         Action: Select at most 3 files
//	         Patterns: "too many files"
//
//	SEL003 - Empty selection: nothing selected before submit
//	         Action: Select at least one .docx file
//	         Patterns: "empty selection"
//
//	SEL004 - Selection too large: the request body exceeded the size cap
//	         Action: Upload smaller documents
//	         Patterns: "selection too large"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload failed: the document service rejected or did not answer
//	         Action: Check the files and submit again
//	         Patterns: "upload failed"
//
//	UPL002 - Busy: a request is already in flight
//	         Action: Wait for the current request to finish
//	         Patterns: "workflow busy"
//
// # Review Errors (REV001-REV099)
//
//	REV001 - No dataset: nothing has been uploaded yet
//	         Patterns: "no dataset"
//
//	REV002 - Invalid cell: row or field does not exist
//	         Patterns: "row index out of range", "unknown row field"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: the document could not be generated
//	         Action: Try downloading again
//	         Patterns: "export failed"
//
//	EXP002 - Download expired: the one-shot download link was used or expired
//	         Patterns: "download not found"
//
// # Session & Rate Limiting (SES001, RATE001)
//
//	SES001 - Session expired
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps error text patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Selection Errors (SEL001-SEL004)
	// =========================================================================
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Only .docx documents are accepted",
			Action:  "Remove files that are not Word documents",
			Code:    "SEL001",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: fmt.Sprintf("At most %d files can be processed at once", MaxFiles),
			Action:  fmt.Sprintf("Select at most %d files", MaxFiles),
			Code:    "SEL002",
		},
	},
	{
		pattern: "empty selection",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select at least one .docx file",
			Code:    "SEL003",
		},
	},
	{
		pattern: "selection too large",
		msg: UserMessage{
			Message: "The selected documents are too large",
			Action:  "Upload smaller documents",
			Code:    "SEL004",
		},
	},

	// =========================================================================
	// Upload Errors (UPL001-UPL002)
	// =========================================================================
	{
		pattern: "upload failed",
		msg: UserMessage{
			Message: "The documents could not be processed",
			Action:  "Check the files and submit again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "workflow busy",
		msg: UserMessage{
			Message: "A request is already in progress",
			Action:  "Wait for the current request to finish",
			Code:    "UPL002",
		},
	},

	// =========================================================================
	// Review Errors (REV001-REV002)
	// =========================================================================
	{
		pattern: "no dataset",
		msg: UserMessage{
			Message: "There is no data to review yet",
			Action:  "Upload documents first",
			Code:    "REV001",
		},
	},
	{
		pattern: "row index out of range",
		msg: UserMessage{
			Message: "That row does not exist",
			Action:  "Reload the page and try again",
			Code:    "REV002",
		},
	},
	{
		pattern: "unknown row field",
		msg: UserMessage{
			Message: "That column cannot be edited",
			Action:  "Reload the page and try again",
			Code:    "REV002",
		},
	},

	// =========================================================================
	// Export Errors (EXP001-EXP002)
	// =========================================================================
	{
		pattern: "export failed",
		msg: UserMessage{
			Message: "The summary document could not be generated",
			Action:  "Try downloading again",
			Code:    "EXP001",
		},
	},
	{
		pattern: "download not found",
		msg: UserMessage{
			Message: "This download link was already used or has expired",
			Action:  "Click download again",
			Code:    "EXP002",
		},
	},

	// =========================================================================
	// Session & Rate Limiting
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page to start over",
			Code:    "SES001",
		},
	},
	{
		pattern: "too many active sessions",
		msg: UserMessage{
			Message: "The server is busy with other sessions",
			Action:  "Wait a moment, then reload the page",
			Code:    "SES002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// If no pattern matches, a generic fallback message with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
