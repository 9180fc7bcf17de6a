package core

// error_messages.go maps technical errors to user-friendly messages
// with codes for support reference.
//
// Codes are grouped by category:
//
//	FILE001 - Unsupported format: file extension is not recognized
//	FILE002 - Parse failure: file is corrupt or unreadable
//	FILE003 - No file: no file was provided with the upload
//	FILE004 - Too large: workbook exceeds the size or row limit
//	SES001  - Session not found: unknown or expired session id
//	SHT001  - Unknown sheet: sheet name not present in the workbook
//	VAL001  - Invalid override: override token not in the type set
//	VAL002  - Malformed payload: missing or ill-typed request fields
//	RATE001 - Rate limited: too many requests
//	ERR000  - Unknown error: fallback when no pattern matches
//
// Patterns are matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns come before general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable
// guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload an .xlsx, .xlsm, or .csv file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unable to read the uploaded workbook",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Re-save the workbook and try uploading again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a workbook to upload",
			Code:    "FILE003",
		},
	},
	{
		pattern: "workbook too large",
		msg: UserMessage{
			Message: "The workbook exceeds the size limit",
			Action:  "Split the data into smaller files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your editing session has expired",
			Action:  "Upload the workbook again to start a new session",
			Code:    "SES001",
		},
	},
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "That sheet does not exist in this workbook",
			Action:  "Pick one of the sheets listed for the session",
			Code:    "SHT001",
		},
	},
	{
		pattern: "invalid override type",
		msg: UserMessage{
			Message: "The selected column type is not recognized",
			Action:  "Choose one of: string, integer, float, boolean, date",
			Code:    "VAL001",
		},
	},
	{
		pattern: "malformed request payload",
		msg: UserMessage{
			Message: "The request was missing required fields",
			Action:  "Refresh the page and try again",
			Code:    "VAL002",
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

// defaultUserMessage is the fallback for unmatched errors.
var defaultUserMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns the default message for nil or unmatched errors.
func MapError(err error) UserMessage {
	if err == nil {
		return defaultUserMessage
	}
	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return defaultUserMessage
}
