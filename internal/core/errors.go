package core

import "errors"

// Sentinel errors for the failure taxonomy. All are recoverable and are
// reported to callers as structured failures; none leaves a session in a
// partially-updated state.
var (
	// ErrUnsupportedFormat indicates the upload's extension or content is
	// not a recognized tabular format.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrParseFailure indicates the file is corrupt or unreadable.
	ErrParseFailure = errors.New("unable to read the uploaded workbook")

	// ErrSessionNotFound indicates an unknown or expired session id. A
	// process restart surfaces as this error, never as a crash.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownSheet indicates a sheet switch to a name not present in
	// the session's workbook.
	ErrUnknownSheet = errors.New("sheet not found in workbook")

	// ErrInvalidOverrideType indicates an override token outside the
	// recognized type set. Unrecognized overrides are rejected, not
	// silently ignored.
	ErrInvalidOverrideType = errors.New("invalid override type")

	// ErrMalformedPayload indicates missing or ill-typed request fields.
	ErrMalformedPayload = errors.New("malformed request payload")

	// ErrTooLarge indicates the upload exceeds the configured size or
	// row limits.
	ErrTooLarge = errors.New("workbook too large")
)
