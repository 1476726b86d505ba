package apperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical error code used across the pipeline and tools.
type Code string

const (
	// Input & Validation
	Validation    Code = "VALIDATION"
	InvalidHandle Code = "INVALID_HANDLE"
	CursorInvalid Code = "CURSOR_INVALID"

	// Data
	DataFormat       Code = "DATA_FORMAT"
	InsufficientData Code = "INSUFFICIENT_DATA"

	// Resource & Limits
	BusyResource  Code = "BUSY_RESOURCE"
	Timeout       Code = "TIMEOUT"
	LimitExceeded Code = "LIMIT_EXCEEDED"

	// Processing
	AnalysisFailed   Code = "ANALYSIS_FAILED"
	ExportFailed     Code = "EXPORT_FAILED"
	PermissionDenied Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidHandle: {Code: InvalidHandle, Message: "dataset handle not found or expired", Retryable: true, NextSteps: []string{"Retry; the dataset is reloaded from its source path"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for current dataset", Retryable: true, NextSteps: []string{"Restart pagination from the first page"}},

	DataFormat:       {Code: DataFormat, Message: "input file is malformed or missing required columns", Retryable: false, NextSteps: []string{"Check the header row and file encoding", "Export the sheet as CSV and retry"}},
	InsufficientData: {Code: InsufficientData, Message: "not enough data for this computation", Retryable: false, NextSteps: []string{"Load a dataset with more history or non-zero sales"}},

	BusyResource:  {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:       {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry or lower the page size"}},
	LimitExceeded: {Code: LimitExceeded, Message: "operation exceeded configured limits", Retryable: true, NextSteps: []string{"Lower page size or top_n"}},

	AnalysisFailed:   {Code: AnalysisFailed, Message: "analysis failed", Retryable: true, NextSteps: []string{"Verify inputs and retry"}},
	ExportFailed:     {Code: ExportFailed, Message: "failed to write report", Retryable: false, NextSteps: []string{"Verify the output path is writable"}},
	PermissionDenied: {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Choose a file inside an allowed directory"}},
}

// Lookup returns the catalog entry for a code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// Result maps any error to a normalized MCP tool error. Typed errors keep their
// code; anything else is reported under fallback.
func Result(err error, fallback Code) *mcp.CallToolResult {
	if err == nil {
		return nil
	}
	if code, ok := CodeOf(err); ok {
		return New(code, err.Error())
	}
	return New(fallback, err.Error())
}
