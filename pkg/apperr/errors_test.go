package apperr

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestError_IsByCode(t *testing.T) {
	err := fmt.Errorf("load: %w", NewDataFormat("missing columns: Sales", nil))
	require.True(t, IsDataFormat(err))
	require.False(t, IsInsufficientData(err))

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, DataFormat, code)
}

func TestError_UnwrapsCause(t *testing.T) {
	err := NewDataFormat("read csv", io.ErrUnexpectedEOF)
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	require.Contains(t, err.Error(), "read csv")
	require.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
}

func TestError_DefaultMessageFromCatalog(t *testing.T) {
	err := &Error{Code: InsufficientData}
	require.Equal(t, "not enough data for this computation", err.Error())
}

func TestResult_KeepsTypedCode(t *testing.T) {
	res := Result(NewInsufficientData("total sales is zero"), AnalysisFailed)
	require.True(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	require.True(t, strings.HasPrefix(text, "INSUFFICIENT_DATA: total sales is zero"))
	require.Contains(t, text, "nextSteps:")

	res = Result(errors.New("boom"), AnalysisFailed)
	text = res.Content[0].(mcp.TextContent).Text
	require.True(t, strings.HasPrefix(text, "ANALYSIS_FAILED: boom"))
}

func TestNew_UnknownCodePreserved(t *testing.T) {
	res := New(Code("CUSTOM"), "detail")
	require.Equal(t, "CUSTOM: detail", res.Content[0].(mcp.TextContent).Text)
}
