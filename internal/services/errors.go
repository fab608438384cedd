package services

import (
	"errors"
	"fmt"
	"strings"
)

// maxSnippet bounds how much of a raw body ends up in an error message.
const maxSnippet = 200

// ErrorKind classifies a resolution failure for callers that produce user-facing messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindExternalTool
	KindDeserialization
	KindAPIResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindExternalTool:
		return "external_tool"
	case KindDeserialization:
		return "deserialization"
	case KindAPIResponse:
		return "api_response"
	default:
		return "unknown"
	}
}

// TransportError means an HTTP call could not complete (DNS, connect, timeout, body read).
type TransportError struct {
	Op  string // Which call failed, e.g. "token" or "playlist tracks"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExternalToolError means the external enumerator exited non-zero or could not be started.
//
// Stderr holds exactly the bytes the process wrote to its error stream, which may not be valid UTF-8.
type ExternalToolError struct {
	Command  string
	ExitCode int // -1 when the process did not start or was killed
	Stderr   []byte
	Err      error // Start failure or context error, nil for a plain non-zero exit
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if e.Err != nil {
		msg = fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	if s := snippet(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// DeserializationError means bytes were received but did not parse into the expected shape.
type DeserializationError struct {
	Source     string // What was being decoded, e.g. "token response" or "flat playlist"
	Line       int    // 1-based line for line-delimited output, 0 otherwise
	StatusCode int    // HTTP status when the bytes came from a response
	Body       []byte // The offending line or response body
	Err        error
}

func (e *DeserializationError) Error() string {
	var where string
	switch {
	case e.Line > 0:
		where = fmt.Sprintf(" (line %d)", e.Line)
	case e.StatusCode > 0:
		where = fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("malformed %s%s: %v", e.Source, where, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// APIResponseError means an API call completed but returned a non-success status or an unparseable body.
type APIResponseError struct {
	URL        string
	StatusCode int
	Body       []byte
	Err        error // Decode error when the status itself was successful
}

func (e *APIResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	msg := fmt.Sprintf("API error from %s: status %d", e.URL, e.StatusCode)
	if s := snippet(e.Body); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *APIResponseError) Unwrap() error { return e.Err }

// KindOf reports which taxonomy member err is, looking through wrapping.
func KindOf(err error) ErrorKind {
	var (
		transport *TransportError
		tool      *ExternalToolError
		decode    *DeserializationError
		api       *APIResponseError
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &tool):
		return KindExternalTool
	case errors.As(err, &decode):
		return KindDeserialization
	case errors.As(err, &api):
		return KindAPIResponse
	case errors.As(err, &transport):
		return KindTransport
	default:
		return KindUnknown
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(strings.ToValidUTF8(string(b), "�"))
	if len(s) > maxSnippet {
		s = s[:maxSnippet] + "..."
	}
	return s
}
