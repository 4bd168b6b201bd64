package restclient

import (
	"errors"
	"fmt"
)

// Error types reported in ClientError.Type.
const (
	// ErrorTypeConfiguration reports a malformed client setup or request.
	// No network attempt is made.
	ErrorTypeConfiguration = "ConfigurationError"
	// ErrorTypeConnectivity reports that no network path was available.
	ErrorTypeConnectivity = "ConnectivityError"
	// ErrorTypeProtocol reports a non-success status or a transport failure
	// unrelated to connectivity.
	ErrorTypeProtocol = "ProtocolError"
	// ErrorTypeValidation reports an unacceptable response Content-Type.
	ErrorTypeValidation = "ValidationError"
	// ErrorTypeSerialization reports a body that could not be encoded or
	// decoded with the configured serializer.
	ErrorTypeSerialization = "SerializationError"
)

// Sentinel errors for use with errors.Is. A *ClientError matches a sentinel
// when both carry the same Type.
var (
	ErrConfiguration = &ClientError{Type: ErrorTypeConfiguration, Message: "invalid configuration"}
	ErrConnectivity  = &ClientError{Type: ErrorTypeConnectivity, Message: "network unreachable"}
	ErrProtocol      = &ClientError{Type: ErrorTypeProtocol, Message: "protocol failure"}
	ErrValidation    = &ClientError{Type: ErrorTypeValidation, Message: "unacceptable response"}
	ErrSerialization = &ClientError{Type: ErrorTypeSerialization, Message: "serialization failure"}

	// ErrCancelled is returned by Do when the request was cancelled before a
	// result was delivered.
	ErrCancelled = errors.New("restclient: request cancelled")
)

// ClientError is the normalized error produced by the request pipeline.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	StatusCode int
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// TypeOf returns the ClientError type found in err's chain, or "" when err is
// nil or not produced by this package.
func TypeOf(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ""
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

func configurationError(message string, cause error) *ClientError {
	return &ClientError{Type: ErrorTypeConfiguration, Message: message, Cause: cause}
}

func newRequestError(errorType, message string, cause error, r *ResolvedRequest) *ClientError {
	err := &ClientError{Type: errorType, Message: message, Cause: cause}
	if r != nil {
		err.RequestID = r.ID
		err.Method = r.Method
		err.URL = r.FullURL()
	}
	return err
}
