package restclient

import (
	"fmt"
	"strings"
)

// CacheManagement selects whether previously stored responses may be served
// when the network is unreachable.
type CacheManagement int

const (
	// CacheDefault never serves stored responses.
	CacheDefault CacheManagement = iota
	// CacheOffline stores successful responses and serves them when the
	// transport reports a connectivity failure.
	CacheOffline
)

func (m CacheManagement) String() string {
	switch m {
	case CacheDefault:
		return "default"
	case CacheOffline:
		return "offline"
	default:
		return fmt.Sprintf("CacheManagement(%d)", int(m))
	}
}

// UnmarshalText parses "default" or "offline".
func (m *CacheManagement) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "default":
		*m = CacheDefault
	case "offline":
		*m = CacheOffline
	default:
		return fmt.Errorf("unknown cache management %q", string(text))
	}
	return nil
}

// LogLevel is a bitset selecting which parts of an exchange are logged.
type LogLevel uint

const (
	LogNone LogLevel = 0
	// LogRequests logs outgoing requests, including a curl rendering.
	LogRequests LogLevel = 1 << 0
	// LogResponses logs responses and failures.
	LogResponses LogLevel = 1 << 1

	LogAll = LogRequests | LogResponses
)

// Has reports whether every bit of flag is set.
func (l LogLevel) Has(flag LogLevel) bool {
	return flag != 0 && l&flag == flag
}

func (l LogLevel) String() string {
	switch l {
	case LogNone:
		return "none"
	case LogAll:
		return "requests,responses"
	case LogRequests:
		return "requests"
	case LogResponses:
		return "responses"
	default:
		return fmt.Sprintf("LogLevel(%d)", uint(l))
	}
}

// UnmarshalText parses a comma separated list of "requests", "responses",
// "all" or "none".
func (l *LogLevel) UnmarshalText(text []byte) error {
	var level LogLevel
	for _, part := range strings.Split(string(text), ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "", "none":
		case "requests":
			level |= LogRequests
		case "responses":
			level |= LogResponses
		case "all":
			level |= LogAll
		default:
			return fmt.Errorf("unknown log level %q", part)
		}
	}
	*l = level
	return nil
}

// RequestSerializer selects how request parameters and bodies are encoded.
type RequestSerializer int

const (
	// SerializerJSON encodes bodies as application/json.
	SerializerJSON RequestSerializer = iota
	// SerializerFormURLEncoded encodes bodies as
	// application/x-www-form-urlencoded with a utf-8 charset.
	SerializerFormURLEncoded
)

// ContentType returns the Content-Type header value for encoded bodies.
func (s RequestSerializer) ContentType() string {
	switch s {
	case SerializerFormURLEncoded:
		return "application/x-www-form-urlencoded; charset=utf-8"
	default:
		return "application/json"
	}
}

func (s RequestSerializer) String() string {
	switch s {
	case SerializerJSON:
		return "json"
	case SerializerFormURLEncoded:
		return "form"
	default:
		return fmt.Sprintf("RequestSerializer(%d)", int(s))
	}
}

// UnmarshalText parses "json" or "form".
func (s *RequestSerializer) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "json":
		*s = SerializerJSON
	case "form", "form-urlencoded", "formurlencoded":
		*s = SerializerFormURLEncoded
	default:
		return fmt.Errorf("unknown request serializer %q", string(text))
	}
	return nil
}

// ResponseSerializer selects how response bodies are decoded.
type ResponseSerializer int

const (
	// ResponseJSON decodes bodies with encoding/json into an any value.
	ResponseJSON ResponseSerializer = iota
	// ResponseRaw hands the body bytes through untouched.
	ResponseRaw
)

func (s ResponseSerializer) String() string {
	switch s {
	case ResponseJSON:
		return "json"
	case ResponseRaw:
		return "raw"
	default:
		return fmt.Sprintf("ResponseSerializer(%d)", int(s))
	}
}

// UnmarshalText parses "json" or "raw".
func (s *ResponseSerializer) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "json":
		*s = ResponseJSON
	case "raw":
		*s = ResponseRaw
	default:
		return fmt.Errorf("unknown response serializer %q", string(text))
	}
	return nil
}

// Option represents a client configuration option.
type Option func(*Client)

// Completion receives the final result of a request.
type Completion func(*Response)

// Ptr returns a pointer to v. It is convenient when filling Overrides.
func Ptr[T any](v T) *T {
	return &v
}
