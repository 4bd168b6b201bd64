package restclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"
)

// ErrorHook inspects every completed exchange. body is the decoded body or
// nil, raw is nil when no response was received, and incoming is the error
// computed so far. A non-nil return replaces incoming, which lets the hook
// flag application-level errors carried by 2xx responses.
type ErrorHook func(body any, raw *RawResponse, incoming error) error

func noopErrorHook(any, *RawResponse, error) error { return nil }

// Response is the outcome of one request. Body and Err may both be set; the
// request failed iff Err is non-nil.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is decoded per the response serializer: any from encoding/json
	// or []byte for ResponseRaw.
	Body    any
	RawBody []byte
	Err     error
	// FromCache is set when the response was served by offline fallback.
	FromCache bool
	Request   *ResolvedRequest
	Duration  time.Duration
}

// Failed reports whether the request failed.
func (r *Response) Failed() bool {
	return r.Err != nil
}

// Decode unmarshals the raw response body into T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil || len(bytes.TrimSpace(resp.RawBody)) == 0 {
		return v, &ClientError{Type: ErrorTypeSerialization, Message: "empty response body"}
	}
	if err := json.Unmarshal(resp.RawBody, &v); err != nil {
		return v, newRequestError(ErrorTypeSerialization, fmt.Sprintf("failed to decode response into %T", v), err, resp.Request)
	}
	return v, nil
}

// process normalizes a transport outcome into a Response and runs the error
// hook exactly once.
func process(raw *RawResponse, transportErr error, r *ResolvedRequest, hook ErrorHook) *Response {
	resp := &Response{Request: r}
	var err error

	if transportErr != nil {
		var te *TransportError
		if errors.As(transportErr, &te) && te.Connectivity {
			err = newRequestError(ErrorTypeConnectivity, "network unreachable", transportErr, r)
		} else {
			err = newRequestError(ErrorTypeProtocol, "request failed", transportErr, r)
		}
	} else {
		resp.StatusCode = raw.StatusCode
		resp.Header = raw.Header
		resp.RawBody = raw.Body

		var protocolErr, validationErr *ClientError
		if raw.StatusCode < 200 || raw.StatusCode > 299 {
			protocolErr = newRequestError(ErrorTypeProtocol, statusMessage(raw.StatusCode), nil, r)
			protocolErr.StatusCode = raw.StatusCode
		}
		if len(r.AcceptableContentTypes) > 0 && len(raw.Body) > 0 {
			contentType := raw.Header.Get("Content-Type")
			if !acceptableContentType(contentType, r.AcceptableContentTypes) {
				validationErr = newRequestError(ErrorTypeValidation,
					fmt.Sprintf("unacceptable content type %q", contentType), nil, r)
				validationErr.StatusCode = raw.StatusCode
			}
		}

		switch {
		case protocolErr != nil && validationErr != nil:
			protocolErr.Cause = validationErr
			err = protocolErr
		case protocolErr != nil:
			err = protocolErr
		case validationErr != nil:
			err = validationErr
		}

		if validationErr == nil {
			body, decodeErr := decodeBody(raw.Body, r.ResponseSerializer)
			resp.Body = body
			if decodeErr != nil && err == nil {
				serializationErr := newRequestError(ErrorTypeSerialization, "failed to decode response body", decodeErr, r)
				serializationErr.StatusCode = raw.StatusCode
				err = serializationErr
			}
		}
	}

	if hookErr := hook(resp.Body, raw, err); hookErr != nil {
		err = hookErr
	}
	resp.Err = err
	return resp
}

// processCached turns a cache hit into a successful Response. The error hook
// already saw this body when it was stored, so it is not consulted again.
func processCached(entry *CachedEntry, r *ResolvedRequest) *Response {
	resp := &Response{
		StatusCode: entry.StatusCode,
		Header:     entry.Header,
		RawBody:    entry.Body,
		FromCache:  true,
		Request:    r,
	}
	body, err := decodeBody(entry.Body, r.ResponseSerializer)
	resp.Body = body
	if err != nil {
		resp.Err = newRequestError(ErrorTypeSerialization, "failed to decode cached response body", err, r)
	}
	return resp
}

func decodeBody(data []byte, serializer ResponseSerializer) (any, error) {
	switch serializer {
	case ResponseRaw:
		return data, nil
	case ResponseJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var body any
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return body, nil
	default:
		return nil, fmt.Errorf("unknown response serializer %v", serializer)
	}
}

// acceptableContentType matches the media type of header against accepted,
// which may contain "type/*" and "*/*" wildcards.
func acceptableContentType(header string, accepted []string) bool {
	if header == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	major, _, _ := strings.Cut(mediaType, "/")
	for _, a := range accepted {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "*/*" || a == mediaType {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && prefix == major {
			return true
		}
	}
	return false
}

func statusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("unexpected status: %s", text)
	}
	return "unexpected status"
}
