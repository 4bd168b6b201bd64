package restclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

// TransportRequest is the wire-level description handed to a Transport.
type TransportRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Upload, when set, replaces Body with a multipart/form-data stream made
	// of Fields followed by the file part.
	Upload *Upload
	Fields url.Values
	// Progress receives (sent, total) byte counts of the upload file part.
	Progress func(sent, total int64)

	Timeout time.Duration
}

// RawResponse is a completed HTTP exchange with the body fully read.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs a single HTTP exchange. Implementations return
// context.Canceled when ctx is cancelled by the caller, a *TransportError for
// every other failure, and a RawResponse for any received status.
type Transport interface {
	RoundTrip(ctx context.Context, req *TransportRequest) (*RawResponse, error)
}

// TransportError is a failed exchange. Connectivity is set when the network
// path itself was unavailable (DNS, dial, unreachable network).
type TransportError struct {
	Connectivity bool
	Err          error
}

func (e *TransportError) Error() string {
	if e.Connectivity {
		return fmt.Sprintf("connectivity failure: %v", e.Err)
	}
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPTransport is the default Transport backed by *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client. A nil client gets a fresh *http.Client whose
// per-request timeout is driven by TransportRequest.Timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, req *TransportRequest) (*RawResponse, error) {
	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Upload != nil:
		var pr io.ReadCloser
		pr, contentType = newMultipartBody(req.Upload, req.Fields, req.Progress)
		body = pr
	case len(req.Body) > 0:
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, req.URL, body)
	if err != nil {
		if c, ok := body.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, &TransportError{Err: err}
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// classifyTransportError maps a net/http failure onto the transport error
// contract. parent is the caller's context, before any timeout was applied.
func classifyTransportError(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return context.Canceled
	}
	return &TransportError{Connectivity: isConnectivityError(err), Err: err}
}

// isConnectivityError reports failures to reach the server at all. Failures
// after a connection was established, including timeouts, are not.
func isConnectivityError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
		syscall.ENETDOWN,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
