package restclient

import (
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request describes a single API call. It must not be modified after it has
// been handed to the client.
type Request struct {
	// Method defaults to GET, or POST for uploads.
	Method string
	// Path is relative to Host + APIPath. It may carry a query string whose
	// values act as parameters with lower precedence than Parameters.
	Path string
	// Parameters are sent in the query string for GET, HEAD and DELETE, and
	// encoded as the body for other methods unless Body is set.
	Parameters map[string]any
	// Body is sent verbatim when it is []byte, string or io.Reader, and
	// encoded with the request serializer otherwise.
	Body any

	Overrides *Overrides
	// Upload turns the request into a multipart/form-data upload.
	Upload *Upload
}

// Overrides replaces selected client-wide settings for one request. Nil
// fields inherit the client configuration.
type Overrides struct {
	RequestSerializer  *RequestSerializer
	ResponseSerializer *ResponseSerializer
	Timeout            *time.Duration
	// AcceptableContentTypes replaces the configured set when non-nil. An
	// empty, non-nil slice disables validation.
	AcceptableContentTypes []string
	// Header is merged over HeaderParameters.
	Header          map[string]string
	CacheManagement *CacheManagement
}

// Upload describes a streamed file part of a multipart upload.
type Upload struct {
	// FieldName is the form field of the file part. Defaults to "file".
	FieldName string
	FileName  string
	// MIMEType defaults to application/octet-stream.
	MIMEType string
	Reader   io.Reader
	// Size is the total number of bytes Reader yields, or -1 if unknown.
	Size int64
	// Progress receives samples on the completion queue while the file is
	// sent. Samples stop once the task is cancelled or completed.
	Progress func(Progress)
}

// Progress is a single upload progress sample.
type Progress struct {
	Sent  int64
	Total int64
}

// Fraction returns Sent/Total, or 0 if Total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Sent) / float64(p.Total)
}

// ResolvedRequest is a Request merged with a configuration snapshot, ready
// for transport. It lives for the duration of one call.
type ResolvedRequest struct {
	ID     string
	Method string
	// URL is scheme, host and path without query.
	URL        *url.URL
	Parameters map[string]any
	Header     http.Header
	// Body holds the encoded body. Uploads stream their body instead.
	Body []byte

	RequestSerializer      RequestSerializer
	ResponseSerializer     ResponseSerializer
	Timeout                time.Duration
	AcceptableContentTypes []string
	CacheManagement        CacheManagement
	LogLevel               LogLevel
	Upload                 *Upload

	paramsInQuery bool
}

// ParametersInQuery reports whether Parameters are sent in the query string.
func (r *ResolvedRequest) ParametersInQuery() bool {
	return r.paramsInQuery
}

// FullURL returns the URL actually requested, including the query string.
func (r *ResolvedRequest) FullURL() string {
	if r.URL == nil {
		return ""
	}
	if !r.paramsInQuery || len(r.Parameters) == 0 {
		return r.URL.String()
	}
	u := *r.URL
	u.RawQuery = formValues(r.Parameters).Encode()
	return u.String()
}

// formValues flattens parameters into url.Values. String slices become
// repeated keys; other values use canonicalValue.
func formValues(params map[string]any) url.Values {
	values := make(url.Values, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case []string:
			for _, s := range val {
				values.Add(k, s)
			}
		case []any:
			for _, e := range val {
				values.Add(k, canonicalValue(e))
			}
		default:
			values.Set(k, canonicalValue(v))
		}
	}
	return values
}
