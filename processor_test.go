package restclient

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processorRequest() *ResolvedRequest {
	return &ResolvedRequest{
		ID:                 "req-1",
		Method:             "GET",
		URL:                &url.URL{Scheme: "https", Host: "api.example.com", Path: "/items"},
		ResponseSerializer: ResponseJSON,
	}
}

func jsonResponse(status int, body string) *RawResponse {
	return &RawResponse{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json; charset=utf-8"}},
		Body:       []byte(body),
	}
}

type hookCall struct {
	body     any
	raw      *RawResponse
	incoming error
}

func recordingHook(calls *[]hookCall, ret error) ErrorHook {
	return func(body any, raw *RawResponse, incoming error) error {
		*calls = append(*calls, hookCall{body, raw, incoming})
		return ret
	}
}

func TestProcessSuccess(t *testing.T) {
	var calls []hookCall
	resp := process(jsonResponse(200, `{"id":7}`), nil, processorRequest(), recordingHook(&calls, nil))

	require.False(t, resp.Failed())
	assert.Equal(t, map[string]any{"id": float64(7)}, resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	require.Len(t, calls, 1)
	assert.Equal(t, resp.Body, calls[0].body)
	assert.NotNil(t, calls[0].raw)
	assert.NoError(t, calls[0].incoming)
}

func TestProcessHookOverridesSuccess(t *testing.T) {
	appErr := errors.New("application error: quota exceeded")
	var calls []hookCall
	resp := process(jsonResponse(200, `{"error":"quota"}`), nil, processorRequest(), recordingHook(&calls, appErr))

	assert.True(t, resp.Failed())
	assert.Same(t, appErr, resp.Err)
	assert.Equal(t, map[string]any{"error": "quota"}, resp.Body)
	assert.Len(t, calls, 1)
}

func TestProcessHookNilKeepsError(t *testing.T) {
	resp := process(jsonResponse(404, `{"message":"not found"}`), nil, processorRequest(), noopErrorHook)

	require.True(t, resp.Failed())
	assert.ErrorIs(t, resp.Err, ErrProtocol)
	assert.Equal(t, map[string]any{"message": "not found"}, resp.Body)

	var clientErr *ClientError
	require.ErrorAs(t, resp.Err, &clientErr)
	assert.Equal(t, 404, clientErr.StatusCode)
	assert.Equal(t, "req-1", clientErr.RequestID)
}

func TestProcessValidationSkipsDecoding(t *testing.T) {
	r := processorRequest()
	r.AcceptableContentTypes = []string{"application/json"}
	raw := &RawResponse{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       []byte("<html>not json</html>"),
	}

	var calls []hookCall
	resp := process(raw, nil, r, recordingHook(&calls, nil))

	require.True(t, resp.Failed())
	assert.ErrorIs(t, resp.Err, ErrValidation)
	assert.NotErrorIs(t, resp.Err, ErrSerialization)
	assert.Nil(t, resp.Body)
	assert.Equal(t, raw.Body, resp.RawBody)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].body)
	assert.ErrorIs(t, calls[0].incoming, ErrValidation)
}

func TestProcessValidationWildcards(t *testing.T) {
	assert.True(t, acceptableContentType("text/plain; charset=utf-8", []string{"text/*"}))
	assert.True(t, acceptableContentType("image/png", []string{"*/*"}))
	assert.True(t, acceptableContentType("Application/JSON", []string{"application/json"}))
	assert.False(t, acceptableContentType("", []string{"application/json"}))
	assert.False(t, acceptableContentType("text/plain", []string{"application/json"}))
}

func TestProcessValidationIgnoresEmptyBody(t *testing.T) {
	r := processorRequest()
	r.AcceptableContentTypes = []string{"application/json"}

	resp := process(&RawResponse{StatusCode: 204, Header: http.Header{}}, nil, r, noopErrorHook)
	assert.False(t, resp.Failed())
	assert.Nil(t, resp.Body)
}

func TestProcessProtocolWithValidationCause(t *testing.T) {
	r := processorRequest()
	r.AcceptableContentTypes = []string{"application/json"}
	raw := &RawResponse{
		StatusCode: 502,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       []byte("<h1>Bad Gateway</h1>"),
	}

	resp := process(raw, nil, r, noopErrorHook)
	assert.ErrorIs(t, resp.Err, ErrProtocol)
	assert.ErrorIs(t, resp.Err, ErrValidation)
}

func TestProcessSerializationError(t *testing.T) {
	resp := process(jsonResponse(200, `{"broken"`), nil, processorRequest(), noopErrorHook)

	require.True(t, resp.Failed())
	assert.ErrorIs(t, resp.Err, ErrSerialization)
	assert.Nil(t, resp.Body)
}

func TestProcessProtocolErrorWinsOverSerialization(t *testing.T) {
	resp := process(jsonResponse(500, `oops`), nil, processorRequest(), noopErrorHook)

	assert.ErrorIs(t, resp.Err, ErrProtocol)
	assert.NotErrorIs(t, resp.Err, ErrSerialization)
}

func TestProcessRawSerializer(t *testing.T) {
	r := processorRequest()
	r.ResponseSerializer = ResponseRaw

	resp := process(&RawResponse{StatusCode: 200, Header: http.Header{}, Body: []byte("bytes")}, nil, r, noopErrorHook)
	require.False(t, resp.Failed())
	assert.Equal(t, []byte("bytes"), resp.Body)
}

func TestProcessTransportErrors(t *testing.T) {
	var calls []hookCall
	resp := process(nil, &TransportError{Connectivity: true, Err: errors.New("dial tcp: refused")}, processorRequest(), recordingHook(&calls, nil))
	assert.ErrorIs(t, resp.Err, ErrConnectivity)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].raw)
	assert.Nil(t, calls[0].body)

	resp = process(nil, &TransportError{Err: errors.New("read: connection reset")}, processorRequest(), noopErrorHook)
	assert.ErrorIs(t, resp.Err, ErrProtocol)
	assert.Equal(t, 0, resp.StatusCode)
}

func TestProcessCached(t *testing.T) {
	entry := &CachedEntry{StatusCode: 200, Header: http.Header{}, Body: []byte(`[1,2]`)}
	resp := processCached(entry, processorRequest())

	assert.False(t, resp.Failed())
	assert.True(t, resp.FromCache)
	assert.Equal(t, []any{float64(1), float64(2)}, resp.Body)
}

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	resp := &Response{RawBody: []byte(`{"id":3,"name":"widget"}`)}

	got, err := Decode[item](resp)
	require.NoError(t, err)
	assert.Equal(t, item{ID: 3, Name: "widget"}, got)

	_, err = Decode[item](&Response{})
	assert.ErrorIs(t, err, ErrSerialization)

	_, err = Decode[item](&Response{RawBody: []byte(`[`)})
	assert.ErrorIs(t, err, ErrSerialization)
}
