package restclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testConfiguration() *Configuration {
	cfg := DefaultConfiguration()
	cfg.Host = "https://API.example.com"
	cfg.APIPath = "/v2"
	cfg.Languages = []string{"pt-BR", "en"}
	return cfg
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("token endpoint down")
}

func TestResolveRequiresHost(t *testing.T) {
	cfg := testConfiguration()
	cfg.Host = ""

	_, err := resolve(&Request{Path: "/items"}, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolveRejectsMalformedPaths(t *testing.T) {
	for _, path := range []string{
		"https://evil.example.com/items",
		"//evil.example.com/items",
		"/items with space",
		"/items#top",
		"/%zz",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := resolve(&Request{Path: path}, testConfiguration())
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestResolveBuildsURL(t *testing.T) {
	tests := []struct {
		host, apiPath, path, expected string
	}{
		{"https://api.example.com", "/v2", "/items", "https://api.example.com/v2/items"},
		{"https://api.example.com/", "/v2/", "items/", "https://api.example.com/v2/items/"},
		{"https://api.example.com/base", "", "items", "https://api.example.com/base/items"},
		{"HTTPS://API.EXAMPLE.COM", "", "", "https://api.example.com/"},
	}

	for _, tt := range tests {
		cfg := testConfiguration()
		cfg.Host = tt.host
		cfg.APIPath = tt.apiPath

		r, err := resolve(&Request{Path: tt.path}, cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, r.URL.String())
	}
}

func TestResolveParameterPrecedence(t *testing.T) {
	cfg := testConfiguration()
	cfg.GlobalParameters = map[string]any{"a": "global", "b": "global", "c": "global"}

	r, err := resolve(&Request{
		Path:       "/items?b=path&c=path",
		Parameters: map[string]any{"c": "request"},
	}, cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": "global", "b": "path", "c": "request"}, r.Parameters)
	assert.True(t, r.ParametersInQuery())
	assert.Equal(t, "https://api.example.com/v2/items?a=global&b=path&c=request", r.FullURL())
}

func TestResolveLanguageParameter(t *testing.T) {
	cfg := testConfiguration()
	cfg.InsertLanguageAsParameter = true

	r, err := resolve(&Request{Method: "POST", Path: "/items"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", r.Parameters["language"])

	r, err = resolve(&Request{Method: "POST", Path: "/items", Parameters: map[string]any{"language": "de"}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "de", r.Parameters["language"])
}

func TestResolveJSONBodyFromParameters(t *testing.T) {
	r, err := resolve(&Request{
		Method:     "post",
		Path:       "/items",
		Parameters: map[string]any{"name": "widget", "count": 3},
	}, testConfiguration())
	require.NoError(t, err)

	assert.Equal(t, "POST", r.Method)
	assert.False(t, r.ParametersInQuery())
	assert.Equal(t, "https://api.example.com/v2/items", r.FullURL())
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &decoded))
	assert.Equal(t, map[string]any{"name": "widget", "count": float64(3)}, decoded)
}

func TestResolveFormBody(t *testing.T) {
	cfg := testConfiguration()
	cfg.RequestSerializer = SerializerFormURLEncoded

	r, err := resolve(&Request{
		Method:     "PUT",
		Path:       "/items/1",
		Parameters: map[string]any{"tags": []string{"a", "b"}, "name": "x y"},
	}, cfg)
	require.NoError(t, err)

	values, err := url.ParseQuery(string(r.Body))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values["tags"])
	assert.Equal(t, "x y", values.Get("name"))
	assert.Equal(t, "application/x-www-form-urlencoded; charset=utf-8", r.Header.Get("Content-Type"))
}

func TestResolveFormRejectsStructBody(t *testing.T) {
	cfg := testConfiguration()
	cfg.RequestSerializer = SerializerFormURLEncoded

	_, err := resolve(&Request{Method: "POST", Path: "/items", Body: struct{ A int }{1}}, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrSerialization)
}

func TestResolveRejectsEmptyLanguageParameterName(t *testing.T) {
	cfg := testConfiguration()
	cfg.InsertLanguageAsParameter = true
	cfg.LanguageParameterName = ""

	r, err := resolve(&Request{Path: "/items", Parameters: map[string]any{"q": "go"}}, cfg)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolveExplicitBodyMovesParametersToQuery(t *testing.T) {
	r, err := resolve(&Request{
		Method:     "POST",
		Path:       "/items",
		Parameters: map[string]any{"dry_run": true},
		Body:       strings.NewReader(`{"raw":true}`),
	}, testConfiguration())
	require.NoError(t, err)

	assert.Equal(t, []byte(`{"raw":true}`), r.Body)
	assert.True(t, r.ParametersInQuery())
	assert.Equal(t, "https://api.example.com/v2/items?dry_run=true", r.FullURL())
}

func TestResolveHeaders(t *testing.T) {
	cfg := testConfiguration()
	cfg.HeaderParameters = map[string]string{"X-App": "demo", "Accept": "text/plain"}
	cfg.AcceptableContentTypes = []string{"application/json", "text/json"}
	cfg.AuthorizationHeader = "Bearer abc"

	r, err := resolve(&Request{
		Path:      "/items",
		Overrides: &Overrides{Header: map[string]string{"X-App": "override", "Accept": ""}},
	}, cfg)
	require.NoError(t, err)

	assert.Equal(t, "override", r.Header.Get("X-App"))
	assert.Equal(t, "application/json, text/json", r.Header.Get("Accept"))
	assert.Equal(t, "pt-BR, en;q=0.9", r.Header.Get("Accept-Language"))
	assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
	assert.Equal(t, "", r.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "restclient/"))
}

func TestResolveWithoutAcceptLanguage(t *testing.T) {
	cfg := testConfiguration()
	cfg.InsertAcceptLanguageHeader = false

	r, err := resolve(&Request{Path: "/items"}, cfg)
	require.NoError(t, err)
	assert.Empty(t, r.Header.Get("Accept-Language"))
}

func TestResolveTokenSource(t *testing.T) {
	cfg := testConfiguration()
	cfg.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok", TokenType: "bearer"})

	r, err := resolve(&Request{Path: "/items"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

	cfg.AuthorizationHeader = "Basic Zm9vOmJhcg=="
	r, err = resolve(&Request{Path: "/items"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Basic Zm9vOmJhcg==", r.Header.Get("Authorization"))

	cfg.AuthorizationHeader = ""
	cfg.TokenSource = failingTokenSource{}
	_, err = resolve(&Request{Path: "/items"}, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolveOverrides(t *testing.T) {
	r, err := resolve(&Request{
		Path: "/items",
		Overrides: &Overrides{
			RequestSerializer:      Ptr(SerializerFormURLEncoded),
			ResponseSerializer:     Ptr(ResponseRaw),
			Timeout:                Ptr(5 * time.Second),
			AcceptableContentTypes: []string{},
			CacheManagement:        Ptr(CacheOffline),
		},
	}, testConfiguration())
	require.NoError(t, err)

	assert.Equal(t, SerializerFormURLEncoded, r.RequestSerializer)
	assert.Equal(t, ResponseRaw, r.ResponseSerializer)
	assert.Equal(t, 5*time.Second, r.Timeout)
	assert.Empty(t, r.AcceptableContentTypes)
	assert.Equal(t, CacheOffline, r.CacheManagement)
}

func TestResolveUploadDefaults(t *testing.T) {
	r, err := resolve(&Request{
		Path:       "/files",
		Parameters: map[string]any{"album": "1"},
		Upload:     &Upload{Reader: strings.NewReader("data"), FileName: "a.txt"},
	}, testConfiguration())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, r.Method)
	assert.False(t, r.ParametersInQuery())
	assert.Empty(t, r.Body)

	_, err = resolve(&Request{Path: "/files", Upload: &Upload{}}, testConfiguration())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolveDoesNotMutateConfiguration(t *testing.T) {
	cfg := testConfiguration()
	cfg.GlobalParameters = map[string]any{"g": "1"}
	cfg.HeaderParameters = map[string]string{"X-App": "demo"}
	cfg.AcceptableContentTypes = []string{"application/json"}
	cfg.InsertLanguageAsParameter = true
	snapshot := cfg.Clone()

	for _, req := range []*Request{
		{Path: "/a?x=1", Parameters: map[string]any{"g": "2"}},
		{Method: "POST", Path: "/b", Parameters: map[string]any{"p": 1}},
		{Path: "/c", Overrides: &Overrides{Header: map[string]string{"X-App": "other"}, AcceptableContentTypes: []string{"text/plain"}}},
	} {
		r, err := resolve(req, cfg)
		require.NoError(t, err)
		r.Parameters["mutated"] = true
		r.AcceptableContentTypes = append(r.AcceptableContentTypes, "x/y")
	}

	assert.Equal(t, snapshot, cfg)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/", joinPath("", "", ""))
	assert.Equal(t, "/a/b/c", joinPath("/a/", "/b", "c"))
	assert.Equal(t, "/a/b/", joinPath("a", "b/"))
}
