package restclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/ambiyansyah-risyal/restclient/internal/locale"
)

// resolve merges req with the configuration snapshot cfg. It never mutates
// cfg. All failures are ConfigurationErrors and no request is attempted.
func resolve(req *Request, cfg *Configuration) (*ResolvedRequest, error) {
	if req == nil {
		return nil, configurationError("request is nil", nil)
	}
	base, err := cfg.baseURL()
	if err != nil {
		return nil, configurationError("invalid host", err)
	}
	if cfg.APIPath != "" && !strings.HasPrefix(cfg.APIPath, "/") {
		return nil, configurationError(fmt.Sprintf("API path %q must start with \"/\"", cfg.APIPath), nil)
	}
	if cfg.InsertLanguageAsParameter && cfg.LanguageParameterName == "" {
		return nil, configurationError("language parameter name is empty", nil)
	}
	ref, err := parsePath(req.Path)
	if err != nil {
		return nil, configurationError(fmt.Sprintf("malformed path %q", req.Path), err)
	}

	r := &ResolvedRequest{
		Method:                 resolveMethod(req),
		RequestSerializer:      cfg.RequestSerializer,
		ResponseSerializer:     cfg.ResponseSerializer,
		Timeout:                cfg.Timeout,
		AcceptableContentTypes: slices.Clone(cfg.AcceptableContentTypes),
		CacheManagement:        cfg.CacheManagement,
		LogLevel:               cfg.LogLevel,
		Upload:                 req.Upload,
	}
	if o := req.Overrides; o != nil {
		if o.RequestSerializer != nil {
			r.RequestSerializer = *o.RequestSerializer
		}
		if o.ResponseSerializer != nil {
			r.ResponseSerializer = *o.ResponseSerializer
		}
		if o.Timeout != nil {
			r.Timeout = *o.Timeout
		}
		if o.AcceptableContentTypes != nil {
			r.AcceptableContentTypes = slices.Clone(o.AcceptableContentTypes)
		}
		if o.CacheManagement != nil {
			r.CacheManagement = *o.CacheManagement
		}
	}
	if r.Upload != nil && r.Upload.Reader == nil {
		return nil, configurationError("upload has no reader", nil)
	}

	u := *base
	u.Path = joinPath(base.Path, cfg.APIPath, ref.Path)
	u.RawPath = ""
	r.URL = &u

	r.Parameters = mergeParameters(cfg, ref.Query(), req.Parameters)
	r.paramsInQuery = r.Upload == nil && (req.Body != nil || encodesParametersInQuery(r.Method))

	switch {
	case req.Body != nil:
		r.Body, err = encodeBody(req.Body, r.RequestSerializer)
	case r.Upload == nil && !r.paramsInQuery && len(r.Parameters) > 0:
		r.Body, err = encodeBody(r.Parameters, r.RequestSerializer)
	}
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeConfiguration, Message: "failed to encode request body", Cause: err, Method: r.Method, URL: r.URL.String()}
	}

	r.Header, err = buildHeader(req, cfg, r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func resolveMethod(req *Request) string {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method != "" {
		return method
	}
	if req.Upload != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

func encodesParametersInQuery(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

// parsePath accepts relative references only; absolute URLs, fragments and
// whitespace are malformed.
func parsePath(p string) (*url.URL, error) {
	if strings.ContainsAny(p, " \t\r\n") {
		return nil, fmt.Errorf("path contains whitespace")
	}
	ref, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("path must be relative to the configured host")
	}
	if ref.Fragment != "" || strings.Contains(p, "#") {
		return nil, fmt.Errorf("path must not contain a fragment")
	}
	return ref, nil
}

// joinPath joins path segments with single slashes, keeping a trailing slash
// on the last segment.
func joinPath(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			segs = append(segs, p)
		}
	}
	joined := "/" + strings.Join(segs, "/")
	if last := parts[len(parts)-1]; joined != "/" && strings.HasSuffix(last, "/") {
		joined += "/"
	}
	return joined
}

// mergeParameters overlays, in increasing precedence: global parameters,
// query values embedded in the path, and per-request parameters. The
// language parameter is added last when enabled and absent.
func mergeParameters(cfg *Configuration, query url.Values, params map[string]any) map[string]any {
	merged := make(map[string]any, len(cfg.GlobalParameters)+len(query)+len(params)+1)
	for k, v := range cfg.GlobalParameters {
		merged[k] = v
	}
	for k, vs := range query {
		if len(vs) == 1 {
			merged[k] = vs[0]
		} else {
			merged[k] = slices.Clone(vs)
		}
	}
	for k, v := range params {
		merged[k] = v
	}
	if cfg.InsertLanguageAsParameter {
		if _, set := merged[cfg.LanguageParameterName]; !set {
			if lang := locale.Preferred(cfg.Languages); lang != "" {
				merged[cfg.LanguageParameterName] = lang
			}
		}
	}
	return merged
}

func encodeBody(body any, serializer RequestSerializer) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return bytes.Clone(b), nil
	case json.RawMessage:
		return bytes.Clone(b), nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	}

	switch serializer {
	case SerializerJSON:
		return json.Marshal(body)
	case SerializerFormURLEncoded:
		switch v := body.(type) {
		case map[string]any:
			return []byte(formValues(v).Encode()), nil
		case map[string]string:
			values := make(url.Values, len(v))
			for k, s := range v {
				values.Set(k, s)
			}
			return []byte(values.Encode()), nil
		case url.Values:
			return []byte(v.Encode()), nil
		default:
			return nil, fmt.Errorf("form serializer cannot encode %T", body)
		}
	default:
		return nil, fmt.Errorf("unknown request serializer %v", serializer)
	}
}

// buildHeader layers header parameters, overrides, Accept-Language and Accept,
// then Authorization and Content-Type.
func buildHeader(req *Request, cfg *Configuration, r *ResolvedRequest) (http.Header, error) {
	h := make(http.Header, len(cfg.HeaderParameters)+4)
	for k, v := range cfg.HeaderParameters {
		h.Set(k, v)
	}
	if req.Overrides != nil {
		for k, v := range req.Overrides.Header {
			h.Set(k, v)
		}
	}

	if cfg.InsertAcceptLanguageHeader && h.Get("Accept-Language") == "" {
		if value := locale.AcceptLanguage(cfg.Languages); value != "" {
			h.Set("Accept-Language", value)
		}
	}
	if len(r.AcceptableContentTypes) > 0 && h.Get("Accept") == "" {
		h.Set("Accept", strings.Join(r.AcceptableContentTypes, ", "))
	}

	switch {
	case cfg.AuthorizationHeader != "":
		h.Set("Authorization", cfg.AuthorizationHeader)
	case cfg.TokenSource != nil:
		tok, err := cfg.TokenSource.Token()
		if err != nil {
			return nil, configurationError("authorization token unavailable", err)
		}
		h.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	}

	if h.Get("User-Agent") == "" {
		h.Set("User-Agent", userAgent())
	}
	if len(r.Body) > 0 && h.Get("Content-Type") == "" {
		h.Set("Content-Type", r.RequestSerializer.ContentType())
	}
	return h, nil
}
