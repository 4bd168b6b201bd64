package restclient

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ambiyansyah-risyal/restclient/internal/locale"
)

// DefaultTimeout is the request timeout used when none is configured.
const DefaultTimeout = 60 * time.Second

// DefaultLanguageParameterName is the body parameter that carries the
// preferred language when InsertLanguageAsParameter is set.
const DefaultLanguageParameterName = "language"

// Configuration holds client-wide defaults. A Client keeps it as an immutable
// snapshot; Reconfigure replaces the whole value, so a request in flight
// always sees one consistent configuration.
type Configuration struct {
	// Host is the server root, e.g. "https://api.example.com".
	Host string
	// APIPath is inserted between the host and the request path, e.g. "/v2".
	// It must start with "/".
	APIPath string

	RequestSerializer  RequestSerializer
	ResponseSerializer ResponseSerializer
	Timeout            time.Duration

	// CompletionQueue receives completion callbacks. If nil, the client's
	// own serial queue is used.
	CompletionQueue CompletionQueue

	// AcceptableContentTypes enables Content-Type validation when non-empty.
	AcceptableContentTypes []string

	// GlobalParameters are merged into every request. Per-request parameters
	// win on key collision. Values are treated as read-only.
	GlobalParameters map[string]any
	HeaderParameters map[string]string

	// AuthorizationHeader is sent verbatim when non-empty. It takes
	// precedence over TokenSource.
	AuthorizationHeader string
	// TokenSource supplies OAuth2 tokens when AuthorizationHeader is empty.
	TokenSource oauth2.TokenSource

	CacheManagement CacheManagement
	LogLevel        LogLevel

	InsertAcceptLanguageHeader bool
	InsertLanguageAsParameter  bool
	LanguageParameterName      string
	// Languages lists preferred languages, most preferred first.
	Languages []string
}

// DefaultConfiguration returns a configuration with the library defaults.
// Host is left empty and must be set before requests are made.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		RequestSerializer:          SerializerJSON,
		ResponseSerializer:         ResponseJSON,
		Timeout:                    DefaultTimeout,
		CacheManagement:            CacheDefault,
		LogLevel:                   LogNone,
		InsertAcceptLanguageHeader: true,
		InsertLanguageAsParameter:  false,
		LanguageParameterName:      DefaultLanguageParameterName,
		Languages:                  locale.FromEnvironment(),
	}
}

// Clone returns a copy that shares no maps or slices with c.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	clone := *c
	clone.AcceptableContentTypes = slices.Clone(c.AcceptableContentTypes)
	clone.GlobalParameters = maps.Clone(c.GlobalParameters)
	clone.HeaderParameters = maps.Clone(c.HeaderParameters)
	clone.Languages = slices.Clone(c.Languages)
	return &clone
}

// Validate checks the configuration and returns a ConfigurationError listing
// every problem found.
func (c *Configuration) Validate() error {
	var errors []string

	if _, err := c.baseURL(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.APIPath != "" && !strings.HasPrefix(c.APIPath, "/") {
		errors = append(errors, "APIPath must start with \"/\"")
	}
	if c.Timeout < 0 {
		errors = append(errors, "Timeout must be non-negative")
	}
	if c.InsertLanguageAsParameter && c.LanguageParameterName == "" {
		errors = append(errors, "LanguageParameterName must be set when InsertLanguageAsParameter is enabled")
	}

	if len(errors) > 0 {
		return configurationError("configuration validation failed", fmt.Errorf("validation errors: %v", errors))
	}
	return nil
}

func (c *Configuration) baseURL() (*url.URL, error) {
	if strings.TrimSpace(c.Host) == "" {
		return nil, fmt.Errorf("host is not set")
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return nil, fmt.Errorf("host %q is not a valid URL: %w", c.Host, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("host %q must use http or https", c.Host)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host %q has no host name", c.Host)
	}
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
