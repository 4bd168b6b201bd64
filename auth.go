package restclient

import (
	"encoding/base64"
	"net/http"

	"golang.org/x/oauth2"
)

// SetAuthorizationHeader sends value verbatim as the Authorization header of
// subsequent requests.
func (c *Client) SetAuthorizationHeader(value string) {
	c.Reconfigure(func(cfg *Configuration) {
		cfg.AuthorizationHeader = value
	})
}

// SetBearerToken authorizes subsequent requests with "Bearer <token>".
func (c *Client) SetBearerToken(token string) {
	c.SetAuthorizationHeader("Bearer " + token)
}

// SetBasicAuth authorizes subsequent requests with HTTP basic credentials.
func (c *Client) SetBasicAuth(username, password string) {
	c.SetAuthorizationHeader("Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password)))
}

// SetTokenSource authorizes subsequent requests with tokens from ts. An
// explicit Authorization header still takes precedence.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.Reconfigure(func(cfg *Configuration) {
		cfg.TokenSource = ts
	})
}

// SetOAuth2Token authorizes subsequent requests with a fixed token.
func (c *Client) SetOAuth2Token(token *oauth2.Token) {
	c.SetTokenSource(oauth2.StaticTokenSource(token))
}

// RemoveAuthorizationHeaders drops every configured form of authorization.
func (c *Client) RemoveAuthorizationHeaders() {
	c.Reconfigure(func(cfg *Configuration) {
		cfg.AuthorizationHeader = ""
		cfg.TokenSource = nil
		for name := range cfg.HeaderParameters {
			if http.CanonicalHeaderKey(name) == "Authorization" {
				delete(cfg.HeaderParameters, name)
			}
		}
	})
}
