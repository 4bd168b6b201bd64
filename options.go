package restclient

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// WithConfiguration replaces the initial configuration with a copy of cfg.
func WithConfiguration(cfg *Configuration) Option {
	return func(c *Client) {
		if cfg != nil {
			c.config.Store(cfg.Clone())
		}
	}
}

// WithConfigurator edits the initial configuration in place.
func WithConfigurator(fn func(cfg *Configuration)) Option {
	return func(c *Client) {
		c.Reconfigure(fn)
	}
}

// WithHost sets the server root, e.g. "https://api.example.com".
func WithHost(host string) Option {
	return WithConfigurator(func(cfg *Configuration) {
		cfg.Host = host
	})
}

// WithTimeout sets the default request timeout
func WithTimeout(d time.Duration) Option {
	return WithConfigurator(func(cfg *Configuration) {
		cfg.Timeout = d
	})
}

// WithCacheManagement sets the cache policy for all requests.
func WithCacheManagement(policy CacheManagement) Option {
	return WithConfigurator(func(cfg *Configuration) {
		cfg.CacheManagement = policy
	})
}

// WithTransport replaces the HTTP transport, typically with a fake in tests.
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithHTTPClient sets the *http.Client used by the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMiddleware wraps the transport. The first middleware is the outermost.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithCacheStore sets the store used for offline fallback.
func WithCacheStore(store CacheStore) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithPersistentCache stores offline fallback entries on disk under dir.
func WithPersistentCache(dir string) Option {
	return func(c *Client) {
		c.cache = NewPersistentCache(dir)
	}
}

// WithCacheCondition sets a custom cache condition function
func WithCacheCondition(fn CacheCondition) Option {
	return func(c *Client) {
		c.cacheCondition = fn
	}
}

// WithKeyHasher replaces the MD5 cache key hasher.
func WithKeyHasher(hasher KeyHasher) Option {
	return func(c *Client) {
		c.keyHasher = hasher
	}
}

// WithErrorHook sets the hook consulted on every completed exchange.
func WithErrorHook(hook ErrorHook) Option {
	return func(c *Client) {
		c.errorHook = hook
	}
}

// WithErrorNotifier registers fn to observe every failed response before it
// is delivered. fn runs on the request goroutine.
func WithErrorNotifier(fn func(*Response)) Option {
	return func(c *Client) {
		c.errorNotifier = fn
	}
}

// WithCompletionQueue sets where completion callbacks run.
func WithCompletionQueue(queue CompletionQueue) Option {
	return WithConfigurator(func(cfg *Configuration) {
		cfg.CompletionQueue = queue
	})
}

// WithRateLimiter sets the rate limiter
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithRateLimit limits outgoing requests to limit per second with burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiterWithLimit(limit, burst)
	}
}

// WithMetrics enables metrics on the default Prometheus registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsRegisterer enables metrics on registerer.
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollectorWithRegistry(registerer)
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a custom logger
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger logs to stderr with a console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		c.logger = NewSimpleLogger()
	}
}

// WithLogLevel selects which exchanges are logged.
func WithLogLevel(level LogLevel) Option {
	return WithConfigurator(func(cfg *Configuration) {
		cfg.LogLevel = level
	})
}

// WithRequestIDGenerator sets a custom request ID generator
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestIDGen = gen
	}
}

// WithTokenSource authorizes requests with tokens from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return WithConfigurator(func(cfg *Configuration) {
		cfg.TokenSource = ts
	})
}

// WithClientCredentials authorizes requests with the OAuth2 client
// credentials flow. Tokens are cached and refreshed on expiry.
func WithClientCredentials(config *clientcredentials.Config) Option {
	return func(c *Client) {
		ctx := context.Background()
		if c.httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
		}
		ts := config.TokenSource(ctx)
		c.Reconfigure(func(cfg *Configuration) {
			cfg.TokenSource = ts
		})
	}
}

// ValidateConfiguration validates the current configuration snapshot.
func (c *Client) ValidateConfiguration() error {
	return c.Configuration().Validate()
}
