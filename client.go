package restclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ambiyansyah-risyal/restclient/internal/curl"
)

// Client turns Requests into HTTP exchanges against one API host. It applies
// client-wide configuration, processes responses uniformly and, under
// CacheOffline, serves stored responses when the network is unreachable.
// It is safe for concurrent use.
type Client struct {
	config atomic.Pointer[Configuration]

	transport      Transport
	httpClient     *http.Client
	middleware     []Middleware
	cache          CacheStore
	cacheCondition CacheCondition
	keyHasher      KeyHasher
	errorHook      ErrorHook
	errorNotifier  func(*Response)
	rateLimiter    *RateLimiter
	metrics        *MetricsCollector
	logger         Logger
	requestIDGen   func() string

	queueOnce sync.Once
	queue     *SerialQueue

	closeMu  sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// New constructs a Client using the provided functional options. The
// configuration starts from DefaultConfiguration; a Host must be set before
// requests succeed.
func New(options ...Option) *Client {
	client := &Client{
		cache:          NewMemoryCache(),
		cacheCondition: DefaultCacheCondition,
		keyHasher:      DefaultKeyHasher,
		errorHook:      noopErrorHook,
		logger:         nopLogger{},
		requestIDGen:   uuid.NewString,
	}
	client.config.Store(DefaultConfiguration())

	for _, option := range options {
		option(client)
	}

	if client.transport == nil {
		client.transport = NewHTTPTransport(client.httpClient)
	}
	client.transport = chainMiddleware(client.transport, client.middleware)
	if client.cache == nil {
		client.cache = NewMemoryCache()
	}
	if client.cacheCondition == nil {
		client.cacheCondition = DefaultCacheCondition
	}
	if client.keyHasher == nil {
		client.keyHasher = DefaultKeyHasher
	}
	if client.errorHook == nil {
		client.errorHook = noopErrorHook
	}
	if client.logger == nil {
		client.logger = nopLogger{}
	}
	if client.requestIDGen == nil {
		client.requestIDGen = uuid.NewString
	}

	return client
}

// Configuration returns a copy of the current configuration snapshot.
func (c *Client) Configuration() *Configuration {
	return c.config.Load().Clone()
}

// Reconfigure applies fn to a copy of the current configuration and swaps it
// in atomically. Requests already submitted keep the snapshot they started
// with. fn may run more than once if reconfigurations race.
func (c *Client) Reconfigure(fn func(cfg *Configuration)) {
	for {
		current := c.config.Load()
		next := current.Clone()
		fn(next)
		if c.config.CompareAndSwap(current, next) {
			return
		}
	}
}

// Cache returns the store used for offline fallback.
func (c *Client) Cache() CacheStore {
	return c.cache
}

// IsValid reports whether the current configuration is usable.
func (c *Client) IsValid() bool {
	return c.ValidateConfiguration() == nil
}

// Perform submits req and returns immediately. completion runs exactly once
// on the configured completion queue unless the task is cancelled first.
// Build failures are returned synchronously and completion never runs.
func (c *Client) Perform(ctx context.Context, req *Request, completion Completion) (*Task, error) {
	cfg := c.config.Load()
	return c.perform(ctx, req, cfg, c.completionQueue(cfg), completion)
}

// Upload is Perform for requests carrying an Upload.
func (c *Client) Upload(ctx context.Context, req *Request, completion Completion) (*Task, error) {
	if req == nil || req.Upload == nil {
		return nil, configurationError("upload request has no upload payload", nil)
	}
	return c.Perform(ctx, req, completion)
}

// Do performs req and waits for the result. Callbacks run inline, so Do
// does not depend on the completion queue. The returned error is resp.Err,
// a build error, or ErrCancelled.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var result *Response
	task, err := c.perform(ctx, req, c.config.Load(), InlineQueue{}, func(resp *Response) {
		result = resp
	})
	if err != nil {
		return nil, err
	}

	<-task.Done()
	if task.Cancelled() {
		if ctx.Err() != nil {
			return nil, errors.Join(ErrCancelled, ctx.Err())
		}
		return nil, ErrCancelled
	}
	return result, result.Err
}

// Get performs a GET of path with query parameters.
func (c *Client) Get(ctx context.Context, path string, params map[string]any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Parameters: params})
}

// Post performs a POST of path with params encoded as the body.
func (c *Client) Post(ctx context.Context, path string, params map[string]any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Parameters: params})
}

// Close waits for in-flight requests, then drains and stops the client's own
// completion queue. It must not be called from a completion callback.
func (c *Client) Close() {
	c.closeMu.Lock()
	c.closed = true
	c.closeMu.Unlock()

	c.inflight.Wait()
	c.queueOnce.Do(func() {})
	if c.queue != nil {
		c.queue.Close()
	}
}

func (c *Client) completionQueue(cfg *Configuration) CompletionQueue {
	if cfg.CompletionQueue != nil {
		return cfg.CompletionQueue
	}
	c.queueOnce.Do(func() {
		c.queue = NewSerialQueue()
	})
	if c.queue == nil {
		return InlineQueue{}
	}
	return c.queue
}

func (c *Client) perform(ctx context.Context, req *Request, cfg *Configuration, queue CompletionQueue, completion Completion) (*Task, error) {
	if completion == nil {
		completion = func(*Response) {}
	}

	id := c.requestIDGen()
	resolved, err := resolve(req, cfg)
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			clientErr.RequestID = id
		}
		c.logger.Error("Request build failed", "requestID", id, "error", err)
		if req != nil {
			c.metrics.RecordError(TypeOf(err), req.Method, "")
		}
		return nil, err
	}
	resolved.ID = id

	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return nil, configurationError("client is closed", nil)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := newTask(id, cancel)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.run(taskCtx, task, resolved, queue, completion)
	}()
	return task, nil
}

// run is the per-request pipeline: execute or fall back to cache, process,
// notify and deliver.
func (c *Client) run(ctx context.Context, task *Task, r *ResolvedRequest, queue CompletionQueue, completion Completion) {
	start := time.Now()
	endpoint := r.URL.Host + r.URL.Path

	c.metrics.RecordRequestStart(r.Method, endpoint)
	defer c.metrics.RecordRequestEnd(r.Method, endpoint)

	c.logRequest(r)

	resp := c.execute(ctx, task, r, queue, endpoint)
	if resp == nil || errors.Is(ctx.Err(), context.Canceled) {
		task.Cancel()
		c.logger.Debug("Request cancelled", "requestID", r.ID, "method", r.Method, "url", r.FullURL())
		return
	}
	resp.Duration = time.Since(start)

	c.recordResponse(r, resp, endpoint)
	c.logResponse(r, resp)

	if resp.Failed() && c.errorNotifier != nil && task.pending() {
		c.errorNotifier(resp)
	}
	task.deliver(queue, func() {
		completion(resp)
	})
}

// execute returns nil when the request was cancelled.
func (c *Client) execute(ctx context.Context, task *Task, r *ResolvedRequest, queue CompletionQueue, endpoint string) *Response {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return process(nil, &TransportError{Err: err}, r, c.errorHook)
		}
		c.metrics.RecordRateLimiterTokens(c.rateLimiter.Tokens())
	}

	key := KeyFor(r, c.keyHasher)
	raw, err := c.transport.RoundTrip(ctx, c.transportRequest(r, task, queue))
	if errors.Is(err, context.Canceled) || !task.pending() {
		return nil
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.Connectivity && r.CacheManagement == CacheOffline {
		if entry, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheFallbackHit(r.Method, endpoint)
			c.logger.Info("Network unreachable, serving cached response",
				"requestID", r.ID, "key", string(key), "storedAt", entry.StoredAt)
			return processCached(entry, r)
		}
		c.metrics.RecordCacheFallbackMiss(r.Method, endpoint)
		c.logger.Debug("Network unreachable and no cached response", "requestID", r.ID, "key", string(key))
	}

	resp := process(raw, err, r, c.errorHook)

	// Stored before delivery so a completion can read its own write.
	if err == nil && !resp.Failed() && r.CacheManagement == CacheOffline && c.cacheCondition(r) && task.pending() {
		c.cache.Put(key, entryFromResponse(key, raw))
		c.metrics.RecordCacheWrite(r.Method, endpoint, c.cache.Len())
	}
	return resp
}

func (c *Client) transportRequest(r *ResolvedRequest, task *Task, queue CompletionQueue) *TransportRequest {
	tr := &TransportRequest{
		Method:  r.Method,
		URL:     r.FullURL(),
		Header:  r.Header,
		Body:    r.Body,
		Timeout: r.Timeout,
	}
	if r.Upload == nil {
		return tr
	}

	tr.Upload = r.Upload
	tr.Fields = formValues(r.Parameters)
	if progress := r.Upload.Progress; progress != nil {
		tr.Progress = func(sent, total int64) {
			if !task.pending() {
				return
			}
			queue.Dispatch(func() {
				if task.pending() {
					progress(Progress{Sent: sent, Total: total})
				}
			})
		}
	}
	return tr
}

func (c *Client) recordResponse(r *ResolvedRequest, resp *Response, endpoint string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordRequest(r.Method, endpoint, resp.StatusCode, resp.Duration)
	if resp.Failed() {
		errorType := TypeOf(resp.Err)
		if errorType == "" {
			errorType = "HookError"
		}
		c.metrics.RecordError(errorType, r.Method, endpoint)
	}
}

func (c *Client) logRequest(r *ResolvedRequest) {
	c.logger.Debug("Starting request", "requestID", r.ID, "method", r.Method, "url", r.FullURL())
	if !r.LogLevel.Has(LogRequests) {
		return
	}

	header := redactHeader(r.Header)
	c.logger.Info("Request",
		"requestID", r.ID,
		"method", r.Method,
		"url", r.FullURL(),
		"header", header,
		"curl", curl.Command(r.Method, r.FullURL(), header, r.Body),
	)
}

func (c *Client) logResponse(r *ResolvedRequest, resp *Response) {
	if !r.LogLevel.Has(LogResponses) {
		return
	}
	fields := []any{
		"requestID", r.ID,
		"status", resp.StatusCode,
		"duration", resp.Duration,
		"fromCache", resp.FromCache,
		"bytes", len(resp.RawBody),
	}
	if resp.Failed() {
		c.logger.Warn("Response", append(fields, "error", resp.Err.Error())...)
		return
	}
	c.logger.Info("Response", fields...)
}

func redactHeader(h http.Header) http.Header {
	out := h.Clone()
	if out.Get("Authorization") != "" {
		out.Set("Authorization", "[REDACTED]")
	}
	return out
}
