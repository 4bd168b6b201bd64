package restclient

import "context"

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*RawResponse, error)

func (f TransportFunc) RoundTrip(ctx context.Context, req *TransportRequest) (*RawResponse, error) {
	return f(ctx, req)
}

// Middleware wraps a single exchange, e.g. to add headers or observe timing.
// It must call next at most once.
type Middleware func(ctx context.Context, req *TransportRequest, next Transport) (*RawResponse, error)

func chainMiddleware(transport Transport, middleware []Middleware) Transport {
	current := transport
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := current
		current = TransportFunc(func(ctx context.Context, req *TransportRequest) (*RawResponse, error) {
			return mw(ctx, req, next)
		})
	}
	return current
}
