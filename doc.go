// Package restclient provides a REST API client that turns request descriptions
// into HTTP exchanges and typed results:
//
//   - Client-wide configuration (host, API path, serializers, headers, global
//     parameters, authorization, localization) held as a copy-on-write snapshot
//   - Per-request overrides merged into a canonical, hashable request
//   - Offline cache fallback when the network is unreachable
//   - Uniform error normalization with a caller supplied error hook
//   - Ordered, exactly-once completion delivery on a configurable queue
//   - Multipart uploads with progress reporting and cancellation
//   - Prometheus metrics and zerolog structured request/response logging
//
// Design goals:
//   - In-flight requests never observe a partially applied reconfiguration
//   - The cache store is the only shared mutable state and is safe for
//     concurrent use
//   - Network I/O is concurrent, completion callbacks are serialized
//
// Typical usage:
//
//	client := restclient.New(
//	    restclient.WithConfigurator(func(cfg *restclient.Configuration) {
//	        cfg.Host = "https://api.example.com"
//	        cfg.APIPath = "/v2"
//	        cfg.CacheManagement = restclient.CacheOffline
//	    }),
//	)
//	defer client.Close()
//
//	task, err := client.Perform(ctx, &restclient.Request{Method: "GET", Path: "users/42"},
//	    func(resp *restclient.Response) {
//	        if resp.Failed() {
//	            log.Printf("request failed: %v", resp.Err)
//	            return
//	        }
//	        fmt.Println(resp.Body, resp.FromCache)
//	    })
//
// No request is retried automatically; retry policy is left to the caller.
package restclient
