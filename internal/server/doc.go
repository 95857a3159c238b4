// Package server provides HTTP routing, middleware and the server lifecycle for the local web app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on an [http.ServeMux], so the mux answers
// 405 for a known path with the wrong method.
//
// # Middleware
//
//   - [RequestID] puts an ID on the request context and the X-Request-ID response header. The sync client
//     forwards it upstream so a page load and its sync request share one ID.
//   - [Logging] writes one structured line per request.
//   - [Recovery] converts panics to 500 responses.
//   - [RateLimit] throttles each client address with an [IPLimiter].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Serve] runs until its context is cancelled and then shuts down gracefully.
package server
