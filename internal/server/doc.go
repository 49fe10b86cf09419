// Package server runs the short-lived local HTTP server that receives the Spotify OAuth callback.
//
// # Router
//
// [BasicRouter] registers method patterns on an [http.ServeMux]. [Middleware] wraps handlers in reverse
// order (last added executes first); [RequestLogger] logs each request at debug level.
//
// # OAuth callback
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter (CSRF
// protection), exchanges the code through an [Exchanger] and sends the result through a channel. Only
// the first callback is processed.
//
// `sung auth login` starts a [Server] on the host and port from the [server] config section (default
// 127.0.0.1:3000), opens the authorization URL in the browser and shuts the server down once the
// token arrives.
package server
