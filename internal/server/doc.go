// Package server exposes playlist resolution over HTTP for callers that cannot link the Go packages,
// such as a chat gateway written in another language.
//
// Routes:
//
//	GET /healthz      liveness probe
//	GET /v1/resolve   resolve ?reference= (optional source=youtube|spotify, format=json|text|markdown|csv)
//
// [BasicRouter] uses [http.ServeMux] method patterns, so a wrong method gets a 405 without handler code.
// [Middleware] wraps the whole mux; recovery, request IDs and access logging see every request, matched or not.
//
// Resolution errors are reported as JSON {"error", "kind"} with a status from [StatusFor]:
// unsupported references are 400, a missing Spotify playlist is 404, other provider failures are 502.
package server
