// Package api exposes the arena's HTTP surface: the GET-only fire and
// reset routes, bearer/query token authentication, and the wire JSON
// responses.
package api
