// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler file should use these helpers instead of writing raw
// http.ResponseWriter calls. This keeps the API's JSON envelope
// ({"success": false, "error": "..."} on failures) identical across
// all endpoints.
package httputil
