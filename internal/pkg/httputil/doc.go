// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers write every response through these helpers so error bodies keep
// one shape: {"error": "...", "details": [...]}.
package httputil
