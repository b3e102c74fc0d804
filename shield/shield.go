// Package shield is the HTTP middleware stack of the timewatch API: security
// headers, body limits, request tracing, locale negotiation and HEAD
// handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(1<<20, "en-US", "fr-FR") {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultStack returns the standard middleware stack. locales are the ones
// AcceptLanguage negotiates against.
// Order: HeadToGet → SecurityHeaders → MaxBody → TraceID → AcceptLanguage.
func DefaultStack(maxBody int64, locales ...string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
		TraceID,
		AcceptLanguage(locales...),
	}
}
