package shield

import "net/http"

// Header is one response header set by SecurityHeaders.
type Header struct {
	Name  string
	Value string
}

// HeaderConfig lists the headers applied to every response, in order.
type HeaderConfig []Header

// DefaultHeaders returns the headers for the timewatch API. Rendered
// phrases depend on the request time, so responses are never cached.
func DefaultHeaders() HeaderConfig {
	return HeaderConfig{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Cache-Control", "no-store"},
	}
}

// SecurityHeaders sets cfg on every response before the handler runs.
func SecurityHeaders(cfg HeaderConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range cfg {
				h.Set(kv.Name, kv.Value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
