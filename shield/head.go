package shield

import "net/http"

// HeadToGet routes HEAD requests to the GET handlers, so /health and
// /api/pages answer probes without their own HEAD routes. The server drops
// the body; the handler sees a GET.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		get := r.Clone(r.Context())
		get.Method = http.MethodGet
		next.ServeHTTP(headWriter{w}, get)
	})
}

// headWriter discards the body so that handlers which ignore the request
// method never stream content to a HEAD client.
type headWriter struct{ http.ResponseWriter }

func (h headWriter) Write(p []byte) (int, error) { return len(p), nil }
