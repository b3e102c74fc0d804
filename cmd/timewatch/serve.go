package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/timewatch/domwatch"
	"github.com/hazyhaar/timewatch/kit"
	"github.com/hazyhaar/timewatch/reltime"
	"github.com/hazyhaar/timewatch/shield"
)

const maxBody = 2 << 20

func newRouter(w *domwatch.Watcher, logger *slog.Logger) http.Handler {
	format := kit.Chain(kit.Logging(logger, "format"), kit.Recover)(w.FormatEndpoint())
	render := kit.Chain(kit.Logging(logger, "render"), kit.Recover)(w.RenderEndpoint())

	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(maxBody, reltime.DefaultBundle().Locales()...) {
		r.Use(mw)
	}

	r.Get("/health", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/format", func(rw http.ResponseWriter, r *http.Request) {
		var req domwatch.FormatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(rw, http.StatusBadRequest, err)
			return
		}
		resp, err := format(r.Context(), &req)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, reltime.ErrMalformedInstant) || errors.Is(err, reltime.ErrUnknownLocale) {
				code = http.StatusBadRequest
			}
			writeError(rw, code, err)
			return
		}
		writeJSON(rw, http.StatusOK, resp)
	})

	r.Post("/api/render", func(rw http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(rw, http.StatusRequestEntityTooLarge, err)
				return
			}
			writeError(rw, http.StatusBadRequest, err)
			return
		}
		q := r.URL.Query()
		req := &domwatch.RenderRequest{HTML: string(body), Format: q.Get("format"), Locale: q.Get("locale")}
		switch req.Format {
		case "", "html", "markdown", "md":
		default:
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "unknown format " + req.Format})
			return
		}
		resp, err := render(r.Context(), req)
		if err != nil {
			shield.GetLogger(r.Context()).Error("timewatch: render", "error", err)
			writeError(rw, http.StatusInternalServerError, err)
			return
		}
		out := resp.(*domwatch.RenderResponse)
		if req.Format == "markdown" || req.Format == "md" {
			rw.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			io.WriteString(rw, out.Markdown)
			return
		}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(rw, out.HTML)
	})

	r.Get("/api/pages", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]any{"live": w.Live()})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
