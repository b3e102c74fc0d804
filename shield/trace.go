package shield

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"github.com/hazyhaar/timewatch/idgen"
	"github.com/hazyhaar/timewatch/kit"
)

var traceIDs = idgen.NanoID(8)

// TraceID generates a trace ID for each request and injects it into the
// context, response headers, and a per-request structured logger.
// The trace ID is stored under kit.TraceIDKey and the logger under LoggerKey.
//
// A client X-Request-ID is kept when it is a valid UUID; otherwise a new one
// is generated. Either way it is echoed back and stored under
// kit.RequestIDKey.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := traceIDs()
		requestID, err := idgen.Parse(r.Header.Get("X-Request-ID"))
		if err != nil {
			requestID = idgen.New()
		}

		ctx := kit.WithTraceID(r.Context(), traceID)
		ctx = kit.WithRequestID(ctx, requestID)
		ctx = kit.WithTransport(ctx, "http")
		w.Header().Set("X-Trace-ID", traceID)
		w.Header().Set("X-Request-ID", requestID)

		logger := slog.Default().With(
			"trace_id", traceID,
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// AcceptLanguage negotiates the Accept-Language header against supported
// and stores the matched locale under kit.LocaleKey. Nothing is stored when
// the header does not parse or matches none of them, so callers keep their
// configured default. With no supported locales the highest weighted tag is
// stored as is.
func AcceptLanguage(supported ...string) func(http.Handler) http.Handler {
	var matcher language.Matcher
	if len(supported) > 0 {
		tags := make([]language.Tag, len(supported))
		for i, id := range supported {
			tags[i] = language.Make(id)
		}
		matcher = language.NewMatcher(tags)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if locale := negotiate(matcher, supported, r.Header.Get("Accept-Language")); locale != "" {
				r = r.WithContext(kit.WithLocale(r.Context(), locale))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func negotiate(matcher language.Matcher, supported []string, header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	if matcher == nil {
		if tags[0] == language.Und {
			return ""
		}
		return tags[0].String()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return supported[idx]
}
