// Package kit holds the transport-neutral pieces shared by the HTTP API and
// the MCP server: the Endpoint signature, middleware chaining and the
// request-scoped context values.
package kit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrPanic wraps a panic recovered by Recover.
var ErrPanic = errors.New("kit: endpoint panicked")

// Endpoint handles one decoded request.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is the outermost.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}

// Recover converts a panic in the wrapped endpoint into an error wrapping
// ErrPanic.
func Recover(next Endpoint) Endpoint {
	return func(ctx context.Context, req any) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				resp, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		return next(ctx, req)
	}
}

// Logging logs each call with its transport, trace and request IDs and
// duration.
func Logging(logger *slog.Logger, name string) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"endpoint", name,
				"transport", GetTransport(ctx),
				"duration", time.Since(start),
			}
			if id := GetTraceID(ctx); id != "" {
				attrs = append(attrs, "trace_id", id)
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				logger.Warn("kit: endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("kit: endpoint", attrs...)
			}
			return resp, err
		}
	}
}
