package kit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"), mw("c"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	noop := func(next Endpoint) Endpoint { return next }
	chained := Chain(noop)(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestContext_Transport_Default(t *testing.T) {
	ctx := context.Background()
	if v := GetTransport(ctx); v != "http" {
		t.Fatalf("default transport: got %q, want 'http'", v)
	}
}

func TestContext_Transport_Set(t *testing.T) {
	ctx := WithTransport(context.Background(), "mcp")
	if v := GetTransport(ctx); v != "mcp" {
		t.Fatalf("transport: got %q", v)
	}
}

func TestContext_RequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req_abc")
	if v := GetRequestID(ctx); v != "req_abc" {
		t.Fatalf("request_id: got %q", v)
	}
}

func TestContext_TraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trc_xyz")
	if v := GetTraceID(ctx); v != "trc_xyz" {
		t.Fatalf("trace_id: got %q", v)
	}
}

func TestContext_EmptyDefaults(t *testing.T) {
	ctx := context.Background()
	if v := GetLocale(ctx); v != "" {
		t.Fatalf("locale default: got %q", v)
	}
	if v := GetRequestID(ctx); v != "" {
		t.Fatalf("request_id default: got %q", v)
	}
	if v := GetTraceID(ctx); v != "" {
		t.Fatalf("trace_id default: got %q", v)
	}
}

func TestContext_Locale(t *testing.T) {
	ctx := WithLocale(context.Background(), "fr-FR")
	if v := GetLocale(ctx); v != "fr-FR" {
		t.Fatalf("locale: got %q", v)
	}
}

func TestLogging_PassesThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	errFail := errors.New("boom")

	ep := Logging(logger, "format")(func(_ context.Context, req any) (any, error) {
		if req == "bad" {
			return nil, errFail
		}
		return req, nil
	})
	ctx := WithRequestID(WithTraceID(context.Background(), "trc_1"), "req_1")
	if resp, err := ep(ctx, "ok"); err != nil || resp != "ok" {
		t.Fatalf("ok call: %v %v", resp, err)
	}
	if _, err := ep(ctx, "bad"); !errors.Is(err, errFail) {
		t.Fatalf("error call: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "endpoint=format") || !strings.Contains(out, "trace_id=trc_1") || !strings.Contains(out, "request_id=req_1") {
		t.Errorf("log output: %s", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("failure not logged as warning: %s", out)
	}
}

func TestRecover(t *testing.T) {
	ep := Chain(Logging(slog.New(slog.NewTextHandler(io.Discard, nil)), "render"), Recover)(func(_ context.Context, req any) (any, error) {
		if req == "boom" {
			panic("nil document")
		}
		return req, nil
	})

	if resp, err := ep(context.Background(), "ok"); err != nil || resp != "ok" {
		t.Fatalf("ok call: %v %v", resp, err)
	}
	resp, err := ep(context.Background(), "boom")
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("error: got %v, want ErrPanic", err)
	}
	if resp != nil || !strings.Contains(err.Error(), "nil document") {
		t.Errorf("resp %v, err %v", resp, err)
	}
}
