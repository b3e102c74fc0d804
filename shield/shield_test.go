package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/timewatch/idgen"
	"github.com/hazyhaar/timewatch/kit"
)

func TestTraceID(t *testing.T) {
	var gotTrace, gotTransport, gotRequest string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = kit.GetTraceID(r.Context())
		gotRequest = kit.GetRequestID(r.Context())
		gotTransport = kit.GetTransport(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("nil logger")
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(gotTrace) != 8 {
		t.Errorf("trace id: %q", gotTrace)
	}
	if rec.Header().Get("X-Trace-ID") != gotTrace {
		t.Errorf("header: %q, context: %q", rec.Header().Get("X-Trace-ID"), gotTrace)
	}
	if gotTransport != "http" {
		t.Errorf("transport: %q", gotTransport)
	}
	if gotRequest == "" || rec.Header().Get("X-Request-ID") != gotRequest {
		t.Errorf("request id: header %q, context %q", rec.Header().Get("X-Request-ID"), gotRequest)
	}
}

func TestTraceID_RequestID(t *testing.T) {
	const clientID = "0190a6e2-7c4b-7def-8a12-3456789abcde"
	tests := []struct {
		header string
		keep   bool
	}{
		{clientID, true},
		{"not-a-uuid", false},
		{"", false},
	}
	for _, tt := range tests {
		var got string
		h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = kit.GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("X-Request-ID", tt.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if (got == clientID) != tt.keep {
			t.Errorf("%q: got %q", tt.header, got)
		}
		if _, err := idgen.Parse(got); err != nil {
			t.Errorf("%q: generated id %q: %v", tt.header, got, err)
		}
	}
}

func TestAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"fr-FR,fr;q=0.9,en;q=0.8", "fr-FR"},
		{"en;q=0.1, fr-FR;q=0.9", "fr-FR"},
		{"fr", "fr-FR"},
		{"en;q=0.7", "en-US"},
		{"zz", ""},
		{"*", ""},
	}
	mw := AcceptLanguage("en-US", "fr-FR")
	for _, tt := range tests {
		got := "unset"
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = kit.GetLocale(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Accept-Language", tt.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestAcceptLanguage_Unrestricted(t *testing.T) {
	var got string
	h := AcceptLanguage()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = kit.GetLocale(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en;q=0.1, de-CH;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "de-CH" {
		t.Errorf("got %q, want de-CH", got)
	}
}

func TestMaxBody(t *testing.T) {
	h := MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("<p>0123456789</p>")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: %d", rec.Code)
	}
}

func TestDefaultStack(t *testing.T) {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: %s", r.Method)
		}
	})
	stack := DefaultStack(1024)
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("X-Trace-ID") == "" {
		t.Error("trace header missing")
	}
}

func TestHeadToGet_DropsBody(t *testing.T) {
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: %s", r.Method)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("status %d, body %q", rec.Code, rec.Body.String())
	}
}
