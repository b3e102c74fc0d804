package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsSufficient_StaticPage(t *testing.T) {
	html := []byte(`<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
<main>
<article>
<h1>Article Title</h1>
<p>Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur.</p>
</article>
</main>
</body>
</html>`)
	if !IsSufficient(html) {
		t.Error("expected sufficient for static page with content")
	}
}

func TestIsSufficient_SPAShell(t *testing.T) {
	html := []byte(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>App</title></head>
<body>
<div id="root"></div>
<script src="/static/js/main.chunk.js"></script>
</body>
</html>`)
	if IsSufficient(html) {
		t.Error("expected insufficient for SPA shell")
	}
}

func TestIsSufficient_TooShort(t *testing.T) {
	html := []byte(`<html><body>hi</body></html>`)
	if IsSufficient(html) {
		t.Error("expected insufficient for very short content")
	}
}

func TestIsSufficient_EmptyBody(t *testing.T) {
	html := []byte(`<!DOCTYPE html><html><head></head><body></body></html>`)
	if IsSufficient(html) {
		t.Error("expected insufficient for empty body")
	}
}

func TestTextMarkupRatio(t *testing.T) {
	html := []byte(`<div>Hello World</div>`)
	text, markup := textMarkupRatio(html)
	if text == 0 {
		t.Error("expected non-zero text count")
	}
	if markup == 0 {
		t.Error("expected non-zero markup count")
	}
	if text >= markup+text {
		t.Error("text should be less than total")
	}
}

func TestNeedsBrowser(t *testing.T) {
	article := `<main><article><h1>Article Title</h1><p>Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit.</p><time datetime="2024-01-01">Jan 1</time></article></main>`
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"static article", `<!DOCTYPE html><html><head><title>t</title></head><body>` + article + `</body></html>`, false},
		{"unpoly script", `<!DOCTYPE html><html><head><script src="/assets/unpoly.min.js"></script></head><body>` + article + `</body></html>`, true},
		{"htmx attribute", `<!DOCTYPE html><html><body>` + article + `<div hx-get="/more" hx-trigger="revealed"></div></body></html>`, true},
		{"turbo frame", `<!DOCTYPE html><html><body>` + article + `<turbo-frame id="list"></turbo-frame></body></html>`, true},
		{"spa shell", `<!DOCTYPE html><html><body><div id="root"></div><script src="/main.js"></script></body></html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsBrowser([]byte(tt.html)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`<html><body><div id="app"></div></body></html>`))
	}))
	defer srv.Close()

	f := New()
	res, err := f.Fetch(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatal(err)
	}
	if res.ETag != `"v1"` || !res.NeedsBrowser || len(res.Hash) != 64 {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
}
