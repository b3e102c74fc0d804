package domwatch

import (
	"context"
	"fmt"

	"github.com/hazyhaar/timewatch/kit"
	"github.com/hazyhaar/timewatch/reltime"
	"github.com/hazyhaar/timewatch/stamp"
)

// FormatRequest asks for the rendering of one instant.
type FormatRequest struct {
	Datetime string `json:"datetime"`
	Now      string `json:"now,omitempty"`    // reference instant, default the clock
	Locale   string `json:"locale,omitempty"` // default kit.GetLocale, then the configured locale
}

// RenderRequest asks for the rendering of an HTML document or fragment.
type RenderRequest struct {
	HTML   string `json:"html"`
	Format string `json:"format,omitempty"` // "html" (default) or "markdown"
	Locale string `json:"locale,omitempty"`
}

// RenderResponse carries the rendered document and what was rendered in it.
type RenderResponse struct {
	HTML     string       `json:"html,omitempty"`
	Markdown string       `json:"markdown,omitempty"`
	Report   stamp.Report `json:"report"`
}

// FormatEndpoint formats FormatRequest.Datetime. Malformed instants and
// unknown locales are returned as errors wrapping reltime's sentinels.
func (w *Watcher) FormatEndpoint() kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		r, ok := req.(*FormatRequest)
		if !ok || r == nil {
			return nil, fmt.Errorf("domwatch: format: unexpected request %T", req)
		}
		locale := r.Locale
		if locale == "" {
			locale = kit.GetLocale(ctx)
		}
		f, err := w.formatterFor(locale)
		if err != nil {
			return nil, fmt.Errorf("domwatch: format: %w", err)
		}
		t, err := reltime.ParseInstant(r.Datetime, w.loc)
		if err != nil {
			return nil, fmt.Errorf("domwatch: format: %w", err)
		}
		now := w.clock.Now()
		if r.Now != "" {
			if now, err = reltime.ParseInstant(r.Now, w.loc); err != nil {
				return nil, fmt.Errorf("domwatch: format now: %w", err)
			}
		}
		return f.Format(t, now), nil
	}
}

// RenderEndpoint sanitises RenderRequest.HTML and renders it in process.
// The response holds the rendered body content; nothing is sent to the
// sinks.
func (w *Watcher) RenderEndpoint() kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		r, ok := req.(*RenderRequest)
		if !ok || r == nil {
			return nil, fmt.Errorf("domwatch: render: unexpected request %T", req)
		}
		locale := r.Locale
		if locale == "" {
			locale = kit.GetLocale(ctx)
		}
		scanner, err := w.scannerFor(locale)
		if err != nil {
			return nil, fmt.Errorf("domwatch: render: %w", err)
		}
		out, err := w.render(scanner, "", "", w.Sanitize([]byte(r.HTML)))
		if err != nil {
			return nil, err
		}
		resp := &RenderResponse{Report: out.Report}
		switch r.Format {
		case "", "html":
			resp.HTML = string(out.Body)
		case "markdown", "md":
			if resp.Markdown, err = ToMarkdown(out.Body, ""); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("domwatch: render: unknown format %q", r.Format)
		}
		return resp, nil
	}
}
