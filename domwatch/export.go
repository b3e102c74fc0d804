package domwatch

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// ToMarkdown converts rendered HTML to Markdown. Relative links are resolved
// against pageURL when it is set.
func ToMarkdown(html []byte, pageURL string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	md, err := mdConverter.ConvertString(string(html), opts...)
	if err != nil {
		return "", fmt.Errorf("domwatch: markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// NewSanitizer returns the policy applied to HTML submitted by API clients:
// user-generated-content rules, plus the renderer's own attributes so that
// timestamps and their markers survive.
func NewSanitizer(r RendererConfig) *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("time")
	attrs := []string{"datetime"}
	if r.Attribute != "" && r.Attribute != "datetime" {
		attrs = append(attrs, r.Attribute)
	}
	if r.TitleAttribute != "" {
		attrs = append(attrs, r.TitleAttribute)
	}
	if r.Marker != "" {
		attrs = append(attrs, r.Marker)
	}
	p.AllowAttrs(attrs...).Globally()
	return p
}

// Sanitize applies NewSanitizer for the watcher's renderer configuration.
func (w *Watcher) Sanitize(html []byte) []byte {
	w.mu.Lock()
	if w.sanitizer == nil {
		w.sanitizer = NewSanitizer(w.cfg.Renderer)
	}
	p := w.sanitizer
	w.mu.Unlock()
	return p.SanitizeBytes(html)
}
