// Package render converts model markdown into HTML restricted to a fixed
// allow-list of tags, the server-side defense against script injection in
// model output.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var allowedTags = []string{
	"p", "h1", "h2", "h3", "h4", "h5", "h6", "strong", "em",
	"ul", "ol", "li", "blockquote", "code", "pre", "br", "a",
}

type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func New() *Renderer {
	// WithUnsafe lets raw HTML in model output reach the sanitizer instead of
	// being entity-escaped; bluemonday then strips anything off-list.
	md := goldmark.New(
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	policy := bluemonday.NewPolicy()
	policy.AllowElements(allowedTags...)
	policy.AllowAttrs("href", "title").OnElements("a")
	policy.AllowStandardURLs()
	policy.SkipElementsContent("script", "style")

	return &Renderer{markdown: md, policy: policy}
}

// Render converts markdown to sanitized HTML. Disallowed tags and attributes
// are removed, not escaped; text nested inside them survives.
func (r *Renderer) Render(markup string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markup), &buf); err != nil {
		return "", fmt.Errorf("markdown convert failed: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// IsHTML reports whether text already looks like rendered HTML. Stored bot
// messages predating the raw-markdown convention begin with a tag and must
// not be converted again.
func IsHTML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<")
}

// RenderStored prepares a stored bot message for return to a client,
// skipping text that is already HTML.
func (r *Renderer) RenderStored(text string) (string, error) {
	if IsHTML(text) {
		return text, nil
	}
	return r.Render(text)
}
