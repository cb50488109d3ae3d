package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// Render converts markdown newsletter content to HTML. Content that already
// starts with a tag is treated as pre-rendered HTML and passed through, so
// authors can submit either format.
func Render(content string) (string, error) {
	if LooksLikeHTML(content) {
		return content, nil
	}
	var buf bytes.Buffer
	if err := engine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LooksLikeHTML reports whether the content appears to be an HTML document or
// fragment rather than markdown.
func LooksLikeHTML(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, "</")
}
