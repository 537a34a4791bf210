// Package markdown renders user written notes to HTML. Raw HTML in the
// source is escaped.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

var renderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func Render(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(src), &buf); err != nil {
		return template.HTMLEscapeString(src)
	}
	return buf.String()
}
