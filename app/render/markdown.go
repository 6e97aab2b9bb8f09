package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdownConverter enables strikethrough, tables, task lists (all part of
// GFM) and footnotes on top of CommonMark. Raw HTML inside the source is
// omitted by goldmark's default renderer.
var markdownConverter = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Footnote,
	),
)

// MarkdownToHTML converts markdown source to an HTML fragment.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdownConverter.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Markdown is the template filter. Its output is marked trusted so
// html/template embeds it without escaping. Non-string values render empty.
func Markdown(value any) (template.HTML, error) {
	var src string
	switch v := value.(type) {
	case string:
		src = v
	case fmt.Stringer:
		src = v.String()
	default:
		return "", nil
	}
	html, err := MarkdownToHTML(src)
	if err != nil {
		return "", err
	}
	return template.HTML(html), nil
}
