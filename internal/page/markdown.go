package page

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// LangPrefix is the class prefix given to fenced code blocks.
const LangPrefix = "hljs language-"

// Highlighter returns highlighted HTML for a code block. lang is empty for
// blocks without an info string.
type Highlighter func(code, lang string) string

var codeClass = regexp.MustCompile(`^hljs[\w+#. -]*$`)

// Markdown converts README markdown to sanitized HTML.
type Markdown struct {
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	highlight Highlighter
}

// NewMarkdown creates a converter. highlight may be nil.
func NewMarkdown(highlight Highlighter) *Markdown {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(codeClass).OnElements("code", "span")

	return &Markdown{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:    policy,
		highlight: highlight,
	}
}

// Render converts src. The output is safe to embed as-is.
func (m *Markdown) Render(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("parse rendered markdown: %w", err)
	}

	doc.Find("pre > code").Each(func(_ int, code *goquery.Selection) {
		lang := language(code.AttrOr("class", ""))
		if lang == "" {
			code.SetAttr("class", "hljs")
		} else {
			code.SetAttr("class", LangPrefix+lang)
		}
		if m.highlight != nil {
			code.SetHtml(m.highlight(code.Text(), lang))
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize rendered markdown: %w", err)
	}
	return template.HTML(m.policy.Sanitize(out)), nil
}

func language(class string) string {
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return lang
		}
	}
	return ""
}
