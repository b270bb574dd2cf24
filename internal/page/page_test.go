package page

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownCodeBlocks(t *testing.T) {
	m := NewMarkdown(nil)

	out, err := m.Render("# Title\n\n```go\nfmt.Println(1)\n```\n\n```\nplain\n```\n")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(out)))
	require.NoError(t, err)

	assert.Equal(t, "Title", doc.Find("h1").Text())
	codes := doc.Find("pre > code")
	require.Equal(t, 2, codes.Length())
	assert.Equal(t, "hljs language-go", codes.Eq(0).AttrOr("class", ""))
	assert.Equal(t, "fmt.Println(1)\n", codes.Eq(0).Text())
	assert.Equal(t, "hljs", codes.Eq(1).AttrOr("class", ""))
}

func TestMarkdownHighlightHook(t *testing.T) {
	var gotLang, gotCode string
	m := NewMarkdown(func(code, lang string) string {
		gotLang, gotCode = lang, code
		return `<span class="hljs-keyword">x</span><img src=x onerror=alert(1)>`
	})

	out, err := m.Render("```python\nx = 1\n```\n")
	require.NoError(t, err)

	assert.Equal(t, "python", gotLang)
	assert.Equal(t, "x = 1\n", gotCode)
	assert.Contains(t, string(out), `<span class="hljs-keyword">x</span>`)
	assert.NotContains(t, string(out), "onerror")
}

func TestMarkdownSanitizes(t *testing.T) {
	out, err := NewMarkdown(nil).Render("hello <script>alert(1)</script> <b onclick=\"x()\">bold</b>")
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<script")
	assert.NotContains(t, string(out), "onclick")
	assert.Contains(t, string(out), "hello")
}

func TestMarkdownEmpty(t *testing.T) {
	out, err := NewMarkdown(nil).Render("  \n")
	require.NoError(t, err)
	assert.Empty(t, out)
}

const projectYAML = `name: demo
description: A demo
parameters:
  - name: who
    type: text
    label: Who to greet
    default: world
  - name: times
    type: number
    default: 2
  - name: greeting
    type: single-choice
    choices: [hi, hello]
    default: hello
  - name: colors
    type: multi-choice
    choices: [red, green, blue]
    default: [red, blue]
  - name: size
    type: single-choice
    choices: [s, m]
task:
  command: ["true"]
`

func TestRenderFormRoundTrip(t *testing.T) {
	p, err := project.Parse(".yaml", []byte(projectYAML))
	require.NoError(t, err)
	p.Readme = "Some *docs*."

	html, err := NewRenderer(nil).Render(p, DefaultEndpoints())
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "demo", doc.Find("title").Text())
	assert.Equal(t, "docs", doc.Find("#content em").Text())
	assert.Equal(t, "Who to greet", doc.Find(`label[for="who"]`).Text())
	assert.Regexp(t, `pollMillis = \s*500\s*;`, doc.Find("script").Text())

	fields, err := form.Capture(bytes.NewReader(html), form.DefaultSelector)
	require.NoError(t, err)

	payload := fields.Merge()
	assert.Equal(t, []string{"who", "times", "greeting", "colors", "size"}, payload.Keys())
	assert.Equal(t, map[string]string{
		"who":      "world",
		"times":    "2",
		"greeting": "hello",
		"colors":   "red,blue",
		"size":     "s",
	}, payload.Map())
	assert.NoError(t, p.Validate(payload))
}
