package form

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSelector picks the submission form on a vizy page.
const DefaultSelector = "form#form"

// skipped input types never contribute a value.
var skipped = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"file":   true,
}

// Capture reads the successful controls of the form matched by selector, in
// document order, the way a browser serializes them: disabled and unnamed
// controls are skipped, checkboxes and radios count only when checked, and
// a select contributes each selected option.
func Capture(r io.Reader, selector string) (Submission, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	if selector == "" {
		selector = DefaultSelector
	}
	form := doc.Find(selector).First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("form %q not found", selector)
	}

	var s Submission
	form.Find("input, textarea, select").Each(func(_ int, el *goquery.Selection) {
		name := el.AttrOr("name", "")
		if name == "" || hasAttr(el, "disabled") {
			return
		}

		switch {
		case el.Is("textarea"):
			s = s.Add(name, el.Text())
		case el.Is("select"):
			s = append(s, selected(name, el)...)
		default:
			kind := strings.ToLower(el.AttrOr("type", "text"))
			if skipped[kind] {
				return
			}
			if (kind == "checkbox" || kind == "radio") && !hasAttr(el, "checked") {
				return
			}
			value, ok := el.Attr("value")
			if !ok && (kind == "checkbox" || kind == "radio") {
				value = "on"
			}
			s = s.Add(name, value)
		}
	})

	return s, nil
}

func selected(name string, sel *goquery.Selection) Submission {
	var s Submission
	options := sel.Find("option")
	options.Each(func(_ int, opt *goquery.Selection) {
		if hasAttr(opt, "selected") && !hasAttr(opt, "disabled") {
			s = s.Add(name, optionValue(opt))
		}
	})

	// A single select without an explicit selection submits its first option.
	if len(s) == 0 && !hasAttr(sel, "multiple") && options.Length() > 0 {
		s = s.Add(name, optionValue(options.First()))
	}
	return s
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

func hasAttr(s *goquery.Selection, name string) bool {
	_, ok := s.Attr(name)
	return ok
}
