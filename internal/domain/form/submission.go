package form

import (
	"fmt"
	"net/url"
	"strings"
)

// Field is one (name, value) pair captured at submit time.
type Field struct {
	Name  string
	Value string
}

// Submission is the ordered list of fields a form produced. Several fields
// may share a name (checkboxes, multi-selects).
type Submission []Field

// Add appends a field and returns the extended submission.
func (s Submission) Add(name, value string) Submission {
	return append(s, Field{Name: name, Value: value})
}

// Merge folds fields that share a name into one comma-joined value. Keys keep
// the order in which each name first appeared.
func (s Submission) Merge() Payload {
	p := Payload{index: make(map[string]int, len(s))}
	for _, f := range s {
		if i, ok := p.index[f.Name]; ok {
			p.values[i] += "," + f.Value
			continue
		}
		p.index[f.Name] = len(p.keys)
		p.keys = append(p.keys, f.Name)
		p.values = append(p.values, f.Value)
	}
	return p
}

// Override replaces every field named in overrides. The replacement values
// take the position of the first field with that name, or go to the end
// when the form did not have it.
func (s Submission) Override(overrides Submission) Submission {
	if len(overrides) == 0 {
		return s
	}

	byName := make(map[string][]Field)
	var order []string
	for _, f := range overrides {
		if _, ok := byName[f.Name]; !ok {
			order = append(order, f.Name)
		}
		byName[f.Name] = append(byName[f.Name], f)
	}

	out := make(Submission, 0, len(s)+len(overrides))
	placed := make(map[string]bool, len(byName))
	for _, f := range s {
		repl, ok := byName[f.Name]
		if !ok {
			out = append(out, f)
			continue
		}
		if !placed[f.Name] {
			out = append(out, repl...)
			placed[f.Name] = true
		}
	}
	for _, name := range order {
		if !placed[name] {
			out = append(out, byName[name]...)
		}
	}
	return out
}

// ParseAssignments turns "name=value" strings into a submission.
func ParseAssignments(assignments []string) (Submission, error) {
	var s Submission
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected name=value", a)
		}
		s = s.Add(name, value)
	}
	return s, nil
}

// ParseEncoded decodes an application/x-www-form-urlencoded body, keeping
// the pairs in the order they were sent.
func ParseEncoded(body string) (Submission, error) {
	var s Submission
	for body != "" {
		var pair string
		pair, body, _ = strings.Cut(body, "&")
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("invalid field name %q: %w", rawName, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", name, err)
		}
		s = s.Add(name, value)
	}
	return s, nil
}

// Payload is a merged submission: unique names in first-appearance order.
type Payload struct {
	keys   []string
	values []string
	index  map[string]int
}

// Keys returns the field names in order.
func (p Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Get returns the merged value for name.
func (p Payload) Get(name string) (string, bool) {
	i, ok := p.index[name]
	if !ok {
		return "", false
	}
	return p.values[i], true
}

// Len returns the number of distinct names.
func (p Payload) Len() int {
	return len(p.keys)
}

// Map returns the payload as a plain map.
func (p Payload) Map() map[string]string {
	m := make(map[string]string, len(p.keys))
	for i, k := range p.keys {
		m[k] = p.values[i]
	}
	return m
}

// Values returns the payload as url.Values with a single value per name.
func (p Payload) Values() url.Values {
	v := make(url.Values, len(p.keys))
	for i, k := range p.keys {
		v.Set(k, p.values[i])
	}
	return v
}

// Encode renders the payload as a form-urlencoded body in key order.
func (p Payload) Encode() string {
	var sb strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.values[i]))
	}
	return sb.String()
}
