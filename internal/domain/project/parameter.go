package project

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind is the input type of a parameter.
type Kind string

const (
	Text         Kind = "text"
	Number       Kind = "number"
	SingleChoice Kind = "single-choice"
	MultiChoice  Kind = "multi-choice"
)

// Parameter is one form field of the project.
type Parameter struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	Type        Kind   `yaml:"type" toml:"type" json:"type"`
	Label       string `yaml:"label,omitempty" toml:"label,omitempty" json:"label,omitempty"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Default     any    `yaml:"default,omitempty" toml:"default,omitempty" json:"default,omitempty"`
	Choices     []any  `yaml:"choices,omitempty" toml:"choices,omitempty" json:"choices,omitempty"`
}

// Title is the label shown next to the field.
func (p Parameter) Title() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Options returns the choices as strings.
func (p Parameter) Options() []string {
	out := make([]string, len(p.Choices))
	for i, c := range p.Choices {
		out[i] = stringify(c)
	}
	return out
}

// Defaults returns the default value(s) as strings. Multi-choice defaults
// are lists; every other kind has at most one value.
func (p Parameter) Defaults() []string {
	switch v := p.Default.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = stringify(item)
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return []string{stringify(v)}
	}
}

// Selected reports whether option is among the defaults.
func (p Parameter) Selected(option string) bool {
	return slices.Contains(p.Defaults(), option)
}

// check validates the definition itself.
func (p Parameter) check() error {
	if p.Name == "" {
		return fmt.Errorf("parameter without a name")
	}

	switch p.Type {
	case Text:
		return nil
	case Number:
		for _, d := range p.Defaults() {
			if _, err := strconv.ParseFloat(d, 64); err != nil {
				return fmt.Errorf("parameter %q: default %q is not a number", p.Name, d)
			}
		}
		return nil
	case SingleChoice, MultiChoice:
		if len(p.Choices) == 0 {
			return fmt.Errorf("parameter %q: %s parameter must have choices", p.Name, p.Type)
		}
		defaults := p.Defaults()
		if p.Type == SingleChoice && len(defaults) > 1 {
			return fmt.Errorf("parameter %q: single-choice default must be one value", p.Name)
		}
		options := p.Options()
		for _, d := range defaults {
			if !slices.Contains(options, d) {
				if p.Type == SingleChoice {
					return fmt.Errorf("parameter %q: default must be one of the choices", p.Name)
				}
				return fmt.Errorf("parameter %q: default must be a subset of the choices", p.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("parameter %q: invalid type %q", p.Name, p.Type)
	}
}

// validate checks one merged submitted value.
func (p Parameter) validate(value string, present bool) error {
	switch p.Type {
	case Number:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return &ValidationError{Field: p.Name, Reason: fmt.Sprintf("%q is not a number", value)}
		}
	case SingleChoice:
		if !present {
			return &ValidationError{Field: p.Name, Reason: "a choice is required"}
		}
		if !slices.Contains(p.Options(), value) {
			return &ValidationError{Field: p.Name, Reason: fmt.Sprintf("%q is not one of the choices", value)}
		}
	case MultiChoice:
		if value == "" {
			return nil
		}
		options := p.Options()
		for _, v := range strings.Split(value, ",") {
			if !slices.Contains(options, v) {
				return &ValidationError{Field: p.Name, Reason: fmt.Sprintf("%q is not one of the choices", v)}
			}
		}
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}
