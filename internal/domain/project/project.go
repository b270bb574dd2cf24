package project

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// FilePattern matches the definition file names, in order of preference.
const FilePattern = "vizy.{yaml,yml,toml,json}"

// ReadmeFile is rendered above the form when present.
const ReadmeFile = "README.md"

// EnvPrefix starts the name of every input variable passed to the task.
const EnvPrefix = "VIZY_"

var preference = []string{".yaml", ".yml", ".toml", ".json"}

// Task is the command run for every submission.
type Task struct {
	Command []string          `yaml:"command" toml:"command" json:"command"`
	Dir     string            `yaml:"dir,omitempty" toml:"dir,omitempty" json:"dir,omitempty"`
	Timeout string            `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" toml:"env,omitempty" json:"env,omitempty"`
}

// Project is a loaded vizy project.
type Project struct {
	Name        string      `yaml:"name" toml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Parameters  []Parameter `yaml:"parameters,omitempty" toml:"parameters,omitempty" json:"parameters,omitempty"`
	Task        Task        `yaml:"task" toml:"task" json:"task"`

	// Readme is the markdown source of README.md, empty when absent.
	Readme string `yaml:"-" toml:"-" json:"-"`
	// Dir is the absolute project directory.
	Dir string `yaml:"-" toml:"-" json:"-"`
	// File is the definition file the project was read from.
	File string `yaml:"-" toml:"-" json:"-"`

	timeout time.Duration
}

// Find returns the path of the definition file in dir.
func Find(dir string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), FilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("search %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoProject, dir)
	}

	for _, ext := range preference {
		for _, m := range matches {
			if filepath.Ext(m) == ext {
				return filepath.Join(dir, m), nil
			}
		}
	}
	return filepath.Join(dir, matches[0]), nil
}

// Load reads and checks the project in dir.
func Load(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	file, err := Find(abs)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	p, err := Parse(filepath.Ext(file), data)
	if err != nil {
		var invalid *InvalidProjectError
		if errors.As(err, &invalid) {
			invalid.File = file
		}
		return nil, err
	}
	p.Dir = abs
	p.File = file

	readme, err := os.ReadFile(filepath.Join(abs, ReadmeFile))
	switch {
	case err == nil:
		p.Readme = string(readme)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read readme: %w", err)
	}

	return p, nil
}

// Parse decodes a definition in the format named by ext and checks it.
func Parse(ext string, data []byte) (*Project, error) {
	var p Project
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		err = toml.Unmarshal(data, &p)
	case ".json":
		err = sonic.Unmarshal(data, &p)
	default:
		return nil, &InvalidProjectError{Reason: fmt.Sprintf("unsupported format %q", ext)}
	}
	if err != nil {
		return nil, &InvalidProjectError{Reason: "decode", Err: err}
	}

	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Project) check() error {
	if p.Name == "" {
		return &InvalidProjectError{Reason: "project file must contain a name"}
	}

	seen := make(map[string]bool, len(p.Parameters))
	for _, param := range p.Parameters {
		if err := param.check(); err != nil {
			return &InvalidProjectError{Reason: err.Error()}
		}
		if seen[param.Name] {
			return &InvalidProjectError{Reason: fmt.Sprintf("duplicate parameter %q", param.Name)}
		}
		seen[param.Name] = true
	}

	if len(p.Task.Command) == 0 || p.Task.Command[0] == "" {
		return ErrNoTask
	}
	if p.Task.Timeout != "" {
		d, err := time.ParseDuration(p.Task.Timeout)
		if err != nil || d < 0 {
			return &InvalidProjectError{Reason: fmt.Sprintf("task timeout %q is not a duration", p.Task.Timeout)}
		}
		p.timeout = d
	}
	return nil
}

// Timeout returns the task timeout, or fallback when the project sets none.
func (p *Project) Timeout(fallback time.Duration) time.Duration {
	if p.timeout > 0 {
		return p.timeout
	}
	return fallback
}

// WorkDir returns the directory the task runs in.
func (p *Project) WorkDir() string {
	switch {
	case p.Task.Dir == "":
		return p.Dir
	case filepath.IsAbs(p.Task.Dir):
		return p.Task.Dir
	default:
		return filepath.Join(p.Dir, p.Task.Dir)
	}
}

// Parameter looks a parameter up by name.
func (p *Project) Parameter(name string) (Parameter, bool) {
	for _, param := range p.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// Validate checks every parameter's submitted value. All problems are
// reported together.
func (p *Project) Validate(payload form.Payload) error {
	var errs []error
	for _, param := range p.Parameters {
		value, ok := payload.Get(param.Name)
		if err := param.validate(value, ok); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Inputs returns the value of every parameter: the submitted one, or the
// comma-joined defaults when the field was not submitted. Fields that are
// not parameters are ignored.
func (p *Project) Inputs(payload form.Payload) map[string]string {
	inputs := make(map[string]string, len(p.Parameters))
	for _, param := range p.Parameters {
		if v, ok := payload.Get(param.Name); ok {
			inputs[param.Name] = v
			continue
		}
		inputs[param.Name] = strings.Join(param.Defaults(), ",")
	}
	return inputs
}

// Environ turns inputs into VIZY_<NAME>=value entries, after the task's own
// env entries.
func (p *Project) Environ(inputs map[string]string) []string {
	env := make([]string, 0, len(p.Task.Env)+len(inputs))
	for _, k := range slices.Sorted(maps.Keys(p.Task.Env)) {
		env = append(env, k+"="+p.Task.Env[k])
	}
	for _, param := range p.Parameters {
		if v, ok := inputs[param.Name]; ok {
			env = append(env, EnvName(param.Name)+"="+v)
		}
	}
	return env
}

// EnvName returns the variable name for a parameter: upper case with every
// character outside [A-Z0-9] replaced by an underscore.
func EnvName(param string) string {
	var sb strings.Builder
	sb.WriteString(EnvPrefix)
	for _, r := range strings.ToUpper(param) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
