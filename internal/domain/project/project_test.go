package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloYAML = `name: hello-world
description: Greets someone
parameters:
  - name: who
    type: text
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
task:
  command: ["sh", "-c", "echo $VIZY_WHO"]
  dir: scripts
  timeout: 1m
  env:
    B: "2"
    A: "1"
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadYAML(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"vizy.yaml": helloYAML,
		"README.md": "# Hello\n",
	})

	p, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "hello-world", p.Name)
	assert.Equal(t, "# Hello\n", p.Readme)
	assert.Equal(t, filepath.Join(dir, "vizy.yaml"), p.File)
	assert.Equal(t, filepath.Join(dir, "scripts"), p.WorkDir())
	assert.Equal(t, time.Minute, p.Timeout(time.Hour))
	require.Len(t, p.Parameters, 4)

	assert.Equal(t, []string{"world"}, p.Parameters[0].Defaults())
	assert.Equal(t, []string{"2"}, p.Parameters[1].Defaults())
	assert.Equal(t, []string{"hi", "hello"}, p.Parameters[2].Options())
	assert.Equal(t, []string{"red", "blue"}, p.Parameters[3].Defaults())
	assert.True(t, p.Parameters[3].Selected("blue"))
	assert.False(t, p.Parameters[3].Selected("green"))
}

func TestLoadTOMLAndJSON(t *testing.T) {
	toml := `name = "calc"

[[parameters]]
name = "n"
type = "number"
default = 1.5

[task]
command = ["./calc"]
`
	json := `{"name": "calc", "parameters": [{"name": "n", "type": "number", "default": 1.5}], "task": {"command": ["./calc"]}}`

	for name, content := range map[string]string{"vizy.toml": toml, "vizy.json": json} {
		t.Run(name, func(t *testing.T) {
			p, err := Load(writeProject(t, map[string]string{name: content}))
			require.NoError(t, err)
			assert.Equal(t, "calc", p.Name)
			assert.Empty(t, p.Readme)
			assert.Equal(t, []string{"1.5"}, p.Parameters[0].Defaults())
			assert.Equal(t, 10*time.Second, p.Timeout(10*time.Second))
			assert.Equal(t, p.Dir, p.WorkDir())
		})
	}
}

func TestFindPrefersYAML(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"vizy.json": `{}`,
		"vizy.yml":  "name: x",
	})
	file, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vizy.yml"), file)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "missing name",
			content: "task:\n  command: [ls]\n",
			check:   isInvalid("must contain a name"),
		},
		{
			name:    "no task",
			content: "name: x\n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoTask)
			},
		},
		{
			name:    "choice without choices",
			content: "name: x\nparameters:\n  - name: c\n    type: single-choice\ntask:\n  command: [ls]\n",
			check:   isInvalid("must have choices"),
		},
		{
			name:    "single-choice default outside choices",
			content: "name: x\nparameters:\n  - name: c\n    type: single-choice\n    choices: [a, b]\n    default: z\ntask:\n  command: [ls]\n",
			check:   isInvalid("one of the choices"),
		},
		{
			name:    "multi-choice default not a subset",
			content: "name: x\nparameters:\n  - name: c\n    type: multi-choice\n    choices: [a, b]\n    default: [a, z]\ntask:\n  command: [ls]\n",
			check:   isInvalid("subset of the choices"),
		},
		{
			name:    "unknown type",
			content: "name: x\nparameters:\n  - name: c\n    type: date\ntask:\n  command: [ls]\n",
			check:   isInvalid("invalid type"),
		},
		{
			name:    "bad timeout",
			content: "name: x\ntask:\n  command: [ls]\n  timeout: soon\n",
			check:   isInvalid("not a duration"),
		},
		{
			name:    "malformed yaml",
			content: "name: [unclosed\n",
			check:   isInvalid("decode"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeProject(t, map[string]string{"vizy.yaml": tt.content}))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func isInvalid(reason string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var invalid *InvalidProjectError
		require.True(t, errors.As(err, &invalid), "got %v", err)
		assert.Contains(t, invalid.Error(), reason)
		assert.NotEmpty(t, invalid.File)
	}
}

func TestLoadNoProject(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestValidate(t *testing.T) {
	p, err := Parse(".yaml", []byte(helloYAML))
	require.NoError(t, err)

	tests := []struct {
		name    string
		fields  form.Submission
		wantErr []string
	}{
		{
			name:   "valid",
			fields: form.Submission{{"who", "bob"}, {"times", "3"}, {"greeting", "hi"}, {"colors", "red"}, {"colors", "green"}},
		},
		{
			name:   "no colors checked",
			fields: form.Submission{{"times", "1"}, {"greeting", "hi"}},
		},
		{
			name:    "not a number",
			fields:  form.Submission{{"times", "many"}, {"greeting", "hi"}},
			wantErr: []string{`times: "many" is not a number`},
		},
		{
			name:    "bad choices",
			fields:  form.Submission{{"times", "1"}, {"greeting", "yo"}, {"colors", "red"}, {"colors", "pink"}},
			wantErr: []string{`greeting: "yo" is not one of the choices`, `colors: "pink" is not one of the choices`},
		},
		{
			name:    "missing single choice",
			fields:  form.Submission{{"times", "1"}},
			wantErr: []string{"greeting: a choice is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.fields.Merge())
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestInputsAndEnviron(t *testing.T) {
	p, err := Parse(".yaml", []byte(helloYAML))
	require.NoError(t, err)

	inputs := p.Inputs(form.Submission{{"who", "bob"}, {"extra", "ignored"}}.Merge())
	assert.Equal(t, map[string]string{
		"who":      "bob",
		"times":    "2",
		"greeting": "hello",
		"colors":   "red,blue",
	}, inputs)

	assert.Equal(t, []string{
		"A=1",
		"B=2",
		"VIZY_WHO=bob",
		"VIZY_TIMES=2",
		"VIZY_GREETING=hello",
		"VIZY_COLORS=red,blue",
	}, p.Environ(inputs))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "VIZY_FIRST_NAME", EnvName("first-name"))
	assert.Equal(t, "VIZY_X2", EnvName("x2"))
	assert.Equal(t, "VIZY__", EnvName("é"))
}
