package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/GriffinCanCode/vizy/internal/domain/project"
)

//go:embed templates/index.html
var templates embed.FS

var index = template.Must(template.ParseFS(templates, "templates/index.html"))

// Endpoints are the paths and poll delay the page script uses.
type Endpoints struct {
	Run          string
	Log          string
	Result       string
	PollInterval time.Duration
}

// DefaultEndpoints returns the standard code endpoints with a 500ms poll.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Run:          "/code/run",
		Log:          "/code/log",
		Result:       "/code/res",
		PollInterval: 500 * time.Millisecond,
	}
}

// Option is one choice of a choice parameter.
type Option struct {
	Value    string
	Selected bool
}

// Field is one form control.
type Field struct {
	Name        string
	Title       string
	Description string
	Kind        string
	Value       string
	Options     []Option
}

// View is the data the page template renders.
type View struct {
	Name        string
	Description string
	Readme      template.HTML
	Fields      []Field
	RunPath     string
	LogPath     string
	ResultPath  string
	PollMillis  int64
}

// Renderer builds the project page.
type Renderer struct {
	markdown *Markdown
}

// NewRenderer creates a renderer. highlight may be nil.
func NewRenderer(highlight Highlighter) *Renderer {
	return &Renderer{markdown: NewMarkdown(highlight)}
}

// View prepares the template data for p.
func (r *Renderer) View(p *project.Project) (View, error) {
	readme, err := r.markdown.Render(p.Readme)
	if err != nil {
		return View{}, err
	}

	v := View{
		Name:        p.Name,
		Description: p.Description,
		Readme:      readme,
		Fields:      make([]Field, 0, len(p.Parameters)),
	}
	for _, param := range p.Parameters {
		f := Field{
			Name:        param.Name,
			Title:       param.Title(),
			Description: param.Description,
			Kind:        string(param.Type),
		}
		if d := param.Defaults(); len(d) > 0 && (param.Type == project.Text || param.Type == project.Number) {
			f.Value = d[0]
		}
		for _, opt := range param.Options() {
			f.Options = append(f.Options, Option{Value: opt, Selected: param.Selected(opt)})
		}
		v.Fields = append(v.Fields, f)
	}
	return v, nil
}

// Render returns the full HTML page for p.
func (r *Renderer) Render(p *project.Project, endpoints Endpoints) ([]byte, error) {
	v, err := r.View(p)
	if err != nil {
		return nil, err
	}
	v.RunPath = endpoints.Run
	v.LogPath = endpoints.Log
	v.ResultPath = endpoints.Result
	v.PollMillis = endpoints.PollInterval.Milliseconds()

	var buf bytes.Buffer
	if err := index.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
