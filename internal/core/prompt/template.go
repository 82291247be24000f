// Package prompt renders the versioned summarization prompts.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// Version identifies the embedded template set. Bump it whenever the
// wording changes so generated documents can be traced back.
const Version = "2025.07-2"

//go:embed templates/*.tmpl
var embedded embed.FS

// Data parameterizes one rendering.
type Data struct {
	Content        string
	SourceURL      string
	SourcePDF      string
	Department     string
	Category       string
	Year           string
	Tags           []string
	Departments    []domain.DepartmentGroup
	ThumbnailRunes int
}

// Overrides point at template files replacing the embedded defaults.
type Overrides struct {
	SystemPath string `yaml:"system"`
	UserPath   string `yaml:"user"`
}

type Template struct {
	profile string
	system  *template.Template
	user    *template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Load returns the template pair for profile, reading overrides from
// disk when they are set.
func Load(profile string, overrides Overrides) (*Template, error) {
	system, err := load(profile, "system", overrides.SystemPath)
	if err != nil {
		return nil, err
	}
	user, err := load(profile, "user", overrides.UserPath)
	if err != nil {
		return nil, err
	}
	return &Template{profile: profile, system: system, user: user}, nil
}

func load(profile, part, overridePath string) (*template.Template, error) {
	name := profile + "_" + part
	var (
		source []byte
		err    error
	)
	if overridePath != "" {
		source, err = os.ReadFile(overridePath)
		if err != nil {
			return nil, domain.WrapError(domain.ErrConfig, "read prompt override", err)
		}
	} else {
		source, err = embedded.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return nil, domain.WrapError(domain.ErrConfig, "load prompt template", fmt.Errorf("no %s template for profile %q", part, profile))
		}
	}

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(source))
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "parse prompt template "+name, err)
	}
	return tmpl, nil
}

// Render produces the system and user messages.
func (t *Template) Render(data Data) (string, string, error) {
	system, err := execute(t.system, data)
	if err != nil {
		return "", "", err
	}
	user, err := execute(t.user, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func (t *Template) Profile() string {
	return t.profile
}

func execute(tmpl *template.Template, data Data) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
