package llm

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var defaultPrompts embed.FS

const promptExt = ".tmpl"

// Prompts is a set of named text/template prompts.
type Prompts struct {
	templates map[string]*template.Template
}

// LoadPrompts parses the built-in prompts and then overrides any of them
// with a file of the same name (<name>.tmpl or <name>.md) found in dir.
// An empty dir uses the built-in set only.
func LoadPrompts(dir string) (*Prompts, error) {
	p := &Prompts{templates: make(map[string]*template.Template)}

	entries, err := fs.ReadDir(defaultPrompts, "prompts")
	if err != nil {
		return nil, fmt.Errorf("read embedded prompts: %w", err)
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), promptExt)
		data, err := defaultPrompts.ReadFile("prompts/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded prompt %s: %w", name, err)
		}
		if err := p.add(name, string(data)); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(dir) == "" {
		return p, nil
	}
	for name := range p.templates {
		for _, ext := range []string{promptExt, ".md"} {
			data, err := os.ReadFile(filepath.Join(dir, name+ext))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read prompt %s: %w", name, err)
			}
			if err := p.add(name, string(data)); err != nil {
				return nil, err
			}
			break
		}
	}
	return p, nil
}

func (p *Prompts) add(name, text string) error {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return fmt.Errorf("parse prompt %s: %w", name, err)
	}
	p.templates[name] = tmpl
	return nil
}

// Render executes the named prompt with inputs.
func (p *Prompts) Render(name string, inputs map[string]string) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	if inputs == nil {
		inputs = map[string]string{}
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, inputs); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Names lists the loaded prompts.
func (p *Prompts) Names() []string {
	names := make([]string, 0, len(p.templates))
	for name := range p.templates {
		names = append(names, name)
	}
	return names
}
