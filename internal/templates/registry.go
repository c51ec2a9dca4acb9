package templates

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"SiteForge/internal/domain"
)

// Registry keeps a mapping from template names to their definitions.
type Registry struct {
	templates  map[string]domain.TemplateDefinition
	industries map[string]domain.IndustryProfile
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates:  map[string]domain.TemplateDefinition{},
		industries: map[string]domain.IndustryProfile{},
	}
}

// NewDefaultRegistry returns a registry preloaded with the built-in templates and industries.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range builtinTemplates {
		r.Register(t)
	}
	for _, p := range builtinIndustries {
		r.RegisterIndustry(p)
	}
	return r
}

// Register adds or replaces a template definition. Slices are copied so the
// caller cannot mutate a registered definition.
func (r *Registry) Register(t domain.TemplateDefinition) {
	if r.templates == nil {
		r.templates = map[string]domain.TemplateDefinition{}
	}
	t.Sections = append([]string(nil), t.Sections...)
	t.Guidelines = append([]string(nil), t.Guidelines...)
	r.templates[strings.ToLower(t.Name)] = t
}

// RegisterIndustry adds or replaces an industry profile.
func (r *Registry) RegisterIndustry(p domain.IndustryProfile) {
	if r.industries == nil {
		r.industries = map[string]domain.IndustryProfile{}
	}
	r.industries[strings.ToLower(p.Name)] = p
}

// Resolve returns a template by name or a validation error if it is absent.
func (r *Registry) Resolve(name string) (domain.TemplateDefinition, error) {
	if t, ok := r.templates[strings.ToLower(strings.TrimSpace(name))]; ok {
		t.Sections = append([]string(nil), t.Sections...)
		t.Guidelines = append([]string(nil), t.Guidelines...)
		return t, nil
	}
	return domain.TemplateDefinition{}, &domain.ValidationError{
		Field:  "template",
		Reason: fmt.Sprintf("%q is not registered", name),
	}
}

// Industry returns the profile for an industry name, or nil when unknown.
func (r *Registry) Industry(name string) *domain.IndustryProfile {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	if p, ok := r.industries[name]; ok {
		return &p
	}
	return nil
}

// Names lists registered template names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for _, t := range r.templates {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

type fileDefinitions struct {
	Templates  []domain.TemplateDefinition `yaml:"templates"`
	Industries []domain.IndustryProfile    `yaml:"industries"`
}

// LoadFile registers extra templates and industries from a YAML file.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates %s: %w", path, err)
	}

	var defs fileDefinitions
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("parse templates %s: %w", path, err)
	}

	for _, t := range defs.Templates {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
		r.Register(t)
	}
	for _, p := range defs.Industries {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("industry without name in %s", path)
		}
		r.RegisterIndustry(p)
	}
	return nil
}
