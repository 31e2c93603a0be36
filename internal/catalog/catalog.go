// Package catalog supplies the externally sourced facts the core
// treats as given: which templates exist (and their category), which
// content types the host knows about, and which capabilities each
// role carries.
//
// The catalog is loaded once from a YAML file and injected into the
// validator and the CLI instead of being read from process-global
// state, so tests run against fixed catalogs.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/templatefall/templatefall/internal/rule"
)

// Template describes one installed fallback template.
type Template struct {
	// ID uniquely identifies the template.
	ID int `yaml:"id"`

	// Title is the human-readable template name.
	Title string `yaml:"title"`

	// Kind distinguishes reusable templates from other builder
	// documents that share the same id space. Only entries of the
	// template kind (the default) are selectable by rules.
	Kind string `yaml:"kind"`

	// Category tags the rendering slot family the template belongs
	// to. Must be a member of the closed category enumeration.
	Category rule.Category `yaml:"category"`
}

// Catalog is the loaded site catalog. Immutable after Load.
type Catalog struct {
	Templates    []Template          `yaml:"templates"`
	ContentTypes []string            `yaml:"content_types"`
	Roles        map[string][]string `yaml:"roles"`
}

// Load reads and validates a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.check(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

// check verifies internal consistency of a loaded catalog.
func (c *Catalog) check() error {
	seen := make(map[int]struct{}, len(c.Templates))
	for i, t := range c.Templates {
		if t.ID <= 0 {
			return fmt.Errorf("templates[%d]: id must be a positive integer", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("templates[%d]: duplicate template id %d", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Category != "" && !rule.ValidCategory(string(t.Category)) {
			return fmt.Errorf("templates[%d]: unknown category %q", i, t.Category)
		}
	}
	return nil
}

// TemplateKind is the document kind rules may reference.
const TemplateKind = "template"

// TemplateExists reports whether a template with the given id is
// installed and of the template kind. Documents of other kinds share
// the id space but are never selectable by rules.
func (c *Catalog) TemplateExists(id int) bool {
	for _, t := range c.Templates {
		if t.ID == id {
			return t.Kind == "" || t.Kind == TemplateKind
		}
	}
	return false
}

// TemplateCategory returns the category of the given template and
// whether the template exists. Templates without an explicit category
// default to the main-content category.
func (c *Catalog) TemplateCategory(id int) (rule.Category, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			if t.Category == "" {
				return rule.CategoryContent, true
			}
			return t.Category, true
		}
	}
	return "", false
}

// ContentTypeExists reports whether the host knows the given content
// type.
func (c *Catalog) ContentTypeExists(name string) bool {
	for _, ct := range c.ContentTypes {
		if ct == name {
			return true
		}
	}
	return false
}

// Capabilities expands a set of role names into the union of their
// capabilities. Role names themselves are included in the result, so
// a rule whose user_role names a role (rather than a fine-grained
// capability) gates correctly.
func (c *Catalog) Capabilities(roles ...string) []string {
	var caps []string
	seen := make(map[string]struct{})
	add := func(cap string) {
		if _, dup := seen[cap]; !dup {
			seen[cap] = struct{}{}
			caps = append(caps, cap)
		}
	}
	for _, role := range roles {
		add(role)
		for _, cap := range c.Roles[role] {
			add(cap)
		}
	}
	return caps
}

// Fixture builds an in-memory catalog for tests.
func Fixture(templates []Template, contentTypes []string, roles map[string][]string) *Catalog {
	return &Catalog{Templates: templates, ContentTypes: contentTypes, Roles: roles}
}
