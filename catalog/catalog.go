// Package catalog holds the read-only table of template categories.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tbxark/formdoc/types"
	"gopkg.in/yaml.v3"
)

type Template struct {
	Name string `yaml:"name" json:"name"`
	File string `yaml:"file" json:"file"`
}

type Category struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Templates   []Template `yaml:"templates" json:"templates"`
}

// Template looks up a template by display name.
func (c *Category) Template(name string) (Template, bool) {
	for _, t := range c.Templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

func (c *Category) TemplateNames() []string {
	names := make([]string, 0, len(c.Templates))
	for _, t := range c.Templates {
		names = append(names, t.Name)
	}
	return names
}

// Catalog keeps categories and templates in declaration order.
type Catalog struct {
	Categories []Category   `yaml:"categories" json:"categories"`
	Rules      *types.Rules `yaml:"rules,omitempty" json:"rules,omitempty"`
}

func (c *Catalog) Category(name string) (*Category, error) {
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return &c.Categories[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownCategory, name)
}

func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// FieldRules returns the catalog rules, or the built-in ones when the file declares none.
func (c *Catalog) FieldRules() types.Rules {
	if c.Rules == nil {
		return types.DefaultRules()
	}
	return *c.Rules
}

func (c *Catalog) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("catalog has no categories")
	}
	categories := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return errors.New("category name is empty")
		}
		if _, dup := categories[cat.Name]; dup {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		categories[cat.Name] = struct{}{}
		templates := make(map[string]struct{}, len(cat.Templates))
		for _, t := range cat.Templates {
			if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.File) == "" {
				return fmt.Errorf("category %q: template needs a name and a file", cat.Name)
			}
			if _, dup := templates[t.Name]; dup {
				return fmt.Errorf("category %q: duplicate template %q", cat.Name, t.Name)
			}
			templates[t.Name] = struct{}{}
		}
	}
	return nil
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Default is the catalog of the medical discharge forms the bot was built for.
func Default() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				Name:        "ОМС",
				Description: "📄 Базовые документы по полису ОМС",
				Templates:   []Template{{Name: "ОМС", File: "ОМС.docx"}},
			},
			{
				Name:        "ВМП",
				Description: "🔬 Высокотехнологичная медицинская помощь",
				Templates: []Template{
					{Name: "ВМП_выписка", File: "ВМП_выписка.docx"},
					{Name: "ВМП_направление", File: "ВМП_направление.docx"},
					{Name: "ВМП_протокол", File: "ВМП_протокол.docx"},
				},
			},
			{
				Name:        "ВМП в ОМС",
				Description: "💊 ВМП в рамках обязательного медицинского страхования",
				Templates: []Template{
					{Name: "ВМП_ОМС_выписка", File: "ВМП_ОМС_выписка.docx"},
					{Name: "ВМП_ОМС_направление", File: "ВМП_ОМС_направление.docx"},
					{Name: "ВМП_ОМС_протокол", File: "ВМП_ОМС_протокол.docx"},
				},
			},
		},
	}
}
