package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Language is one selectable source language.
type Language struct {
	Label string `yaml:"label" json:"label"`
	Lexer string `yaml:"lexer" json:"lexer"`
}

// Catalog lists the language labels offered by the form.
type Catalog struct {
	DefaultLanguage string     `yaml:"default_language" json:"defaultLanguage"`
	Placeholder     string     `yaml:"placeholder" json:"placeholder"`
	Languages       []Language `yaml:"languages" json:"languages"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It panics if the embedded file is malformed.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalog)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded catalog: %v", defaultErr))
	}
	return defaultCat
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(c.Languages) == 0 {
		return nil, fmt.Errorf("catalog: no languages")
	}
	seen := make(map[string]struct{}, len(c.Languages))
	for i, l := range c.Languages {
		label := strings.TrimSpace(l.Label)
		if label == "" {
			return nil, fmt.Errorf("catalog: language %d has no label", i)
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate language %q", label)
		}
		seen[key] = struct{}{}
		c.Languages[i].Label = label
	}
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		c.DefaultLanguage = c.Languages[0].Label
	}
	return &c, nil
}

// Labels returns the language labels in display order.
func (c *Catalog) Labels() []string {
	out := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		out = append(out, l.Label)
	}
	return out
}

// Lookup finds a language by label, ignoring case.
func (c *Catalog) Lookup(label string) (Language, bool) {
	label = strings.TrimSpace(label)
	for _, l := range c.Languages {
		if strings.EqualFold(l.Label, label) {
			return l, true
		}
	}
	return Language{}, false
}

// LexerFor returns the highlighter alias for a label. Labels outside the
// catalog are passed through lower-cased so free-form labels still have a chance.
func (c *Catalog) LexerFor(label string) string {
	if l, ok := c.Lookup(label); ok && l.Lexer != "" {
		return l.Lexer
	}
	return strings.ToLower(strings.TrimSpace(label))
}
