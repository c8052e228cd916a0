// Package demos maps exercise names to demonstration videos.
package demos

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Demo is one demonstration video.
type Demo struct {
	Title    string   `yaml:"title" json:"title"`
	URL      string   `yaml:"url" json:"url"`
	Keywords []string `yaml:"keywords" json:"-"`
}

// Catalog looks up demos by exercise name.
type Catalog struct {
	demos []Demo
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var demos []Demo
	if err := yaml.Unmarshal(data, &demos); err != nil {
		return nil, fmt.Errorf("parsing demo catalog: %w", err)
	}
	for i, d := range demos {
		if d.URL == "" || len(d.Keywords) == 0 {
			return nil, fmt.Errorf("demo %d (%q): url and keywords are required", i, d.Title)
		}
		for j, kw := range d.Keywords {
			demos[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &Catalog{demos: demos}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the demo whose keyword is the longest case-insensitive
// substring of name. When nothing matches it reports false; there is no
// fallback video.
func (c *Catalog) Lookup(name string) (Demo, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Demo{}, false
	}

	var (
		best    Demo
		bestLen int
	)
	for _, d := range c.demos {
		for _, kw := range d.Keywords {
			if len(kw) > bestLen && strings.Contains(name, kw) {
				best, bestLen = d, len(kw)
			}
		}
	}
	return best, bestLen > 0
}

// Len returns the number of demos in the catalog.
func (c *Catalog) Len() int {
	return len(c.demos)
}
