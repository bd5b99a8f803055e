// Package content loads the text of the portfolio pages.
package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultYAML []byte

type Project struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Entry is one job or one course of study.
type Entry struct {
	Title        string   `yaml:"title"`
	Organization string   `yaml:"organization"`
	StartDate    string   `yaml:"start_date"`
	EndDate      string   `yaml:"end_date"`
	LogoPath     string   `yaml:"logo_path,omitempty"`
	BulletPoints []string `yaml:"bullet_points"`
}

type Site struct {
	Name      string    `yaml:"name"`
	Tagline   string    `yaml:"tagline"`
	AboutMe   string    `yaml:"about_me"`
	Projects  []Project `yaml:"projects"`
	Work      []Entry   `yaml:"work"`
	Education []Entry   `yaml:"education"`
}

// Default returns the content bundled with the binary.
func Default() *Site {
	site, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("content: bundled content.yaml is invalid: %v", err))
	}
	return site
}

// Load reads a YAML content file. An empty path yields the bundled content.
func Load(path string) (*Site, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	site, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return site, nil
}

// Parse decodes a content document, rejecting unknown keys.
func Parse(b []byte) (*Site, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var site Site
	if err := dec.Decode(&site); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if site.Name == "" {
		return nil, fmt.Errorf("parse content: name is required")
	}
	return &site, nil
}
