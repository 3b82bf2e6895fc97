package responder

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// builtinTones is the closed tone set. A tone outside the catalog rejects
// the request before any network call.
var builtinTones = []string{
	"apologetic", "assertive", "casual", "conciliatory", "direct",
	"empathetic", "encouraging", "formal", "friendly", "humorous",
	"informative", "inspirational", "motivational", "neutral",
	"optimistic", "professional", "persuasive", "respectful",
	"serious", "sincere", "sympathetic", "technical", "warm",
}

// ToneCatalog is the enumerated set of accepted tones, optionally extended
// from a preset file. Lookup is case-insensitive; stored names are
// lower-case.
type ToneCatalog struct {
	tones map[string]struct{}
}

// NewToneCatalog returns the catalog with the built-in tone set.
func NewToneCatalog() *ToneCatalog {
	c := &ToneCatalog{tones: make(map[string]struct{}, len(builtinTones))}
	for _, tone := range builtinTones {
		c.tones[tone] = struct{}{}
	}
	return c
}

// tonesFile is the yaml shape of an optional preset file:
//
//	tones:
//	  - name: executive
//	  - name: playful
type tonesFile struct {
	Tones []struct {
		Name string `yaml:"name"`
	} `yaml:"tones"`
}

// LoadToneCatalog returns the built-in catalog extended with any tones from
// the yaml preset file at path. An empty path returns the built-in catalog.
func LoadToneCatalog(path string) (*ToneCatalog, error) {
	catalog := NewToneCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tone presets %s: %w", path, err)
	}
	var file tonesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tone presets %s: %w", path, err)
	}
	for _, tone := range file.Tones {
		name := strings.ToLower(strings.TrimSpace(tone.Name))
		if name != "" {
			catalog.tones[name] = struct{}{}
		}
	}
	return catalog, nil
}

// Contains reports whether tone is in the catalog. Case-insensitive.
func (c *ToneCatalog) Contains(tone string) bool {
	_, ok := c.tones[strings.ToLower(strings.TrimSpace(tone))]
	return ok
}

// Names returns the sorted tone names, for UI dropdowns and error messages.
func (c *ToneCatalog) Names() []string {
	names := make([]string, 0, len(c.tones))
	for name := range c.tones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
