package cliche

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const phrasesPathEnv = "CLICHE_PHRASES_PATH"

//go:embed phrases.yaml
var phrasesFS embed.FS

// Table maps a category to the phrases registered under it.
type Table map[string][]string

type tableFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// DefaultTable loads the embedded phrase table, or the YAML file named by
// CLICHE_PHRASES_PATH when set.
func DefaultTable() (Table, error) {
	if path := strings.TrimSpace(os.Getenv(phrasesPathEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return parseTable(raw)
	}
	raw, err := phrasesFS.ReadFile("phrases.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded phrases.yaml: %w", err)
	}
	return parseTable(raw)
}

func parseTable(raw []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse phrase table: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("phrase table has no categories")
	}
	t := make(Table, len(f.Categories))
	for cat, phrases := range f.Categories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			continue
		}
		for _, p := range phrases {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			t[cat] = append(t[cat], p)
		}
	}
	return t, nil
}
