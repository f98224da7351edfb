package risk

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const lexiconPathEnv = "RISK_LEXICON_PATH"

//go:embed lexicon.yaml
var lexiconFS embed.FS

// Lexicon maps a topic group to its keywords. Keywords may be multi-word.
type Lexicon map[string][]string

type lexiconFile struct {
	Topics map[string][]string `yaml:"topics"`
}

// DefaultLexicon loads the embedded lexicon, or the YAML file named by
// RISK_LEXICON_PATH when set.
func DefaultLexicon() (Lexicon, error) {
	if path := strings.TrimSpace(os.Getenv(lexiconPathEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return parseLexicon(raw)
	}
	raw, err := lexiconFS.ReadFile("lexicon.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded lexicon.yaml: %w", err)
	}
	return parseLexicon(raw)
}

func parseLexicon(raw []byte) (Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(f.Topics) == 0 {
		return nil, fmt.Errorf("lexicon has no topics")
	}
	lex := make(Lexicon, len(f.Topics))
	for topic, keywords := range f.Topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			lex[topic] = append(lex[topic], kw)
		}
	}
	return lex, nil
}
