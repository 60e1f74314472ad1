// Package vocabulary holds the static clothing vocabulary: the synonym table
// used by query expansion and the keyword lists used for fallback tagging.
// A Vocabulary is immutable once loaded and safe for concurrent readers.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/bazaar-search/internal/core/textnorm"
)

//go:embed default.yaml
var defaultYAML []byte

type file struct {
	Synonyms     map[string][]string `yaml:"synonyms"`
	GarmentTypes []string            `yaml:"garment_types"`
	Styles       []string            `yaml:"styles"`
	Colors       []string            `yaml:"colors"`
	FallbackTags []string            `yaml:"fallback_tags"`
}

type Vocabulary struct {
	synonyms     map[string][]string
	reverse      map[string][]string
	garmentTypes []string
	styles       []string
	colors       []string
	fallbackTags []string
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
)

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("vocabulary: embedded default is invalid: %v", err))
		}
		defaultVocab = v
	})
	return defaultVocab
}

// Load reads a vocabulary file, or returns Default when path is empty.
func Load(path string) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	v, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

func Parse(raw []byte) (*Vocabulary, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode vocabulary yaml: %w", err)
	}

	v := &Vocabulary{
		synonyms:     make(map[string][]string, len(f.Synonyms)),
		reverse:      make(map[string][]string),
		garmentTypes: textnorm.Terms(f.GarmentTypes),
		styles:       textnorm.Terms(f.Styles),
		colors:       textnorm.Terms(f.Colors),
		fallbackTags: textnorm.Terms(f.FallbackTags),
	}
	for rawKey, rawValues := range f.Synonyms {
		key := textnorm.Term(rawKey)
		if key == "" {
			return nil, fmt.Errorf("synonym entry with empty key")
		}
		values := textnorm.Terms(append(v.synonyms[key], rawValues...))
		v.synonyms[key] = values
	}
	for key, values := range v.synonyms {
		for _, value := range values {
			v.reverse[value] = appendUnique(v.reverse[value], key)
		}
	}
	return v, nil
}

// Synonyms returns the forward entries for term. The table is not symmetric.
func (v *Vocabulary) Synonyms(term string) []string {
	return cloneStrings(v.synonyms[textnorm.Term(term)])
}

// Expand returns forward synonyms of term and, when bidirectional is set,
// the keys whose entries list term.
func (v *Vocabulary) Expand(term string, bidirectional bool) []string {
	key := textnorm.Term(term)
	out := cloneStrings(v.synonyms[key])
	if !bidirectional {
		return out
	}
	for _, back := range v.reverse[key] {
		out = appendUnique(out, back)
	}
	return out
}

// Keywords lists garment types, styles and colors in that order.
func (v *Vocabulary) Keywords() []string {
	out := make([]string, 0, len(v.garmentTypes)+len(v.styles)+len(v.colors))
	out = append(out, v.garmentTypes...)
	out = append(out, v.styles...)
	return append(out, v.colors...)
}

// ExtractTags returns every keyword contained in the normalized text. When
// nothing matches the fallback tags are returned.
func (v *Vocabulary) ExtractTags(text string) []string {
	normalized := textnorm.Term(text)
	tags := make([]string, 0, 8)
	if normalized != "" {
		for _, keyword := range v.Keywords() {
			if strings.Contains(normalized, keyword) {
				tags = appendUnique(tags, keyword)
			}
		}
	}
	if len(tags) == 0 {
		return cloneStrings(v.fallbackTags)
	}
	return tags
}

func (v *Vocabulary) Size() int {
	return len(v.synonyms)
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
