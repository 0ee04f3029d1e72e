// Package dictionary provides answer selection and membership checks over
// per-language word lists loaded from YAML.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnknownLanguage is returned when no word list exists for a language.
var ErrUnknownLanguage = errors.New("unknown language")

// ErrNoAnswer is returned when a language has no answer of the requested length.
var ErrNoAnswer = errors.New("no answer of requested length")

// WordList is one YAML word list file.
//
// Answers are candidates for the hidden word; Allowed are additional words
// accepted as guesses. Every answer is also an allowed guess.
type WordList struct {
	Language string   `yaml:"language"`
	Answers  []string `yaml:"answers"`
	Allowed  []string `yaml:"allowed"`
}

type index struct {
	answers map[int][]string
	valid   map[string]struct{}
}

// Dictionary indexes word lists by language. It is read-only after New and
// safe for concurrent use.
type Dictionary struct {
	langs  map[string]*index
	src    Source
	logger *zap.Logger
}

// Normalize lower-cases and trims a word so lookups are case-insensitive.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// LoadDir reads every .yaml file in dir as a WordList.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns the parsed lists sorted by file name, or a non-nil error.
func LoadDir(dir string) ([]*WordList, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading word list dir %q: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	lists := make([]*WordList, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var wl WordList
		if err := yaml.Unmarshal(data, &wl); err != nil {
			return nil, fmt.Errorf("parsing word list %s: %w", path, err)
		}
		if wl.Language == "" {
			return nil, fmt.Errorf("word list %s: language is required", path)
		}
		lists = append(lists, &wl)
	}
	return lists, nil
}

// New builds a Dictionary from lists. Lists sharing a language are merged.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a Dictionary or an error when lists is empty.
func New(lists []*WordList, src Source, logger *zap.Logger) (*Dictionary, error) {
	if len(lists) == 0 {
		return nil, errors.New("dictionary: no word lists")
	}
	d := &Dictionary{langs: make(map[string]*index), src: src, logger: logger}
	for _, wl := range lists {
		lang := Normalize(wl.Language)
		idx, ok := d.langs[lang]
		if !ok {
			idx = &index{answers: make(map[int][]string), valid: make(map[string]struct{})}
			d.langs[lang] = idx
		}
		for _, w := range wl.Answers {
			w = Normalize(w)
			if w == "" {
				continue
			}
			if _, dup := idx.valid[w]; !dup {
				n := utf8.RuneCountInString(w)
				idx.answers[n] = append(idx.answers[n], w)
			}
			idx.valid[w] = struct{}{}
		}
		for _, w := range wl.Allowed {
			if w = Normalize(w); w != "" {
				idx.valid[w] = struct{}{}
			}
		}
	}
	for lang, idx := range d.langs {
		logger.Debug("dictionary language indexed",
			zap.String("language", lang),
			zap.Int("words", len(idx.valid)),
		)
	}
	return d, nil
}

// SelectAnswer picks a random answer of the given rune length.
//
// Postcondition: Returns a normalised word of exactly length runes, or
// ErrUnknownLanguage / ErrNoAnswer.
func (d *Dictionary) SelectAnswer(_ context.Context, language string, length int) (string, error) {
	idx, ok := d.langs[Normalize(language)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	candidates := idx.answers[length]
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s/%d", ErrNoAnswer, language, length)
	}
	return candidates[d.src.Intn(len(candidates))], nil
}

// Exists reports whether word is an accepted guess in language.
func (d *Dictionary) Exists(_ context.Context, language, word string) (bool, error) {
	idx, ok := d.langs[Normalize(language)]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	_, found := idx.valid[Normalize(word)]
	return found, nil
}

// Languages returns the indexed language codes in sorted order.
func (d *Dictionary) Languages() []string {
	out := make([]string, 0, len(d.langs))
	for lang := range d.langs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
