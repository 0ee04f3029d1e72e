// Package locale resolves player-facing strings from per-locale YAML
// catalogs, formatted with golang.org/x/text/message.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every catalog falls back to.
const BaseLocale = "en-US"

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*.yaml
var embeddedFS embed.FS

// Catalog holds compiled messages for every loaded locale.
// It is read-only after construction and safe for concurrent use.
type Catalog struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
	keys    map[language.Tag]map[string]struct{}
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return LoadFS(embeddedFS, "locales")
}

// LoadDir loads catalogs from dir on disk, layered over the embedded ones so
// a partial override file only needs the keys it changes.
//
// Precondition: dir must be a readable directory.
func LoadDir(dir string) (*Catalog, error) {
	files, err := readFiles(embeddedFS, "locales")
	if err != nil {
		return nil, err
	}
	extra, err := readFiles(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("loading locale dir %q: %w", dir, err)
	}
	return build(append(files, extra...))
}

// LoadFS loads every *.yaml file under root in fsys.
func LoadFS(fsys fs.FS, root string) (*Catalog, error) {
	files, err := readFiles(fsys, root)
	if err != nil {
		return nil, err
	}
	return build(files)
}

func readFiles(fsys fs.FS, root string) ([]catalogFile, error) {
	pattern := "*.yaml"
	if root != "." {
		pattern = path.Join(root, pattern)
	}
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	sort.Strings(paths)

	files := make([]catalogFile, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if strings.TrimSpace(f.Locale) == "" {
			return nil, fmt.Errorf("catalog %s: locale is required", p)
		}
		files = append(files, f)
	}
	return files, nil
}

func build(files []catalogFile) (*Catalog, error) {
	base := language.MustParse(BaseLocale)
	c := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(base)),
		keys:    make(map[language.Tag]map[string]struct{}),
	}
	seen := map[language.Tag]bool{}
	for _, f := range files {
		tag, err := language.Parse(f.Locale)
		if err != nil {
			return nil, fmt.Errorf("catalog locale %q: %w", f.Locale, err)
		}
		if !seen[tag] {
			seen[tag] = true
			c.tags = append(c.tags, tag)
			c.keys[tag] = make(map[string]struct{})
		}
		for key, msg := range f.Messages {
			if err := c.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s key %q: %w", f.Locale, key, err)
			}
			c.keys[tag][key] = struct{}{}
		}
	}
	if !seen[base] {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	// The base locale leads so the matcher falls back to it.
	sort.SliceStable(c.tags, func(i, j int) bool { return c.tags[i] == base && c.tags[j] != base })
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Resolve maps a requested locale code to the closest loaded locale.
func (c *Catalog) Resolve(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return c.tags[0]
	}
	_, idx, _ := c.matcher.Match(tag)
	return c.tags[idx]
}

// Text formats the message for key in the locale closest to code. Unknown
// keys in a locale fall back to the base locale.
func (c *Catalog) Text(code, key string, args ...any) string {
	tag := c.Resolve(code)
	if _, ok := c.keys[tag][key]; !ok {
		tag = c.tags[0]
	}
	p := message.NewPrinter(tag, message.Catalog(c.builder))
	return p.Sprintf(key, args...)
}

// Locales returns the loaded locale codes, base locale first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}
