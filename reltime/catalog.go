package reltime

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is used when no catalog matches the requested locale.
const BaseLocale = "en-US"

const keyAbsolute = "absolute.long"

func relativeKey(u Unit, dir string) string { return "relative." + u.String() + "." + dir }

type catalogFile struct {
	Locale   string                 `yaml:"locale"`
	Absolute absoluteFile           `yaml:"absolute"`
	Relative map[string]unitPhrases `yaml:"relative"`
}

type absoluteFile struct {
	// Layout is a message format over (weekday, month, day, year, clock),
	// all passed as strings.
	Layout   string   `yaml:"layout"`
	Clock    string   `yaml:"clock"`
	Weekdays []string `yaml:"weekdays"`
	Months   []string `yaml:"months"`
}

type unitPhrases struct {
	Past   pluralForms    `yaml:"past"`
	Future pluralForms    `yaml:"future"`
	Auto   map[int]string `yaml:"auto"`
}

// pluralForms holds CLDR plural-category variants of one phrase. Each is a
// format string over the absolute value (%d).
type pluralForms struct {
	Zero  string `yaml:"zero"`
	One   string `yaml:"one"`
	Two   string `yaml:"two"`
	Few   string `yaml:"few"`
	Many  string `yaml:"many"`
	Other string `yaml:"other"`
}

func (p pluralForms) cases() []interface{} {
	var out []interface{}
	for _, c := range []struct{ sel, msg string }{
		{"zero", p.Zero}, {"one", p.One}, {"two", p.Two},
		{"few", p.Few}, {"many", p.Many}, {"other", p.Other},
	} {
		if c.msg != "" {
			out = append(out, c.sel, c.msg)
		}
	}
	return out
}

// Locale is one loaded catalog.
type Locale struct {
	ID       string
	Tag      language.Tag
	absolute absoluteFile
	// auto holds idiomatic phrases ("yesterday") by unit and signed value.
	// Nil when the locale has no relative phrasing.
	auto map[Unit]map[int]string
}

// HasRelative reports whether the locale carries relative phrasing.
func (l *Locale) HasRelative() bool { return l.auto != nil }

// Bundle holds every loaded locale and the x/text catalog built from them.
type Bundle struct {
	locales map[string]*Locale
	tags    []language.Tag
	ids     []string
	matcher language.Matcher
	builder *catalog.Builder
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

var defaultBundle = mustLoadEmbedded()

func mustLoadEmbedded() *Bundle {
	b, err := LoadFromFS(embeddedLocales)
	if err != nil {
		panic(err)
	}
	return b
}

// DefaultBundle returns the bundle built from the embedded locales.
func DefaultBundle() *Bundle { return defaultBundle }

// LoadFromFS loads locales/*.yaml from fsys. Each file name must match the
// locale it declares, and BaseLocale must be present.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	b := &Bundle{
		locales: map[string]*Locale{},
		builder: catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale))),
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, err
		}
	}
	base, ok := b.locales[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	// The base locale leads so the matcher falls back to it.
	b.tags = []language.Tag{base.Tag}
	b.ids = []string{base.ID}
	for _, id := range sortedKeys(b.locales) {
		if id == BaseLocale {
			continue
		}
		b.tags = append(b.tags, b.locales[id].Tag)
		b.ids = append(b.ids, id)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	id := strings.TrimSpace(file.Locale)
	fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if id == "" {
		return fmt.Errorf("locale %s: locale is required", p)
	}
	if id != fromPath {
		return fmt.Errorf("locale %s: locale %q must match file name %q", p, id, fromPath)
	}
	tag, err := language.Parse(id)
	if err != nil {
		return fmt.Errorf("locale %s: %w", p, err)
	}

	abs := file.Absolute
	switch {
	case abs.Layout == "" || abs.Clock == "":
		return fmt.Errorf("locale %s: absolute layout and clock are required", p)
	case len(abs.Weekdays) != 7:
		return fmt.Errorf("locale %s: want 7 weekdays, got %d", p, len(abs.Weekdays))
	case len(abs.Months) != 12:
		return fmt.Errorf("locale %s: want 12 months, got %d", p, len(abs.Months))
	}
	if err := b.builder.SetString(tag, keyAbsolute, abs.Layout); err != nil {
		return fmt.Errorf("locale %s: %w", p, err)
	}

	loc := &Locale{ID: id, Tag: tag, absolute: abs}
	if len(file.Relative) > 0 {
		loc.auto = make(map[Unit]map[int]string, len(Units))
		for _, u := range Units {
			ph, ok := file.Relative[u.String()]
			if !ok {
				return fmt.Errorf("locale %s: relative phrases for %s are missing", p, u)
			}
			if ph.Past.Other == "" || ph.Future.Other == "" {
				return fmt.Errorf("locale %s: %s needs past.other and future.other", p, u)
			}
			if err := b.builder.Set(tag, relativeKey(u, "past"), plural.Selectf(1, "%d", ph.Past.cases()...)); err != nil {
				return fmt.Errorf("locale %s: %w", p, err)
			}
			if err := b.builder.Set(tag, relativeKey(u, "future"), plural.Selectf(1, "%d", ph.Future.cases()...)); err != nil {
				return fmt.Errorf("locale %s: %w", p, err)
			}
			loc.auto[u] = ph.Auto
		}
		for name := range file.Relative {
			if _, err := ParseUnit(name); err != nil {
				return fmt.Errorf("locale %s: %w", p, err)
			}
		}
	}
	b.locales[id] = loc
	return nil
}

// Locales returns the loaded locale identifiers, base locale first.
func (b *Bundle) Locales() []string {
	return append([]string(nil), b.ids...)
}

// Match resolves a BCP 47 identifier to the closest loaded locale. An
// identifier with no match resolves to BaseLocale.
func (b *Bundle) Match(id string) (*Locale, error) {
	tag, err := language.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, id)
	}
	_, idx, conf := b.matcher.Match(tag)
	if conf == language.No {
		return b.locales[BaseLocale], nil
	}
	return b.locales[b.ids[idx]], nil
}

func (b *Bundle) printer(l *Locale) *message.Printer {
	return message.NewPrinter(l.Tag, message.Catalog(b.builder))
}

func sortedKeys(m map[string]*Locale) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
