package i18n

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/validator"
)

// Catalog maps (language, key) pairs to message templates. It is
// immutable after New and safe for concurrent use.
type Catalog struct {
	messages    map[string]map[string]string
	missing     func(tag language.Tag, key string)
	matcher     language.Matcher
	tags        []language.Tag
	defaultLang language.Tag
}

// Option configures a Catalog under construction.
type Option func(*Catalog) error

// New creates a catalog.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		messages:    make(map[string]map[string]string),
		defaultLang: language.English,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.tags = []language.Tag{c.defaultLang}
	for _, lang := range slices.Sorted(maps.Keys(c.messages)) {
		tag := language.Make(lang)
		if tag != c.defaultLang {
			c.tags = append(c.tags, tag)
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// WithDefaultLanguage sets the fallback language. Default: English.
func WithDefaultLanguage(lang string) Option {
	return func(c *Catalog) error {
		tag, err := language.Parse(lang)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidLanguage, lang, err)
		}
		c.defaultLang = tag
		return nil
	}
}

// WithMessages adds messages for lang. Nested maps are flattened into
// dotted keys.
func WithMessages(lang string, messages map[string]any) Option {
	return func(c *Catalog) error {
		return c.add(lang, messages)
	}
}

// WithMissingKeyHandler registers fn for keys missing in every fallback
// language.
func WithMissingKeyHandler(fn func(tag language.Tag, key string)) Option {
	return func(c *Catalog) error {
		c.missing = fn
		return nil
	}
}

func (c *Catalog) add(lang string, messages map[string]any) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidLanguage, lang, err)
	}
	name := tag.String()
	if c.messages[name] == nil {
		c.messages[name] = make(map[string]string)
	}
	flatten(messages, "", c.messages[name])
	return nil
}

// Languages returns the catalog's languages, default first.
func (c *Catalog) Languages() []language.Tag { return slices.Clone(c.tags) }

// DefaultLanguage returns the fallback language.
func (c *Catalog) DefaultLanguage() language.Tag { return c.defaultLang }

// Match picks the best catalog language for an Accept-Language header.
// An empty or unparsable header yields the default language.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return c.defaultLang
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return c.defaultLang
	}
	_, idx, conf := c.matcher.Match(desired...)
	if conf == language.No {
		return c.defaultLang
	}
	return c.tags[idx]
}

// T returns the message for key in tag with placeholders replaced, or ""
// when no language defines key.
func (c *Catalog) T(tag language.Tag, key string, values map[string]any) string {
	for _, lang := range c.fallbacks(tag) {
		if tpl, ok := c.messages[lang][key]; ok {
			return ReplacePlaceholders(tpl, values)
		}
	}
	if c.missing != nil {
		c.missing(tag, key)
	}
	return ""
}

// Translator returns a validator.TranslateFunc for tag. Keys the catalog
// does not know keep their original message, so the result is only used
// as a message when it is not empty.
func (c *Catalog) Translator(tag language.Tag) validator.TranslateFunc {
	return func(key string, values map[string]any) string {
		return c.T(tag, key, values)
	}
}

func (c *Catalog) fallbacks(tag language.Tag) []string {
	out := []string{tag.String()}
	if base, conf := tag.Base(); conf != language.No {
		if b := base.String(); b != out[0] {
			out = append(out, b)
		}
	}
	if d := c.defaultLang.String(); !slices.Contains(out, d) {
		out = append(out, d)
	}
	return out
}

func flatten(data map[string]any, prefix string, out map[string]string) {
	for key, value := range data {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[full] = v
		case map[string]any:
			flatten(v, full, out)
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// ReplacePlaceholders replaces {{name}} with the formatted value of
// values[name]. Unknown placeholders are left as they are.
func ReplacePlaceholders(template string, values map[string]any) string {
	if len(values) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
