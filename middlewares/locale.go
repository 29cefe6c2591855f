package middlewares

import (
	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/internal"
	"github.com/dmitrymomot/formtree/pkg/i18n"
)

// LocaleConfig configures the Locale middleware.
type LocaleConfig struct {
	Extractor    internal.Extractor
	extractorSet bool
}

// LocaleOption configures LocaleConfig.
type LocaleOption func(*LocaleConfig)

// WithLocaleExtractor replaces the default chain: query "lang", cookie
// "lang", then Accept-Language.
func WithLocaleExtractor(ext internal.Extractor) LocaleOption {
	return func(cfg *LocaleConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// FromAcceptLanguage reads the Accept-Language header.
func FromAcceptLanguage() internal.ExtractorSource {
	return internal.FromHeader("Accept-Language")
}

// Locale picks the request language from the languages of cat and stores
// it under internal.LanguageKey, where forms read it as their locale.
// Extracted values may be single tags or full Accept-Language lists;
// anything unsupported resolves to the catalog's default language.
func Locale(cat *i18n.Catalog, opts ...LocaleOption) internal.Middleware {
	cfg := &LocaleConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.extractorSet {
		cfg.Extractor = internal.NewExtractor(
			internal.FromQuery("lang"),
			internal.FromCookie("lang"),
			FromAcceptLanguage(),
		)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			tag := cat.DefaultLanguage()
			if v, ok := cfg.Extractor.Extract(c); ok {
				tag = cat.Match(v)
			}
			c.Set(internal.LanguageKey{}, tag)
			c.SetHeader("Content-Language", tag.String())
			return next(c)
		}
	}
}

// GetLanguage returns the request language, or language.Und without the
// middleware.
func GetLanguage(c internal.Context) language.Tag {
	return c.Language()
}
