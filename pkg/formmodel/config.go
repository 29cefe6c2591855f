package formmodel

import (
	"log/slog"
	"maps"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/logger"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

// DefaultSubmitIDParameter names the request parameter carrying the
// fully-qualified id of the widget that submitted the form.
const DefaultSubmitIDParameter = "forms_submit_id"

// MaxRepeaterRows is the largest row count a request may ask a repeater for.
const MaxRepeaterRows = 500

// Config is the processing configuration shared by every form created from
// one FormDefinition.
type Config struct {
	Logger            *slog.Logger
	Translator        validator.TranslateFunc
	Localizer         func(language.Tag) validator.TranslateFunc
	Variables         map[string]any
	SubmitIDParameter string
	Locale            language.Tag
}

// Option configures a FormDefinition.
type Option func(*Config)

// WithLogger sets the logger used while processing.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithTranslator translates validation messages.
func WithTranslator(fn validator.TranslateFunc) Option {
	return func(c *Config) {
		c.Translator = fn
	}
}

// WithLocalizer translates validation messages for the locale of the
// processing cycle. It takes precedence over WithTranslator.
func WithLocalizer(fn func(language.Tag) validator.TranslateFunc) Option {
	return func(c *Config) {
		c.Localizer = fn
	}
}

// WithVariables exposes values to expressions under their map keys.
func WithVariables(vars map[string]any) Option {
	return func(c *Config) {
		c.Variables = maps.Clone(vars)
	}
}

// WithSubmitIDParameter overrides the submit id parameter name.
// Defaults to "forms_submit_id".
func WithSubmitIDParameter(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.SubmitIDParameter = name
		}
	}
}

// WithLocale sets the locale used when a request does not carry one.
// Defaults to English.
func WithLocale(tag language.Tag) Option {
	return func(c *Config) {
		c.Locale = tag
	}
}

func newConfig(opts ...Option) Config {
	c := Config{
		Logger:            logger.NewNope(),
		SubmitIDParameter: DefaultSubmitIDParameter,
		Locale:            language.English,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
