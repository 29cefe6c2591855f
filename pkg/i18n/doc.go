// Package i18n holds the message catalog used to localize validation
// messages.
//
// Messages are keyed by translation key ("validation.required") and
// language. Values may reference the error's translation values with
// {{name}} placeholders:
//
//	validation:
//	  min_length: "must be at least {{min}} characters long"
//
// Lookups fall back from the requested language to its base language and
// then to the catalog's default language; a key missing everywhere
// yields "".
//
// A catalog plugs into form definitions as a localizer:
//
//	cat, _ := i18n.New(i18n.WithBuiltinMessages(), i18n.WithYAMLDir(os.DirFS("messages")))
//	def := formmodel.NewFormDefinition("signup", formmodel.WithLocalizer(cat.Translator))
package i18n
