package datatype

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type separators struct {
	decimal string
	group   string
}

var separatorCache sync.Map // language.Tag -> separators

// separatorsFor derives the decimal and grouping separators of tag by
// formatting a probe number with a locale-aware printer.
func separatorsFor(tag language.Tag) separators {
	if v, ok := separatorCache.Load(tag); ok {
		return v.(separators)
	}

	sep := separators{decimal: ".", group: ","}
	probe := message.NewPrinter(tag).Sprintf("%.1f", 1234.5)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, probe)
	runes := []rune(digits)
	switch len(runes) {
	case 1:
		sep = separators{decimal: string(runes[0]), group: ""}
	case 2:
		sep = separators{group: string(runes[0]), decimal: string(runes[1])}
	}
	if sep.group == "" {
		// Keep a separator the parser will never see in the decimal position.
		sep.group = "\x00"
	}

	separatorCache.Store(tag, sep)
	return sep
}

// ParseLocale parses a BCP 47 tag, falling back to English.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}
