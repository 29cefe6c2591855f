package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"

	"github.com/dmitrymomot/formtree/pkg/sanitizer"
)

// Format is the source format of a display fragment.
type Format int

const (
	FormatText Format = iota
	FormatHTML
	FormatMarkdown
)

// ParseFormat maps a format name to a Format. Unknown names yield FormatText.
func ParseFormat(name string) Format {
	switch name {
	case "html":
		return FormatHTML
	case "markdown", "md":
		return FormatMarkdown
	default:
		return FormatText
	}
}

var markdown = goldmark.New()

// Fragment is a piece of renderable display data such as a label or a hint.
type Fragment struct {
	Text   string
	Format Format
}

// TextFragment returns a plain text fragment.
func TextFragment(s string) *Fragment {
	return &Fragment{Text: s}
}

// MarkdownFragment returns a markdown fragment.
func MarkdownFragment(s string) *Fragment {
	return &Fragment{Text: s, Format: FormatMarkdown}
}

// HTMLFragment returns an HTML fragment. The HTML is sanitized on output.
func HTMLFragment(s string) *Fragment {
	return &Fragment{Text: s, Format: FormatHTML}
}

// Generate writes the fragment content. A nil fragment writes nothing.
func (f *Fragment) Generate(sink Sink) error {
	if f == nil || f.Text == "" {
		return nil
	}
	switch f.Format {
	case FormatHTML:
		return Markup(sink, sanitizer.SanitizeFragment(f.Text))
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(f.Text), &buf); err != nil {
			return fmt.Errorf("render: convert markdown: %w", err)
		}
		return Markup(sink, sanitizer.SanitizeFragment(buf.String()))
	default:
		return Text(sink, f.Text)
	}
}

// PlainText returns the fragment as text with all markup removed.
func (f *Fragment) PlainText() string {
	if f == nil {
		return ""
	}
	if f.Format == FormatText {
		return f.Text
	}
	return sanitizer.StripHTML(f.Text)
}
