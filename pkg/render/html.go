package render

import (
	"bufio"
	"html"
	"io"
)

// HTMLWriter serializes events as an HTML fragment. Widget kinds become
// custom elements; markup events are written verbatim and must be sanitized
// by the producer.
type HTMLWriter struct {
	w   *bufio.Writer
	err error
}

// NewHTMLWriter creates a writer emitting to w.
func NewHTMLWriter(w io.Writer) *HTMLWriter {
	return &HTMLWriter{w: bufio.NewWriter(w)}
}

func (h *HTMLWriter) Write(ev Event) error {
	if h.err != nil {
		return h.err
	}
	switch ev.Kind {
	case EventStart:
		h.str("<" + elementName(ev.Name))
		for _, a := range ev.Attrs {
			h.str(" " + attrName(a.Name) + `="` + html.EscapeString(a.Value) + `"`)
		}
		h.str(">")
	case EventEnd:
		h.str("</" + elementName(ev.Name) + ">")
	case EventText:
		h.str(html.EscapeString(ev.Text))
	case EventMarkup:
		h.str(ev.Text)
	}
	return h.err
}

// Flush writes any buffered output.
func (h *HTMLWriter) Flush() error {
	if h.err != nil {
		return h.err
	}
	return h.w.Flush()
}

func (h *HTMLWriter) str(s string) {
	if h.err == nil {
		_, h.err = h.w.WriteString(s)
	}
}

// elementName prefixes widget kinds so that they are valid custom element names.
func elementName(name string) string {
	return "ft-" + name
}

// attrName maps widget attributes onto data attributes, keeping id as is.
func attrName(name string) string {
	if name == "id" {
		return name
	}
	return "data-" + name
}
