package render

import (
	"context"
	"strings"
)

// EventKind identifies the shape of an output event.
type EventKind int

const (
	EventStart EventKind = iota
	EventEnd
	EventText
	EventMarkup
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventText:
		return "text"
	case EventMarkup:
		return "markup"
	default:
		return "unknown"
	}
}

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Event is one unit of structured output.
type Event struct {
	Kind  EventKind
	Name  string // element name for start and end events
	Attrs []Attr // start events only
	Text  string // text and markup events
}

// Sink consumes output events.
type Sink interface {
	Write(ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) error

func (f SinkFunc) Write(ev Event) error { return f(ev) }

// Generator writes itself to a sink.
type Generator interface {
	Generate(ctx context.Context, sink Sink) error
}

// Start emits a start-element event.
func Start(sink Sink, name string, attrs ...Attr) error {
	return sink.Write(Event{Kind: EventStart, Name: name, Attrs: attrs})
}

// End emits an end-element event.
func End(sink Sink, name string) error {
	return sink.Write(Event{Kind: EventEnd, Name: name})
}

// Text emits character data.
func Text(sink Sink, text string) error {
	return sink.Write(Event{Kind: EventText, Text: text})
}

// Markup emits pre-sanitized HTML.
func Markup(sink Sink, html string) error {
	return sink.Write(Event{Kind: EventMarkup, Text: html})
}

// Element emits a start event, runs body, and emits the matching end event.
// A nil body produces an empty element.
func Element(sink Sink, name string, attrs []Attr, body func() error) error {
	if err := Start(sink, name, attrs...); err != nil {
		return err
	}
	if body != nil {
		if err := body(); err != nil {
			return err
		}
	}
	return End(sink, name)
}

// TextElement emits <name>text</name>.
func TextElement(sink Sink, name, text string, attrs ...Attr) error {
	return Element(sink, name, attrs, func() error {
		return Text(sink, text)
	})
}

// Recorder is a Sink keeping every event in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Write(ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

// Elements returns the names of recorded start events in order.
func (r *Recorder) Elements() []string {
	var names []string
	for _, ev := range r.Events {
		if ev.Kind == EventStart {
			names = append(names, ev.Name)
		}
	}
	return names
}

// Find returns the attributes of the first start event named name with
// attribute id equal to id.
func (r *Recorder) Find(name, id string) ([]Attr, bool) {
	for _, ev := range r.Events {
		if ev.Kind != EventStart || ev.Name != name {
			continue
		}
		if v, _ := AttrValue(ev.Attrs, "id"); v == id {
			return ev.Attrs, true
		}
	}
	return nil, false
}

// String renders the recorded events in a compact bracket notation,
// e.g. "<field id=a><value>x</value></field>".
func (r *Recorder) String() string {
	var b strings.Builder
	for _, ev := range r.Events {
		switch ev.Kind {
		case EventStart:
			b.WriteString("<" + ev.Name)
			for _, a := range ev.Attrs {
				b.WriteString(" " + a.Name + "=" + a.Value)
			}
			b.WriteString(">")
		case EventEnd:
			b.WriteString("</" + ev.Name + ">")
		case EventText, EventMarkup:
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

// AttrValue looks up an attribute by name.
func AttrValue(attrs []Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
