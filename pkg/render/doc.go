// Package render turns widget trees into a stream of structured output events.
//
// Widgets never write markup directly. They emit start-element, end-element,
// text and markup events to a [Sink]; a sink decides the concrete format.
// [XMLWriter] produces XML for downstream transformation, [HTMLWriter]
// produces an HTML fragment, and [Recorder] keeps the events in memory for
// inspection.
//
// [Component] adapts any [Generator] to a templ component so that a form can
// be placed inside a templ page:
//
//	templ Page(f *formmodel.Form) {
//	    <main>@render.Component(f)</main>
//	}
//
// Display data (labels, help, hints) is carried as [Fragment] values. A
// fragment is plain text, sanitized HTML, or markdown converted with goldmark.
package render
