package render

import (
	"encoding/xml"
	"io"
)

// Namespace is the XML namespace of widget output.
const Namespace = "urn:formtree:widgets"

// XMLWriter serializes events as XML.
type XMLWriter struct {
	enc   *xml.Encoder
	depth int
	ns    bool
}

// NewXMLWriter creates a writer emitting to w.
// The first element carries the widget namespace.
func NewXMLWriter(w io.Writer) *XMLWriter {
	return &XMLWriter{enc: xml.NewEncoder(w), ns: true}
}

func (x *XMLWriter) Write(ev Event) error {
	switch ev.Kind {
	case EventStart:
		start := xml.StartElement{Name: xml.Name{Local: ev.Name}}
		if x.depth == 0 && x.ns {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: Namespace})
		}
		for _, a := range ev.Attrs {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
		}
		x.depth++
		return x.enc.EncodeToken(start)
	case EventEnd:
		x.depth--
		return x.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: ev.Name}})
	case EventText, EventMarkup:
		return x.enc.EncodeToken(xml.CharData(ev.Text))
	}
	return nil
}

// Flush writes any buffered output.
func (x *XMLWriter) Flush() error {
	return x.enc.Flush()
}
