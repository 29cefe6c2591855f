package formmodel

import (
	"net/url"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/upload"
)

// Request is the read side of one request cycle.
type Request interface {
	// Parameter returns the first value of name and whether it was submitted.
	Parameter(name string) (string, bool)

	// Parameters returns every value of name.
	Parameters(name string) []string

	// File returns the uploaded part submitted as name.
	File(name string) (upload.Part, bool)

	// Locale is the language used to convert and format values.
	Locale() language.Tag
}

// Params is an in-memory Request.
type Params struct {
	Values url.Values
	Files  map[string]upload.Part
	Tag    language.Tag
}

// NewParams builds a Request from alternating name and value arguments.
func NewParams(pairs ...string) *Params {
	p := &Params{Values: url.Values{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Values.Add(pairs[i], pairs[i+1])
	}
	return p
}

// Set replaces the values of name.
func (p *Params) Set(name string, values ...string) *Params {
	if p.Values == nil {
		p.Values = url.Values{}
	}
	p.Values[name] = values
	return p
}

// AddFile attaches an uploaded part.
func (p *Params) AddFile(name string, part upload.Part) *Params {
	if p.Files == nil {
		p.Files = make(map[string]upload.Part)
	}
	p.Files[name] = part
	return p
}

func (p *Params) Parameter(name string) (string, bool) {
	vs, ok := p.Values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (p *Params) Parameters(name string) []string {
	return p.Values[name]
}

func (p *Params) File(name string) (upload.Part, bool) {
	part, ok := p.Files[name]
	return part, ok
}

func (p *Params) Locale() language.Tag {
	return p.Tag
}
