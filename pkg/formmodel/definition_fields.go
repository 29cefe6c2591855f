package formmodel

import (
	"slices"

	"github.com/dmitrymomot/formtree/pkg/datatype"
	"github.com/dmitrymomot/formtree/pkg/expression"
	"github.com/dmitrymomot/formtree/pkg/render"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

// SelectionItem is one option offered by a field.
type SelectionItem struct {
	Value any
	Label *render.Fragment
}

// FieldDefinition describes a single-valued input converted by a datatype.
type FieldDefinition struct {
	baseDefinition
	datatype  datatype.Datatype
	selection []SelectionItem
	listeners listenerList[*ValueChangedEvent]
	required  bool
}

// NewFieldDefinition creates a field definition. A nil datatype means string.
func NewFieldDefinition(id string, dt datatype.Datatype) *FieldDefinition {
	if dt == nil {
		dt = datatype.String()
	}
	return &FieldDefinition{baseDefinition: newBase(id), datatype: dt}
}

func (d *FieldDefinition) Datatype() datatype.Datatype { return d.datatype }
func (d *FieldDefinition) Required() bool              { return d.required }

func (d *FieldDefinition) SetRequired(required bool) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.required = required
	return nil
}

// SelectionList returns the configured options.
func (d *FieldDefinition) SelectionList() []SelectionItem {
	return slices.Clone(d.selection)
}

// SetSelectionList restricts the field to the given options.
func (d *FieldDefinition) SetSelectionList(items []SelectionItem) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.selection = slices.Clone(items)
	return nil
}

// AddValueChangedListener registers fn for every widget created from the definition.
func (d *FieldDefinition) AddValueChangedListener(fn func(*ValueChangedEvent)) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.listeners.add(fn)
	return nil
}

func (d *FieldDefinition) CreateInstance() Widget {
	f := &Field{def: d}
	f.init(f, d)
	return f
}

// BooleanFieldDefinition describes a checkbox-like input.
type BooleanFieldDefinition struct {
	baseDefinition
	trueParamValue string
	listeners      listenerList[*ValueChangedEvent]
}

// NewBooleanFieldDefinition creates a boolean field definition whose
// request parameter value "true" means checked.
func NewBooleanFieldDefinition(id string) *BooleanFieldDefinition {
	return &BooleanFieldDefinition{baseDefinition: newBase(id), trueParamValue: "true"}
}

func (d *BooleanFieldDefinition) TrueParamValue() string { return d.trueParamValue }

func (d *BooleanFieldDefinition) SetTrueParamValue(v string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.trueParamValue = v
	return nil
}

func (d *BooleanFieldDefinition) AddValueChangedListener(fn func(*ValueChangedEvent)) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.listeners.add(fn)
	return nil
}

func (d *BooleanFieldDefinition) CreateInstance() Widget {
	b := &BooleanField{def: d}
	b.init(b, d)
	return b
}

// OutputDefinition describes a read-only value, optionally computed by an
// expression over sibling values.
type OutputDefinition struct {
	baseDefinition
	datatype   datatype.Datatype
	expression *expression.Program
}

// NewOutputDefinition creates an output definition. A nil datatype means string.
func NewOutputDefinition(id string, dt datatype.Datatype) *OutputDefinition {
	if dt == nil {
		dt = datatype.String()
	}
	return &OutputDefinition{baseDefinition: newBase(id), datatype: dt}
}

func (d *OutputDefinition) Datatype() datatype.Datatype     { return d.datatype }
func (d *OutputDefinition) Expression() *expression.Program { return d.expression }

// SetExpression makes the output computed.
func (d *OutputDefinition) SetExpression(p *expression.Program) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.expression = p
	return nil
}

func (d *OutputDefinition) CreateInstance() Widget {
	o := &Output{def: d}
	o.init(o, d)
	return o
}

// UploadDefinition describes a file input.
type UploadDefinition struct {
	baseDefinition
	mimeTypes []string
	maxSize   int64
	required  bool
}

func NewUploadDefinition(id string) *UploadDefinition {
	return &UploadDefinition{baseDefinition: newBase(id)}
}

func (d *UploadDefinition) Required() bool      { return d.required }
func (d *UploadDefinition) MaxSize() int64      { return d.maxSize }
func (d *UploadDefinition) MIMETypes() []string { return slices.Clone(d.mimeTypes) }

func (d *UploadDefinition) SetRequired(required bool) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.required = required
	return nil
}

// SetMaxSize limits accepted parts to n bytes. Zero means unlimited.
func (d *UploadDefinition) SetMaxSize(n int64) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.maxSize = n
	return nil
}

// SetMIMETypes restricts accepted content types; "image/*" style wildcards are allowed.
func (d *UploadDefinition) SetMIMETypes(types ...string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.mimeTypes = slices.Clone(types)
	return nil
}

func (d *UploadDefinition) rules() []upload.Rule {
	var rules []upload.Rule
	if d.maxSize > 0 {
		rules = append(rules, upload.MaxSize(d.maxSize))
	}
	if len(d.mimeTypes) > 0 {
		rules = append(rules, upload.AllowedTypes(d.mimeTypes...))
	}
	return rules
}

func (d *UploadDefinition) CreateInstance() Widget {
	u := &Upload{def: d}
	u.init(u, d)
	return u
}
