package formbuilder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formtree/pkg/datatype"
	"github.com/dmitrymomot/formtree/pkg/expression"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/render"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

// LibraryResolver returns the library a form document imports by name.
type LibraryResolver func(name string) (*formmodel.Library, error)

// Builder turns form and library documents into definitions.
type Builder struct {
	libraries LibraryResolver
	formOpts  []formmodel.Option
}

// Option configures a Builder.
type Option func(*Builder)

// WithLibraryResolver sets how imported libraries are found.
func WithLibraryResolver(fn LibraryResolver) Option {
	return func(b *Builder) { b.libraries = fn }
}

// WithFormOptions adds options applied to every built form definition.
// Options set by the document itself take precedence.
func WithFormOptions(opts ...formmodel.Option) Option {
	return func(b *Builder) { b.formOpts = append(b.formOpts, opts...) }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Decode parses a YAML document, checks it against the document schema and
// decodes it strictly. Source names the document in errors.
func Decode(source string, data []byte) (*Description, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, source, err)
	}
	if generic == nil {
		return nil, fmt.Errorf("%w: %s: empty document", ErrInvalidDocument, source)
	}
	if err := validateSchema(source, generic); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var desc Description
	if err := dec.Decode(&desc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, source, err)
	}
	desc.Source = source
	return &desc, nil
}

// ParseForm decodes a form document and builds its resolved definition.
func (b *Builder) ParseForm(source string, data []byte) (*formmodel.FormDefinition, error) {
	desc, err := Decode(source, data)
	if err != nil {
		return nil, err
	}
	return b.BuildForm(desc)
}

// ParseLibrary decodes a library document and builds the library.
func (b *Builder) ParseLibrary(source string, data []byte) (*formmodel.Library, error) {
	desc, err := Decode(source, data)
	if err != nil {
		return nil, err
	}
	return b.BuildLibrary(desc)
}

// BuildForm builds and resolves the form a description declares.
func (b *Builder) BuildForm(desc *Description) (*formmodel.FormDefinition, error) {
	if desc.IsLibrary() {
		return nil, fmt.Errorf("%w: %s declares library %q", ErrNotAForm, desc.Source, desc.Library)
	}

	opts := append([]formmodel.Option(nil), b.formOpts...)
	if desc.Locale != "" {
		opts = append(opts, formmodel.WithLocale(datatype.ParseLocale(desc.Locale)))
	}
	if desc.SubmitID != "" {
		opts = append(opts, formmodel.WithSubmitIDParameter(desc.SubmitID))
	}
	if len(desc.Variables) > 0 {
		opts = append(opts, formmodel.WithVariables(desc.Variables))
	}
	def := formmodel.NewFormDefinition(desc.ID, opts...)
	if err := def.SetLocation(desc.Source); err != nil {
		return nil, err
	}

	for prefix, name := range desc.Imports {
		if b.libraries == nil {
			return nil, fmt.Errorf("%s: %w: %q", desc.Source, ErrUnknownLibrary, name)
		}
		lib, err := b.libraries(name)
		if err != nil {
			return nil, fmt.Errorf("%s: import %q: %w", desc.Source, name, err)
		}
		if err := def.Import(prefix, lib); err != nil {
			return nil, err
		}
	}

	for i := range desc.Classes {
		class, err := b.buildClass(desc.Source, &desc.Classes[i])
		if err != nil {
			return nil, err
		}
		if err := def.RegisterClass(class); err != nil {
			return nil, err
		}
	}
	if err := b.addChildren(desc.Source, def, desc.Children); err != nil {
		return nil, err
	}
	if err := def.Resolve(); err != nil {
		return nil, err
	}
	return def, nil
}

// BuildLibrary builds the class library a description declares and resolves
// it, so the returned library can be shared between form builds.
func (b *Builder) BuildLibrary(desc *Description) (*formmodel.Library, error) {
	if !desc.IsLibrary() {
		return nil, fmt.Errorf("%w: %s", ErrNotALibrary, desc.Source)
	}
	if len(desc.Children) > 0 || len(desc.Imports) > 0 {
		return nil, fmt.Errorf("%w: %s: libraries hold classes only", ErrInvalidDocument, desc.Source)
	}
	lib := formmodel.NewLibrary(desc.Library)
	for i := range desc.Classes {
		class, err := b.buildClass(desc.Source, &desc.Classes[i])
		if err != nil {
			return nil, err
		}
		if err := lib.AddClass(class); err != nil {
			return nil, err
		}
	}
	if err := lib.Resolve(); err != nil {
		return nil, err
	}
	return lib, nil
}

type container interface {
	AddChild(formmodel.Definition) error
}

// configurable is the setter surface shared by every definition.
type configurable interface {
	formmodel.Definition
	SetLocation(string) error
	SetState(formmodel.WidgetState) error
	SetAttribute(name, value string) error
	SetDisplayData(name string, f *render.Fragment) error
	AddValidator(formmodel.Validator) error
}

func (b *Builder) addChildren(source string, parent container, nodes []Node) error {
	for i := range nodes {
		child, err := b.buildNode(source, &nodes[i])
		if err != nil {
			return err
		}
		if err := parent.AddChild(child); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildClass(source string, n *Node) (*formmodel.ClassDefinition, error) {
	class := formmodel.NewClassDefinition(n.Class)
	if err := class.SetLocation(location(source, n)); err != nil {
		return nil, err
	}
	if err := b.addChildren(source, class, n.Children); err != nil {
		return nil, err
	}
	return class, nil
}

func (b *Builder) buildNode(source string, n *Node) (formmodel.Definition, error) {
	kind, id, err := n.kind()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location(source, n), err)
	}

	var def configurable
	switch kind {
	case "field":
		def, err = buildField(id, n)
	case "boolean":
		d := formmodel.NewBooleanFieldDefinition(id)
		if n.TrueValue != "" {
			err = d.SetTrueParamValue(n.TrueValue)
		}
		def = d
	case "output":
		def, err = buildOutput(id, n)
	case "upload":
		def, err = buildUpload(id, n)
	case "action":
		d := formmodel.NewActionDefinition(id)
		err = d.SetCommand(n.Command)
		def = d
	case "submit":
		validate := n.ValidateForm == nil || *n.ValidateForm
		d := formmodel.NewSubmitDefinition(id, validate)
		err = d.SetCommand(n.Command)
		def = d
	case "repeaterAction":
		def, err = buildRepeaterAction(id, n)
	case "rowAction":
		var k formmodel.RowActionKind
		if k, err = formmodel.ParseRowActionKind(n.Kind); err == nil {
			d := formmodel.NewRowActionDefinition(id, k)
			err = d.SetCommand(n.Command)
			def = d
		}
	case "struct":
		d := formmodel.NewStructDefinition(id)
		err = b.addChildren(source, d, n.Children)
		def = d
	case "repeater":
		def, err = b.buildRepeater(source, id, n)
	case "union":
		def, err = b.buildUnion(source, id, n)
	case "new":
		d := formmodel.NewClassReference(id)
		err = d.SetLocation(location(source, n))
		return d, wrapLocation(source, n, err)
	case "class":
		return nil, fmt.Errorf("%s: %w", location(source, n), formmodel.ErrMisplacedClass)
	}
	if err != nil {
		return nil, wrapLocation(source, n, err)
	}
	if err := configure(def, source, n); err != nil {
		return nil, wrapLocation(source, n, err)
	}
	return def, nil
}

// configure applies the settings every definition kind accepts.
func configure(def configurable, source string, n *Node) error {
	if err := def.SetLocation(location(source, n)); err != nil {
		return err
	}
	state, err := formmodel.ParseState(n.State)
	if err != nil {
		return err
	}
	if err := def.SetState(state); err != nil {
		return err
	}
	for name, value := range n.Attributes {
		if err := def.SetAttribute(name, value); err != nil {
			return err
		}
	}

	display := map[string]*Fragment{
		formmodel.DisplayLabel: n.Label,
		formmodel.DisplayHelp:  n.Help,
		formmodel.DisplayHint:  n.Hint,
	}
	for name, f := range n.Display {
		display[name] = &f
	}
	for _, name := range []string{formmodel.DisplayLabel, formmodel.DisplayHelp, formmodel.DisplayHint} {
		if f := display[name]; f != nil {
			if err := def.SetDisplayData(name, f.fragment()); err != nil {
				return err
			}
		}
		delete(display, name)
	}
	for name, f := range display {
		if err := def.SetDisplayData(name, f.fragment()); err != nil {
			return err
		}
	}

	for i := range n.Validate {
		v, err := buildValidator(&n.Validate[i])
		if err != nil {
			return err
		}
		if err := def.AddValidator(v); err != nil {
			return err
		}
	}
	return nil
}

func buildField(id string, n *Node) (configurable, error) {
	dt, err := lookupDatatype(n.Type)
	if err != nil {
		return nil, err
	}
	d := formmodel.NewFieldDefinition(id, dt)
	if err := d.SetRequired(n.Required); err != nil {
		return nil, err
	}
	if len(n.Options) > 0 {
		items := make([]formmodel.SelectionItem, 0, len(n.Options))
		for _, o := range n.Options {
			v, err := dt.Convert(o.Value, language.English)
			if err != nil {
				return nil, fmt.Errorf("option %q: %w", o.Value, err)
			}
			items = append(items, formmodel.SelectionItem{Value: v, Label: o.Label.fragment()})
		}
		if err := d.SetSelectionList(items); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildOutput(id string, n *Node) (configurable, error) {
	dt, err := lookupDatatype(n.Type)
	if err != nil {
		return nil, err
	}
	d := formmodel.NewOutputDefinition(id, dt)
	if n.Expression != "" {
		p, err := expression.Compile(n.Expression)
		if err != nil {
			return nil, err
		}
		if err := d.SetExpression(p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildUpload(id string, n *Node) (configurable, error) {
	d := formmodel.NewUploadDefinition(id)
	if err := d.SetRequired(n.Required); err != nil {
		return nil, err
	}
	if n.MaxSize > 0 {
		if err := d.SetMaxSize(n.MaxSize); err != nil {
			return nil, err
		}
	}
	if len(n.MIMETypes) > 0 {
		if err := d.SetMIMETypes(n.MIMETypes...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildRepeaterAction(id string, n *Node) (configurable, error) {
	k, err := formmodel.ParseRepeaterActionKind(n.Kind)
	if err != nil {
		return nil, err
	}
	if n.Target == "" {
		return nil, fmt.Errorf("%w: repeater action %q names no target", ErrInvalidNode, id)
	}
	d := formmodel.NewRepeaterActionDefinition(id, k, n.Target)
	if n.Select != "" {
		if err := d.SetSelectID(n.Select); err != nil {
			return nil, err
		}
	}
	if err := d.SetCommand(n.Command); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Builder) buildRepeater(source, id string, n *Node) (configurable, error) {
	d := formmodel.NewRepeaterDefinition(id)
	hi := formmodel.MaxRepeaterRows
	if n.Max != nil {
		hi = *n.Max
	}
	if err := d.SetSizeRange(n.Min, hi); err != nil {
		return nil, err
	}
	if err := d.SetInitialSize(n.InitialSize); err != nil {
		return nil, err
	}
	if len(n.RowTypes) > 0 {
		if err := d.SetRowTypes(n.RowTypes...); err != nil {
			return nil, err
		}
	}
	if len(n.Allow) > 0 {
		ops := make([]formmodel.RowOperation, 0, len(n.Allow))
		for _, name := range n.Allow {
			op, err := formmodel.ParseRowOperation(name)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		if err := d.SetAllowedOperations(ops...); err != nil {
			return nil, err
		}
	}
	if err := b.addChildren(source, d, n.Children); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Builder) buildUnion(source, id string, n *Node) (configurable, error) {
	if n.CaseWidget == "" && n.CaseExpression == "" {
		return nil, fmt.Errorf("%w: union %q needs caseWidget or caseExpression", ErrInvalidNode, id)
	}
	d := formmodel.NewUnionDefinition(id, n.CaseWidget)
	if n.CaseExpression != "" {
		p, err := expression.Compile(n.CaseExpression)
		if err != nil {
			return nil, err
		}
		if err := d.SetCaseExpression(p); err != nil {
			return nil, err
		}
	}
	if err := b.addChildren(source, d, n.Children); err != nil {
		return nil, err
	}
	if n.Default != "" {
		if err := d.SetDefaultCase(n.Default); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildValidator(v *ValidatorSpec) (formmodel.Validator, error) {
	switch {
	case v.Length != nil:
		lo, hi := 0, -1
		if v.Length.Min != nil {
			lo = *v.Length.Min
		}
		if v.Length.Max != nil {
			hi = *v.Length.Max
		}
		return formmodel.RuleValidator{Rule: validator.Length(lo, hi)}, nil
	case v.Range != nil:
		lo, err := parseRat(v.Range.Min)
		if err != nil {
			return nil, err
		}
		hi, err := parseRat(v.Range.Max)
		if err != nil {
			return nil, err
		}
		return formmodel.RuleValidator{Rule: validator.Range(lo, hi)}, nil
	case v.Pattern != "":
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern: %w", ErrInvalidNode, err)
		}
		return formmodel.RuleValidator{Rule: validator.Pattern(re)}, nil
	case v.Email:
		return formmodel.RuleValidator{Rule: validator.Email()}, nil
	case v.Expression != "":
		p, err := expression.Compile(v.Expression)
		if err != nil {
			return nil, err
		}
		return formmodel.ExpressionValidator{Program: p, Message: v.Message, TranslationKey: v.Key}, nil
	}
	return nil, fmt.Errorf("%w: validator names no rule", ErrInvalidNode)
}

func parseRat(s string) (*big.Rat, error) {
	if s == "" {
		return nil, nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: invalid number %q", ErrInvalidNode, s)
	}
	return r, nil
}

func lookupDatatype(name string) (datatype.Datatype, error) {
	if name == "" {
		return datatype.String(), nil
	}
	return datatype.Lookup(name)
}

func location(source string, n *Node) string {
	if n.Line == 0 {
		return source
	}
	return fmt.Sprintf("%s:%d", source, n.Line)
}

func wrapLocation(source string, n *Node, err error) error {
	if err == nil {
		return nil
	}
	var de *formmodel.DefinitionError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", location(source, n), err)
}
