package formbuilder

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formtree/pkg/render"
)

// Description is the decoded form of a form or library document.
type Description struct {
	// ID of the form. Form documents set "form"; it may be empty.
	ID string `yaml:"form"`
	// Library marks a library document and names it.
	Library   string            `yaml:"library"`
	Locale    string            `yaml:"locale"`
	SubmitID  string            `yaml:"submitParameter"`
	Variables map[string]any    `yaml:"variables"`
	Imports   map[string]string `yaml:"imports"`
	Classes   []Node            `yaml:"classes"`
	Children  []Node            `yaml:"children"`

	// Source names the document in error messages and definition locations.
	Source string `yaml:"-"`
}

// IsLibrary reports whether the document describes a class library.
func (d *Description) IsLibrary() bool { return d.Library != "" }

// Node describes one definition. Exactly one of the kind keys (field,
// struct, repeater, ...) carries the definition's id.
type Node struct {
	Field          string `yaml:"field"`
	Boolean        string `yaml:"boolean"`
	Output         string `yaml:"output"`
	Upload         string `yaml:"upload"`
	Action         string `yaml:"action"`
	Submit         string `yaml:"submit"`
	RepeaterAction string `yaml:"repeaterAction"`
	RowAction      string `yaml:"rowAction"`
	Struct         string `yaml:"struct"`
	Repeater       string `yaml:"repeater"`
	Union          string `yaml:"union"`
	New            string `yaml:"new"`
	Class          string `yaml:"class"`

	Type       string              `yaml:"type"`
	Required   bool                `yaml:"required"`
	State      string              `yaml:"state"`
	Label      *Fragment           `yaml:"label"`
	Help       *Fragment           `yaml:"help"`
	Hint       *Fragment           `yaml:"hint"`
	Display    map[string]Fragment `yaml:"display"`
	Attributes map[string]string   `yaml:"attributes"`
	Validate   []ValidatorSpec     `yaml:"validate"`
	Options    []OptionSpec        `yaml:"options"`

	TrueValue  string   `yaml:"trueValue"`
	Expression string   `yaml:"expression"`
	MaxSize    int64    `yaml:"maxSize"`
	MIMETypes  []string `yaml:"mimeTypes"`

	Command      string `yaml:"command"`
	ValidateForm *bool  `yaml:"validateForm"`
	Kind         string `yaml:"kind"`
	Target       string `yaml:"target"`
	Select       string `yaml:"select"`

	InitialSize int      `yaml:"initialSize"`
	Min         int      `yaml:"min"`
	Max         *int     `yaml:"max"`
	RowTypes    []string `yaml:"rowTypes"`
	Allow       []string `yaml:"allow"`

	CaseWidget     string `yaml:"caseWidget"`
	Default        string `yaml:"default"`
	CaseExpression string `yaml:"caseExpression"`

	Children []Node `yaml:"children"`

	Line int `yaml:"-"`
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	type plain Node
	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}
	n.Line = value.Line
	return nil
}

// kind returns the node's kind key and id. Nodes naming no kind or more
// than one are rejected.
func (n *Node) kind() (string, string, error) {
	kinds := []struct{ name, id string }{
		{"field", n.Field}, {"boolean", n.Boolean}, {"output", n.Output},
		{"upload", n.Upload}, {"action", n.Action}, {"submit", n.Submit},
		{"repeaterAction", n.RepeaterAction}, {"rowAction", n.RowAction},
		{"struct", n.Struct}, {"repeater", n.Repeater}, {"union", n.Union},
		{"new", n.New}, {"class", n.Class},
	}
	var name, id string
	for _, k := range kinds {
		if k.id == "" {
			continue
		}
		if name != "" {
			return "", "", fmt.Errorf("%w: both %q and %q given", ErrInvalidNode, name, k.name)
		}
		name, id = k.name, k.id
	}
	if name == "" {
		return "", "", fmt.Errorf("%w: no kind given", ErrInvalidNode)
	}
	return name, id, nil
}

// Fragment is a display fragment: a plain string, or a mapping with text
// and format ("text", "markdown" or "html").
type Fragment struct {
	Text   string `yaml:"text"`
	Format string `yaml:"format"`
}

func (f *Fragment) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Text = value.Value
		return nil
	}
	type plain Fragment
	return value.Decode((*plain)(f))
}

func (f *Fragment) fragment() *render.Fragment {
	if f == nil {
		return nil
	}
	return &render.Fragment{Text: f.Text, Format: render.ParseFormat(f.Format)}
}

// ValidatorSpec describes one validator. Exactly one rule is set.
type ValidatorSpec struct {
	Length     *Bounds    `yaml:"length"`
	Range      *RatBounds `yaml:"range"`
	Pattern    string     `yaml:"pattern"`
	Email      bool       `yaml:"email"`
	Expression string     `yaml:"expression"`
	Message    string     `yaml:"message"`
	Key        string     `yaml:"key"`
}

// Bounds is an inclusive length range; absent ends are open.
type Bounds struct {
	Min *int `yaml:"min"`
	Max *int `yaml:"max"`
}

// RatBounds is an inclusive numeric range given as decimal strings.
type RatBounds struct {
	Min string `yaml:"min"`
	Max string `yaml:"max"`
}

// OptionSpec is one entry of a selection list.
type OptionSpec struct {
	Value string    `yaml:"value"`
	Label *Fragment `yaml:"label"`
}
