package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"claude-nodes/internal/imaging"
	"claude-nodes/internal/provider"
	apperrors "claude-nodes/pkg/errors"
	"claude-nodes/pkg/logger"
)

// Models is the Claude model allow-list exposed on every node's model input.
var Models = []string{
	"claude-opus-4-1-20250805",
	"claude-sonnet-4-20250514",
	"claude-3-5-haiku-20241022",
}

// InputKind identifies how an input is typed and rendered by the host.
type InputKind string

const (
	KindString  InputKind = "string"
	KindInt     InputKind = "int"
	KindFloat   InputKind = "float"
	KindBoolean InputKind = "boolean"
	KindChoice  InputKind = "choice"
	KindImage   InputKind = "image"
)

// InputSpec describes one named input of a node.
type InputSpec struct {
	Name      string      `json:"name"`
	Kind      InputKind   `json:"kind"`
	Required  bool        `json:"required"`
	Multiline bool        `json:"multiline,omitempty"`
	Default   interface{} `json:"default,omitempty"`
	Choices   []string    `json:"choices,omitempty"`
	Min       float64     `json:"min,omitempty"`
	Max       float64     `json:"max,omitempty"`
}

// Spec is the host-facing contract of a node: its name, category and the
// named inputs and outputs the host wires up.
type Spec struct {
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Inputs   []InputSpec `json:"inputs"`
	Outputs  []string    `json:"outputs"`
}

// Inputs holds the values supplied for one invocation, keyed by input name.
type Inputs map[string]interface{}

// Outputs holds the produced values, keyed by output name.
type Outputs map[string]string

// Node is a unit of work invoked by the host.
type Node interface {
	Spec() Spec
	Execute(ctx context.Context, in Inputs) (Outputs, error)
}

// Defaults carries config-level fallbacks applied to every node.
type Defaults struct {
	Model     string
	MaxTokens int
}

// defaultModel picks the configured model when it is on the allow-list,
// otherwise the first allowed model.
func (d Defaults) defaultModel() string {
	for _, m := range Models {
		if m == d.Model {
			return m
		}
	}
	return Models[0]
}

// args resolves invocation values against a node's input specs, applying
// defaults and remembering the first error.
type args struct {
	spec Spec
	in   Inputs
	err  error
}

func newArgs(spec Spec, in Inputs) *args {
	return &args{spec: spec, in: in}
}

func (a *args) Err() error {
	return a.err
}

func (a *args) fail(name, reason string) {
	if a.err == nil {
		a.err = apperrors.NewNodeInvalidInput(name, reason)
	}
}

func (a *args) lookup(name string) (InputSpec, interface{}, bool) {
	for _, is := range a.spec.Inputs {
		if is.Name == name {
			v, ok := a.in[name]
			return is, v, ok
		}
	}
	a.fail(name, "not declared by node")
	return InputSpec{}, nil, false
}

// String resolves a string or choice input.
func (a *args) String(name string) string {
	is, v, ok := a.lookup(name)
	if !ok || v == nil {
		if is.Required {
			a.fail(name, "required input missing")
			return ""
		}
		if s, ok := is.Default.(string); ok {
			return s
		}
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.fail(name, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
	if len(is.Choices) > 0 {
		for _, c := range is.Choices {
			if c == s {
				return s
			}
		}
		a.fail(name, fmt.Sprintf("value %q not in choices %v", s, is.Choices))
		return ""
	}
	return s
}

// Float resolves a float input, range-checked when min/max are set.
func (a *args) Float(name string) float64 {
	is, v, ok := a.lookup(name)
	if !ok || v == nil {
		if is.Required {
			a.fail(name, "required input missing")
			return 0
		}
		if f, ok := is.Default.(float64); ok {
			return f
		}
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		a.fail(name, fmt.Sprintf("expected number, got %T", v))
		return 0
	}
	if is.Min != is.Max && (f < is.Min || f > is.Max) {
		a.fail(name, fmt.Sprintf("value %v out of range [%v, %v]", f, is.Min, is.Max))
		return 0
	}
	return f
}

// Int resolves an integer input, range-checked when min/max are set.
func (a *args) Int(name string) int {
	is, v, ok := a.lookup(name)
	if !ok || v == nil {
		if is.Required {
			a.fail(name, "required input missing")
			return 0
		}
		if i, ok := is.Default.(int); ok {
			return i
		}
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		a.fail(name, fmt.Sprintf("expected integer, got %T", v))
		return 0
	}
	i := int(f)
	if is.Min != is.Max && (float64(i) < is.Min || float64(i) > is.Max) {
		a.fail(name, fmt.Sprintf("value %d out of range [%v, %v]", i, is.Min, is.Max))
		return 0
	}
	return i
}

// Bool resolves a boolean input.
func (a *args) Bool(name string) bool {
	is, v, ok := a.lookup(name)
	if !ok || v == nil {
		if b, ok := is.Default.(bool); ok {
			return b
		}
		return false
	}
	b, ok := v.(bool)
	if !ok {
		a.fail(name, fmt.Sprintf("expected boolean, got %T", v))
		return false
	}
	return b
}

// Image resolves an image tensor input. The second return is false when an
// optional image was not supplied.
func (a *args) Image(name string) (imaging.Tensor, bool) {
	is, v, ok := a.lookup(name)
	if !ok || v == nil {
		if is.Required {
			a.fail(name, "required input missing")
		}
		return imaging.Tensor{}, false
	}
	switch t := v.(type) {
	case imaging.Tensor:
		return t, true
	case map[string]interface{}:
		tensor, err := tensorFromJSON(t)
		if err != nil {
			a.fail(name, err.Error())
			return imaging.Tensor{}, false
		}
		return tensor, true
	default:
		a.fail(name, fmt.Sprintf("expected image tensor, got %T", v))
		return imaging.Tensor{}, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func tensorFromJSON(m map[string]interface{}) (imaging.Tensor, error) {
	rawShape, ok := m["shape"].([]interface{})
	if !ok {
		return imaging.Tensor{}, fmt.Errorf("image tensor missing shape array")
	}
	rawData, ok := m["data"].([]interface{})
	if !ok {
		return imaging.Tensor{}, fmt.Errorf("image tensor missing data array")
	}
	shape := make([]int, 0, len(rawShape))
	for _, v := range rawShape {
		f, ok := toFloat(v)
		if !ok {
			return imaging.Tensor{}, fmt.Errorf("non-numeric shape entry %v", v)
		}
		shape = append(shape, int(f))
	}
	data := make([]float32, 0, len(rawData))
	for _, v := range rawData {
		f, ok := toFloat(v)
		if !ok {
			return imaging.Tensor{}, fmt.Errorf("non-numeric data entry %v", v)
		}
		data = append(data, float32(f))
	}
	tensor := imaging.Tensor{Shape: shape, Data: data}
	if err := tensor.Validate(); err != nil {
		return imaging.Tensor{}, err
	}
	return tensor, nil
}

// Registry maps node names to nodes, the way the host's class mappings do.
type Registry struct {
	nodes  map[string]Node
	order  []string
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:  make(map[string]Node),
		logger: logger.Get(),
	}
}

// Register adds a node under its spec name.
func (r *Registry) Register(n Node) {
	name := n.Spec().Name
	if _, exists := r.nodes[name]; !exists {
		r.order = append(r.order, name)
	}
	r.nodes[name] = n
}

// Get returns the node registered under name.
func (r *Registry) Get(name string) (Node, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, apperrors.NewNodeNotFound(name)
	}
	return n, nil
}

// Specs returns all registered node specs in registration order.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.nodes[name].Spec())
	}
	return specs
}

// Run executes a node and converts any failure into the host's display
// convention: every declared output carries the "ERROR: "-prefixed message.
func (r *Registry) Run(ctx context.Context, name string, in Inputs) (Outputs, error) {
	n, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	out, err := n.Execute(ctx, in)
	if err != nil {
		r.logger.Error("Node execution failed",
			zap.String("node", name),
			zap.Error(err),
		)
		failed := make(Outputs, len(n.Spec().Outputs))
		for _, o := range n.Spec().Outputs {
			failed[o] = "ERROR: " + err.Error()
		}
		return failed, nil
	}
	return out, nil
}

// DefaultRegistry registers the full node pack against one provider.
func DefaultRegistry(p provider.Provider, d Defaults) *Registry {
	r := NewRegistry()
	r.Register(NewDescribeImage(p, d))
	r.Register(NewCombineTexts(p, d))
	r.Register(NewTransformText(p, d))
	r.Register(NewPromptEngineer(d))
	r.Register(NewContextAwareDescribe(p, d))
	r.Register(NewIterativeRefine(p, d))
	r.Register(NewPromptChain(p, d))
	r.Register(NewQwenPromptGenerator(p, d))
	r.Register(NewQwenFromImage(p, d))
	return r
}
