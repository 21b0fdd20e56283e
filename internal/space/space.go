// Package space models the ordered set of tunable parameters of a black-box
// program: their kinds, bounds, steps and initial values.
package space

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/autotune-core/pkg/config"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/utils"
)

const (
	defaultIntegerStep    = 1.0
	defaultContinuousStep = 0.1
)

// Spec is one parameter of the space.
type Spec struct {
	Name    string
	Kind    Kind
	Min     float64
	Max     float64
	Options []string
	Initial Value
	// RefineStep is the initial local-search step.
	RefineStep float64
	// ExploreStep is the grid spacing used by global samplers.
	ExploreStep float64
}

// Space is an ordered, immutable list of parameter specs. Spec order is the
// positional argument order of the black box.
type Space struct {
	specs []Spec
	index map[string]int
}

// New builds a space from a parsed description. Every malformed entry is
// reported as a *config.ConfigError.
func New(desc *config.Description) (*Space, error) {
	if desc == nil || len(desc.Parameters) == 0 {
		return nil, config.Errorf("parameters", "at least one parameter must be defined")
	}

	sp := &Space{
		specs: make([]Spec, 0, len(desc.Parameters)),
		index: make(map[string]int, len(desc.Parameters)),
	}
	for i, p := range desc.Parameters {
		spec, err := buildSpec(fmt.Sprintf("parameters[%d]", i), p)
		if err != nil {
			return nil, err
		}
		if _, dup := sp.index[spec.Name]; dup {
			return nil, config.Errorf(fmt.Sprintf("parameters[%d].name", i), "duplicate parameter name: %s", spec.Name)
		}
		sp.index[spec.Name] = len(sp.specs)
		sp.specs = append(sp.specs, spec)
	}
	return sp, nil
}

// NewFromSpecs builds a space directly from specs, applying the same
// validation as New.
func NewFromSpecs(specs ...Spec) (*Space, error) {
	sp := &Space{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	if len(specs) == 0 {
		return nil, config.Errorf("parameters", "at least one parameter must be defined")
	}
	for i, s := range specs {
		field := fmt.Sprintf("parameters[%d]", i)
		s.Options = append([]string(nil), s.Options...)
		applyDefaultSteps(&s)
		if err := s.check(field); err != nil {
			return nil, err
		}
		if _, dup := sp.index[s.Name]; dup {
			return nil, config.Errorf(field+".name", "duplicate parameter name: %s", s.Name)
		}
		sp.index[s.Name] = len(sp.specs)
		sp.specs = append(sp.specs, s)
	}
	return sp, nil
}

// Len returns the number of parameters.
func (s *Space) Len() int { return len(s.specs) }

// Specs returns a copy of the specs in argument order.
func (s *Space) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Spec returns the spec at position i.
func (s *Space) Spec(i int) Spec { return s.specs[i] }

// Lookup returns the spec with the given name.
func (s *Space) Lookup(name string) (Spec, bool) {
	i, ok := s.index[name]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// DefaultAssignment returns the assignment made of every initial value.
func (s *Space) DefaultAssignment() Assignment {
	a := make(Assignment, len(s.specs))
	for _, spec := range s.specs {
		a[spec.Name] = spec.Initial
	}
	return a
}

// Args flattens an assignment into positional arguments in parameter order.
func (s *Space) Args(a Assignment) ([]string, error) {
	args := make([]string, 0, len(s.specs))
	for _, spec := range s.specs {
		v, ok := a[spec.Name]
		if !ok {
			return nil, fmt.Errorf("missing value for parameter %s", spec.Name)
		}
		args = append(args, v.String())
	}
	return args, nil
}

// Map renders an assignment as name -> plain value, for reports.
func (s *Space) Map(a Assignment) map[string]any {
	out := make(map[string]any, len(a))
	for _, spec := range s.specs {
		if v, ok := a[spec.Name]; ok {
			out[spec.Name] = v.Interface()
		}
	}
	return out
}

// Validate reports whether v is a legal value for the spec.
func (sp Spec) Validate(v Value) error {
	if v.Kind != sp.Kind {
		return fmt.Errorf("parameter %s expects a %s value, got %s", sp.Name, sp.Kind, v.Kind)
	}
	switch sp.Kind {
	case Categorical:
		if sp.OptionIndex(v.Label) < 0 {
			return fmt.Errorf("parameter %s: %q is not one of %v", sp.Name, v.Label, sp.Options)
		}
	case Integer:
		if v.Num != math.Trunc(v.Num) {
			return fmt.Errorf("parameter %s: %v is not an integer", sp.Name, v.Num)
		}
		fallthrough
	default:
		if math.IsNaN(v.Num) || v.Num < sp.Min || v.Num > sp.Max {
			return fmt.Errorf("parameter %s: %v outside [%v, %v]", sp.Name, v.Num, sp.Min, sp.Max)
		}
	}
	return nil
}

// Clamp bounds x to [Min, Max]. Integer specs round to the nearest integer
// first, halves away from zero.
func (sp Spec) Clamp(x float64) float64 {
	if sp.Kind == Integer {
		x = math.Round(x)
	}
	return utils.ClampFloat64(x, sp.Min, sp.Max)
}

// Value wraps a numeric x, clamped, as a value of the spec's kind.
func (sp Spec) Value(x float64) Value {
	return Value{Kind: sp.Kind, Num: sp.Clamp(x)}
}

// OptionIndex returns the position of label in Options, or -1.
func (sp Spec) OptionIndex(label string) int {
	for i, o := range sp.Options {
		if o == label {
			return i
		}
	}
	return -1
}

// GridSize is the number of explore-grid points of the spec.
func (sp Spec) GridSize() int {
	if sp.Kind == Categorical {
		return len(sp.Options)
	}
	return utils.GridPoints(sp.Min, sp.Max, sp.ExploreStep)
}

// GridValue returns grid point k: Min + k*ExploreStep rounded to the step's
// precision, or option k for categorical specs.
func (sp Spec) GridValue(k int) Value {
	if sp.Kind == Categorical {
		return LabelValue(sp.Options[k])
	}
	return sp.Value(utils.GridValue(sp.Min, sp.ExploreStep, k))
}

// GridIndex returns the grid point nearest to v.
func (sp Spec) GridIndex(v Value) int {
	if sp.Kind == Categorical {
		if i := sp.OptionIndex(v.Label); i >= 0 {
			return i
		}
		return 0
	}
	n := sp.GridSize()
	k := int(math.Round((v.Num - sp.Min) / sp.ExploreStep))
	if k < 0 {
		return 0
	}
	if k >= n {
		return n - 1
	}
	return k
}

func buildSpec(field string, p config.ParameterConfig) (Spec, error) {
	spec := Spec{Name: strings.TrimSpace(p.Name)}
	if spec.Name == "" {
		return spec, config.Errorf(field+".name", "cannot be empty")
	}

	kind, ok := config.NormalizeType(p.Type)
	if !ok {
		return spec, config.Errorf(field+".type", "unknown parameter type %q", p.Type)
	}

	switch kind {
	case config.TypeCategorical:
		spec.Kind = Categorical
		for _, o := range p.Limits {
			spec.Options = append(spec.Options, scalarString(o))
		}
		spec.Initial = LabelValue(scalarString(p.InitialValue))
	default:
		spec.Kind = Integer
		if kind == config.TypeFloat {
			spec.Kind = Continuous
		}
		if len(p.Limits) != 2 {
			return spec, config.Errorf(field+".limits", "numeric parameter %s needs [min, max]", spec.Name)
		}
		var err error
		if spec.Min, err = toFloat(p.Limits[0]); err != nil {
			return spec, config.Errorf(field+".limits", "min of %s: %v", spec.Name, err)
		}
		if spec.Max, err = toFloat(p.Limits[1]); err != nil {
			return spec, config.Errorf(field+".limits", "max of %s: %v", spec.Name, err)
		}
		initial, err := toFloat(p.InitialValue)
		if err != nil {
			return spec, config.Errorf(field+".initial_value", "%s: %v", spec.Name, err)
		}
		spec.Initial = Value{Kind: spec.Kind, Num: initial}
		if p.Step != nil {
			spec.RefineStep = *p.Step
		}
		if p.SuggestionStep != nil {
			spec.ExploreStep = *p.SuggestionStep
		}
		if (p.Step != nil && *p.Step <= 0) || (p.SuggestionStep != nil && *p.SuggestionStep <= 0) {
			return spec, config.Errorf(field+".step", "steps of %s must be positive", spec.Name)
		}
	}

	applyDefaultSteps(&spec)
	return spec, spec.check(field)
}

func applyDefaultSteps(s *Spec) {
	if s.Kind == Categorical {
		return
	}
	def := defaultContinuousStep
	if s.Kind == Integer {
		def = defaultIntegerStep
	}
	if s.RefineStep == 0 {
		s.RefineStep = def
	}
	if s.ExploreStep == 0 {
		s.ExploreStep = def
	}
}

func (sp Spec) check(field string) error {
	if strings.TrimSpace(sp.Name) == "" {
		return config.Errorf(field+".name", "cannot be empty")
	}
	switch sp.Kind {
	case Categorical:
		if len(sp.Options) == 0 {
			return config.Errorf(field+".limits", "categorical parameter %s needs at least one option", sp.Name)
		}
		seen := make(map[string]bool, len(sp.Options))
		for _, o := range sp.Options {
			if seen[o] {
				return config.Errorf(field+".limits", "duplicate option %q in %s", o, sp.Name)
			}
			seen[o] = true
		}
	case Integer, Continuous:
		if math.IsNaN(sp.Min) || math.IsNaN(sp.Max) || math.IsInf(sp.Min, 0) || math.IsInf(sp.Max, 0) {
			return config.Errorf(field+".limits", "bounds of %s must be finite", sp.Name)
		}
		if sp.Min > sp.Max {
			return config.Errorf(field+".limits", "min %v greater than max %v for %s", sp.Min, sp.Max, sp.Name)
		}
		if sp.Kind == Integer && (sp.Min != math.Trunc(sp.Min) || sp.Max != math.Trunc(sp.Max)) {
			return config.Errorf(field+".limits", "integer parameter %s needs integral bounds", sp.Name)
		}
		if sp.RefineStep <= 0 || sp.ExploreStep <= 0 {
			return config.Errorf(field+".step", "steps of %s must be positive", sp.Name)
		}
	default:
		return config.Errorf(field+".type", "unknown parameter kind %d", sp.Kind)
	}
	if err := sp.Validate(sp.Initial); err != nil {
		return config.Errorf(field+".initial_value", "%v", err)
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("value is missing")
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
