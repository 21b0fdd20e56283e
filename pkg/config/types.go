package config

import "strings"

// Parameter types accepted in a description. The Portuguese spellings are the
// canonical ones written by the wizard; English aliases are normalized.
const (
	TypeInteger     = "inteiro"
	TypeFloat       = "float"
	TypeCategorical = "categorico"
)

// Objectives accepted in a description.
const (
	ObjectiveMaximize = "maximizar"
	ObjectiveMinimize = "minimizar"
)

// Description is the parameter-space document: which program to run, which
// direction to optimize, and the ordered list of tunable parameters.
// The order of Parameters is the positional argument order of the program.
type Description struct {
	Executable string            `yaml:"executable" json:"executable"`
	Objective  string            `yaml:"objective" json:"objective"`
	Parameters []ParameterConfig `yaml:"parameters" json:"parameters"`
}

// ParameterConfig describes one tunable parameter.
//
// Limits holds [min, max] for numeric types and the option list for
// categorical ones. Step is the refinement step used by local search and
// SuggestionStep the grid step used by the global sampler.
type ParameterConfig struct {
	Name           string   `yaml:"name" json:"name"`
	Type           string   `yaml:"type" json:"type"`
	Limits         []any    `yaml:"limits" json:"limits"`
	InitialValue   any      `yaml:"initial_value" json:"initial_value"`
	Step           *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	SuggestionStep *float64 `yaml:"suggestion_step,omitempty" json:"suggestion_step,omitempty"`
}

// legacyDescription matches the files produced by the first generation of
// tuning scripts, which used Portuguese keys.
type legacyDescription struct {
	Executavel string                  `yaml:"executavel"`
	Objetivo   string                  `yaml:"objetivo"`
	Parametros []legacyParameterConfig `yaml:"parametros"`
}

type legacyParameterConfig struct {
	Nome          string   `yaml:"nome"`
	Tipo          string   `yaml:"tipo"`
	Limites       []any    `yaml:"limites"`
	ValorInicial  any      `yaml:"valor_inicial"`
	Passo         *float64 `yaml:"passo,omitempty"`
	PassoSugestao *float64 `yaml:"passo_sugestao,omitempty"`
}

func (l *legacyDescription) toDescription() *Description {
	desc := &Description{
		Executable: l.Executavel,
		Objective:  l.Objetivo,
		Parameters: make([]ParameterConfig, 0, len(l.Parametros)),
	}
	for _, p := range l.Parametros {
		desc.Parameters = append(desc.Parameters, ParameterConfig{
			Name:           p.Nome,
			Type:           p.Tipo,
			Limits:         p.Limites,
			InitialValue:   p.ValorInicial,
			Step:           p.Passo,
			SuggestionStep: p.PassoSugestao,
		})
	}
	return desc
}

// NormalizeType maps a type spelling to its canonical form.
func NormalizeType(t string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "inteiro", "integer", "int":
		return TypeInteger, true
	case "float", "continuous", "real", "double":
		return TypeFloat, true
	case "categorico", "categórico", "categorical", "category":
		return TypeCategorical, true
	default:
		return "", false
	}
}

// NormalizeObjective maps an objective spelling to its canonical form.
func NormalizeObjective(o string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(o)) {
	case "maximizar", "maximize", "max":
		return ObjectiveMaximize, true
	case "minimizar", "minimize", "min":
		return ObjectiveMinimize, true
	default:
		return "", false
	}
}

// Float64Ptr returns a pointer to v. Handy when building descriptions in code.
func Float64Ptr(v float64) *float64 {
	return &v
}
