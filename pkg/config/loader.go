package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadDescription loads and parses a description file.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read description file %s: %w", path, err)
	}
	desc, err := ParseDescription(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse description file %s: %w", path, err)
	}
	return desc, nil
}

// SaveDescription writes a description to path. Files ending in .yaml or .yml
// are written as YAML, everything else as indented JSON.
func SaveDescription(path string, desc *Description) error {
	if err := ValidateDescription(desc); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = MarshalDescriptionYAML(desc)
	default:
		data, err = json.MarshalIndent(desc, "", "    ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write description file %s: %w", path, err)
	}
	return nil
}

// ValidateDescription checks the structure of a description: a program to
// run, a known objective and well-formed parameter entries. Value-level checks
// (bounds order, initial values) happen when the parameter space is built.
func ValidateDescription(desc *Description) error {
	if desc == nil {
		return &ConfigError{Reason: "description is required"}
	}
	if strings.TrimSpace(desc.Executable) == "" {
		return Errorf("executable", "cannot be empty")
	}
	if desc.Objective != "" {
		if _, ok := NormalizeObjective(desc.Objective); !ok {
			return Errorf("objective", "must be %q or %q, got %q", ObjectiveMaximize, ObjectiveMinimize, desc.Objective)
		}
	}
	if len(desc.Parameters) == 0 {
		return Errorf("parameters", "at least one parameter must be defined")
	}

	names := make(map[string]bool, len(desc.Parameters))
	for i, p := range desc.Parameters {
		field := fmt.Sprintf("parameters[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			return Errorf(field+".name", "cannot be empty")
		}
		if names[p.Name] {
			return Errorf(field+".name", "duplicate parameter name: %s", p.Name)
		}
		names[p.Name] = true

		kind, ok := NormalizeType(p.Type)
		if !ok {
			return Errorf(field+".type", "must be %s, %s or %s, got %q", TypeInteger, TypeFloat, TypeCategorical, p.Type)
		}
		switch kind {
		case TypeInteger, TypeFloat:
			if len(p.Limits) != 2 {
				return Errorf(field+".limits", "numeric parameter %s needs [min, max], got %d values", p.Name, len(p.Limits))
			}
		case TypeCategorical:
			if len(p.Limits) == 0 {
				return Errorf(field+".limits", "categorical parameter %s needs at least one option", p.Name)
			}
		}
		if p.InitialValue == nil {
			return Errorf(field+".initial_value", "parameter %s has no initial value", p.Name)
		}
	}
	return nil
}

// ObjectiveOrDefault returns the normalized objective, defaulting to
// maximization when the description leaves it empty.
func (d *Description) ObjectiveOrDefault() string {
	if obj, ok := NormalizeObjective(d.Objective); ok {
		return obj
	}
	return ObjectiveMaximize
}
