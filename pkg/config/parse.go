package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseDescription parses a description from YAML or JSON bytes and validates
// its structure. JSON is accepted because it is a subset of YAML.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse description: %w", err)
	}

	if desc.Executable == "" && len(desc.Parameters) == 0 {
		var legacy legacyDescription
		if err := yaml.Unmarshal(data, &legacy); err == nil && legacy.Executavel != "" {
			desc = *legacy.toDescription()
		}
	}

	if err := ValidateDescription(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// ParseDescriptionString parses a description from a string.
func ParseDescriptionString(text string) (*Description, error) {
	return ParseDescription([]byte(text))
}

// MarshalDescriptionYAML renders a description as YAML.
func MarshalDescriptionYAML(desc *Description) ([]byte, error) {
	out, err := yaml.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal description: %w", err)
	}
	return out, nil
}
