package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout. A file holds either a scenarios list or a
// single scenario at the top level.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadFile reads and validates every scenario in path.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenarios, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// Parse decodes scenario YAML.
func Parse(data []byte) ([]Scenario, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil || len(f.Scenarios) == 0 {
		var single Scenario
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if serr := dec.Decode(&single); serr != nil {
			if err == nil {
				err = serr
			}
			return nil, fmt.Errorf("failed to parse scenarios: %w", err)
		}
		f.Scenarios = []Scenario{single}
	}

	seen := make(map[string]bool, len(f.Scenarios))
	for _, s := range f.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return f.Scenarios, nil
}

// Marshal encodes scenarios in the File layout.
func Marshal(scenarios []Scenario) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Scenarios: scenarios}); err != nil {
		return nil, fmt.Errorf("failed to encode scenarios: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Resolve returns the built-in scenario called nameOrPath, or the scenarios
// loaded from the file at that path.
func Resolve(nameOrPath string) ([]Scenario, error) {
	if s, ok := Find(Builtins(), nameOrPath); ok {
		return []Scenario{s}, nil
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return nil, fmt.Errorf("unknown scenario %q (not a built-in name or readable file)", nameOrPath)
	}
	return LoadFile(nameOrPath)
}
