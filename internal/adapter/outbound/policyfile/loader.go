// Package policyfile loads governance policy tables from YAML or JSON files
// and watches them for changes.
package policyfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
)

// ErrEmptyPolicy is returned for a policy source with no document in it.
var ErrEmptyPolicy = errors.New("policy source is empty")

// rulesKey is the top-level key of the wrapped flat-list encoding.
const rulesKey = "rules"

// Load reads and parses the policy file at path. Every failure is returned
// as a *policy.ConfigError.
func Load(path string) (*policy.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &policy.ConfigError{Source: path, Err: err}
	}
	rules, err := Parse(data)
	if err != nil {
		var cfgErr *policy.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
			return nil, cfgErr
		}
		return nil, &policy.ConfigError{Source: path, Err: err}
	}
	return policy.NewTable(rules), nil
}

// Parse decodes a policy document in either encoding:
//
//   - a flat list, given as a top-level sequence or under a "rules" key
//   - a nested map of service to operation to permission
//
// JSON documents are accepted as well.
func Parse(data []byte) ([]policy.Rule, error) {
	data, err := jsonToYAML(data)
	if err != nil {
		return nil, &policy.ConfigError{Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &policy.ConfigError{Err: fmt.Errorf("parse: %w", err)}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &policy.ConfigError{Err: ErrEmptyPolicy}
	}

	rules, err := decodeRoot(doc.Content[0])
	if err != nil {
		return nil, &policy.ConfigError{Err: err}
	}
	return rules, nil
}

func decodeRoot(root *yaml.Node) ([]policy.Rule, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		return decodeFlat(root)
	case yaml.MappingNode:
		if len(root.Content) == 0 {
			return nil, ErrEmptyPolicy
		}
		if rules := mappingValue(root, rulesKey); rules != nil && rules.Kind == yaml.SequenceNode {
			return decodeFlat(rules)
		}
		var spec policy.NestedSpec
		if err := root.Decode(&spec); err != nil {
			return nil, fmt.Errorf("nested policy at line %d: %w", root.Line, err)
		}
		return policy.NormalizeNested(spec)
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, ErrEmptyPolicy
		}
	}
	return nil, fmt.Errorf("line %d: policy must be a list of rules or a map of services", root.Line)
}

func decodeFlat(node *yaml.Node) ([]policy.Rule, error) {
	var specs []policy.RuleSpec
	if err := node.Decode(&specs); err != nil {
		return nil, fmt.Errorf("rule list at line %d: %w", node.Line, err)
	}
	return policy.NormalizeFlat(specs)
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// jsonToYAML re-encodes a JSON document as YAML. JSON is nearly a subset of
// YAML, but tab indentation and some escapes are not; anything that is not
// valid JSON is returned unchanged.
func jsonToYAML(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return data, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert json: %w", err)
	}
	return out, nil
}
