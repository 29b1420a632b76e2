package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Setting is a single server setting.
	Setting struct {
		Name  string
		Value string
	}

	// Settings is a string map that keeps the order its entries were declared in,
	// both in YAML and in the "k1=v1,k2=v2" environment form.
	Settings []Setting
)

// First returns the first declared setting.
func (s Settings) First() (Setting, bool) {
	if len(s) == 0 {
		return Setting{}, false
	}

	return s[0], true
}

// Get returns the value of the named setting.
func (s Settings) Get(name string) (string, bool) {
	for _, e := range s {
		if e.Name == name {
			return e.Value, true
		}
	}

	return "", false
}

// Names returns the setting names in declaration order.
func (s Settings) Names() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Name
	}

	return out
}

// set replaces an existing value in place or appends a new entry.
func (s *Settings) set(name, value string) {
	for i := range *s {
		if (*s)[i].Name == name {
			(*s)[i].Value = value
			return
		}
	}

	*s = append(*s, Setting{Name: name, Value: value})
}

// UnmarshalYAML implements yaml.Unmarshaler. Values must be scalars.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: expected a mapping", value.Line)
	}

	var out Settings
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return errors.Errorf("line %d: value of %s must be a scalar", v.Line, k.Value)
		}

		out.set(k.Value, v.Value)
	}

	*s = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Settings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}

	return node, nil
}

// ParseSettings reads the "k1=v1,k2=v2" form. Blank entries are skipped.
func ParseSettings(raw string) (Settings, error) {
	var out Settings
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Errorf("expected key=value, got %q", pair)
		}
		out.set(strings.TrimSpace(k), strings.TrimSpace(v))
	}

	return out, nil
}
