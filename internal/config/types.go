package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList unmarshals from either a scalar or a sequence, so playbooks can
// write `branches: main` as well as `branches: [main, v*]`.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := node.Decode(&ss); err != nil {
			return err
		}
		*l = StringList(ss)
		return nil
	default:
		return fmt.Errorf("expected string or list of strings at line %d", node.Line)
	}
}
