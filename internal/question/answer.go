package question

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Answer is the editor's correctAnswer: one value, or an ordered list of
// values for multiple choice. Values are option ids when known, texts otherwise.
type Answer struct {
	Values []string
	Multi  bool
}

func Single(v string) *Answer { return &Answer{Values: []string{v}} }

func Multi(vs ...string) *Answer {
	return &Answer{Values: append([]string{}, vs...), Multi: true}
}

// Value returns the single value, or the first of a list.
func (a *Answer) Value() string {
	if a == nil || len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

// List returns the values as a (possibly singleton) sequence.
func (a *Answer) List() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (a *Answer) Empty() bool { return len(a.List()) == 0 }

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Multi {
		vs := a.Values
		if vs == nil {
			vs = []string{}
		}
		return json.Marshal(vs)
	}
	return json.Marshal(a.Value())
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*a = Answer{}
	case b[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("correctAnswer: %w", err)
		}
		vs := make([]string, 0, len(raw))
		for _, r := range raw {
			v, err := rawID(r)
			if err != nil {
				return fmt.Errorf("correctAnswer: %w", err)
			}
			vs = append(vs, v)
		}
		*a = Answer{Values: vs, Multi: true}
	default:
		v, err := rawID(b)
		if err != nil {
			return fmt.Errorf("correctAnswer: %w", err)
		}
		*a = Answer{Values: []string{v}}
	}
	return nil
}

func (a Answer) MarshalYAML() (any, error) {
	if a.Multi {
		return a.Values, nil
	}
	return a.Value(), nil
}

func (a *Answer) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var vs []string
		if err := n.Decode(&vs); err != nil {
			return err
		}
		*a = Answer{Values: vs, Multi: true}
	case yaml.ScalarNode:
		*a = Answer{Values: []string{n.Value}}
	default:
		return fmt.Errorf("correctAnswer: unexpected yaml node kind %d", n.Kind)
	}
	return nil
}
