package question

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Option is an answer choice. Editors may send bare strings; they decode into
// an Option with only Text set.
type Option struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct,omitempty"`
}

type optionFields Option

func (o *Option) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = Option{Text: s}
		return nil
	}
	var raw struct {
		optionFields
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("option: %w", err)
	}
	*o = Option(raw.optionFields)
	id, err := rawID(raw.ID)
	if err != nil {
		return fmt.Errorf("option id: %w", err)
	}
	o.ID = id
	return nil
}

func (o *Option) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*o = Option{Text: n.Value}
		return nil
	}
	var f optionFields
	if err := n.Decode(&f); err != nil {
		return err
	}
	*o = Option(f)
	return nil
}

// rawID accepts ids sent as JSON strings or numbers.
func rawID(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func optionTexts(opts []Option) []Option {
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, Option{Text: o.Text})
	}
	return out
}
