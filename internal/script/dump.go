package script

import (
	"fmt"
	"io"

	"github.com/specialistvlad/mitext/internal/registry"
	"gopkg.in/yaml.v3"
)

// WriteText writes one completed command per line with its values bound.
func (s *Script) WriteText(w io.Writer) error {
	for _, c := range s.Completed() {
		if _, err := fmt.Fprintln(w, c.String()); err != nil {
			return err
		}
	}
	return nil
}

type yamlCommand struct {
	Call   string    `yaml:"call"`
	Line   int       `yaml:"line,omitempty"`
	Params yaml.Node `yaml:"params"`
}

// WriteYAML writes the completed commands as a YAML sequence. Parameters
// keep their positional order.
func (s *Script) WriteYAML(w io.Writer) error {
	docs := make([]yamlCommand, 0, s.Len())
	for _, c := range s.Completed() {
		params := yaml.Node{Kind: yaml.MappingNode}
		for i, name := range c.Params {
			native, err := registry.Native(c.Values[i])
			if err != nil {
				return fmt.Errorf("%s parameter %s: %w", c.Call, name, err)
			}
			var value yaml.Node
			if err := value.Encode(native); err != nil {
				return fmt.Errorf("%s parameter %s: %w", c.Call, name, err)
			}
			params.Content = append(params.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
				&value,
			)
		}
		docs = append(docs, yamlCommand{Call: c.Call, Line: c.Origin.Line, Params: params})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to encode script: %w", err)
	}
	return enc.Close()
}
