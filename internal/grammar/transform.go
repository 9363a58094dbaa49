package grammar

import "fmt"

var multiplicities = map[string]string{
	">":   "1",
	">>":  "M",
	">0":  "1c",
	">>0": "Mc",
}

var multiplicityFields = map[string]bool{"a_mult": true, "p_mult": true}

var flagFields = map[string]bool{"derived": true, "constrained": true}

// Apply runs the expression's transform over the captures in place.
func (m *Match) Apply() error {
	switch m.Expr.Transform {
	case TransformMultiplicity:
		for i, c := range m.Captures {
			if !multiplicityFields[c.Name] {
				continue
			}
			v, ok := multiplicities[c.Text]
			if !ok {
				return fmt.Errorf("unknown multiplicity %q", c.Text)
			}
			m.Captures[i].Text = v
		}
	case TransformFlags:
		for i, c := range m.Captures {
			if flagFields[c.Name] {
				m.Captures[i].Text = "true"
			}
		}
	}
	return nil
}
