package attrref

import (
	"strings"

	"github.com/specialistvlad/mitext/internal/diag"
)

// Parse reads a single `[subsystem::]class.attribute` target.
func Parse(raw string) (Target, error) {
	var t Target
	rest := strings.TrimSpace(raw)
	if sub, after, ok := strings.Cut(rest, SubsystemSeparator); ok {
		t.Subsystem = strings.TrimSpace(sub)
		rest = after
		if t.Subsystem == "" {
			return Target{}, diag.Newf(diag.Semantic, "reference target %q has an empty subsystem", raw)
		}
	}
	class, attr, ok := strings.Cut(rest, ".")
	if !ok {
		return Target{}, diag.Newf(diag.Semantic, "reference target %q is missing the class.attribute separator", strings.TrimSpace(raw))
	}
	t.Class, t.Attribute = strings.TrimSpace(class), strings.TrimSpace(attr)
	if t.Class == "" || t.Attribute == "" || strings.Contains(t.Attribute, ".") || strings.Contains(rest, ":") {
		return Target{}, diag.Newf(diag.Semantic, "malformed reference target %q", strings.TrimSpace(raw))
	}
	return t, nil
}

// ParseList reads comma separated targets. At least one target is required.
func ParseList(raw string) ([]Target, error) {
	var out []Target
	for _, fragment := range strings.Split(raw, ",") {
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		t, err := Parse(fragment)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, diag.Newf(diag.Semantic, "reference has no targets")
	}
	return out, nil
}
