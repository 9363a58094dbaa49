package attrref

// SubsystemSeparator qualifies a class with the subsystem it belongs to.
const SubsystemSeparator = "::"

// Target is one referenced attribute.
type Target struct {
	// Subsystem is empty for a target in the referring class's subsystem.
	Subsystem string
	Class     string
	Attribute string
}

// Qualified reports whether the target names its subsystem.
func (t Target) Qualified() bool {
	return t.Subsystem != ""
}

// String renders the target in its canonical form.
func (t Target) String() string {
	s := t.Class + "." + t.Attribute
	if t.Qualified() {
		s = t.Subsystem + SubsystemSeparator + s
	}
	return s
}
