// Package resource reads sectioned resource files. A line of the form
// `[name]` opens a section; every following content line belongs to it until
// the next section header. Comments and blank lines are dropped by the source
// package, and each line keeps its original line number.
package resource

import (
	"fmt"
	"regexp"

	"github.com/specialistvlad/mitext/internal/source"
)

var headerRegex = regexp.MustCompile(`^\s*\[\s*(\w+)\s*\]\s*$`)

// File is a resource file split into named sections.
type File struct {
	Name     string
	sections map[string][]source.Line
	order    []string
}

// Read loads and splits the resource file at path.
func Read(path string) (*File, error) {
	f, err := source.Read(path)
	if err != nil {
		return nil, err
	}
	return Split(f)
}

// Parse splits in-memory resource data.
func Parse(name string, data []byte) (*File, error) {
	return Split(source.Parse(name, data))
}

// Split groups the lines of an already parsed source file by section.
func Split(src *source.File) (*File, error) {
	rf := &File{Name: src.Name, sections: make(map[string][]source.Line)}
	current := ""
	for _, line := range src.Lines() {
		if m := headerRegex.FindStringSubmatch(line.Text); m != nil {
			current = m[1]
			if _, seen := rf.sections[current]; seen {
				return nil, fmt.Errorf("%s:%d: duplicate section %q", src.Name, line.No, current)
			}
			rf.sections[current] = nil
			rf.order = append(rf.order, current)
			continue
		}
		if current == "" {
			return nil, fmt.Errorf("%s:%d: content before first section: %q", src.Name, line.No, line.Trimmed())
		}
		rf.sections[current] = append(rf.sections[current], line)
	}
	return rf, nil
}

// Section returns the lines of the named section and whether it exists.
func (f *File) Section(name string) ([]source.Line, bool) {
	lines, ok := f.sections[name]
	return lines, ok
}

// Sections returns the section names in file order.
func (f *File) Sections() []string {
	return f.order
}
