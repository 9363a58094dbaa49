// Package source reads line-oriented text inputs (scripts and resource
// files) and strips comments while keeping every line's position, so later
// stages can report the 1-based line number and text of anything they reject.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// CommentChar starts a comment that runs to the end of the line.
const CommentChar = '#'

// Line is one content-bearing line of a file.
type Line struct {
	// No is the 1-based line number within the file.
	No int
	// Offset is the byte offset of the start of the line.
	Offset int
	// Raw is the line exactly as read, without its newline.
	Raw string
	// Text is Raw with the comment and trailing whitespace removed. Leading
	// indentation is preserved.
	Text string
}

// Trimmed returns the line text without its indentation.
func (l Line) Trimmed() string {
	return strings.TrimSpace(l.Text)
}

// File is a parsed input file.
type File struct {
	Name  string
	Bytes []byte
	lines []Line
}

// Read loads and splits the file at path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return Parse(path, data), nil
}

// Parse splits data into lines, dropping blank and comment-only lines.
func Parse(name string, data []byte) *File {
	f := &File{Name: name, Bytes: data}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	offset := 0
	for n := 1; sc.Scan(); n++ {
		raw := sc.Text()
		start := offset
		// Scanner drops "\n"; CRLF input keeps its "\r" in raw.
		offset += len(raw) + 1
		text := StripComment(raw)
		if text == "" {
			continue
		}
		f.lines = append(f.lines, Line{No: n, Offset: start, Raw: raw, Text: text})
	}
	return f
}

// Lines returns the content-bearing lines in file order.
func (f *File) Lines() []Line {
	return f.lines
}

// Offset returns the byte offset of the given 1-based line number, or 0 if
// the line holds no content.
func (f *File) Offset(no int) int {
	for _, l := range f.lines {
		if l.No == no {
			return l.Offset
		}
	}
	return 0
}

// StripComment removes a whole-line or trailing comment and trailing
// whitespace from line.
func StripComment(line string) string {
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), string(CommentChar)) {
		return ""
	}
	if i := strings.IndexByte(line, CommentChar); i >= 0 {
		line = line[:i]
	}
	return strings.TrimRight(line, " \t\r")
}
