// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package metamodel

import (
	"slices"
	"strings"

	"github.com/specialistvlad/mitext/internal/diag"
)

// DummyIDAttribute is the placeholder attribute every new class carries in
// identifier 1 until its real identifying attributes are assigned.
const DummyIDAttribute = "__POP_Dummy_ID"

// IdentifierGroup holds the identifiers of one class: the attribute names of
// identifier n are at index n-1, in the order they were first tagged.
type IdentifierGroup [][]string

// Merge adds attr to each of the given identifier numbers, growing the group
// so that every number up to the highest has a slot.
func (g *IdentifierGroup) Merge(attr string, numbers []int) error {
	if attr == DummyIDAttribute {
		return diag.Newf(diag.Semantic, "attribute name %q is reserved", DummyIDAttribute)
	}
	for _, n := range numbers {
		if n < 1 {
			return diag.Newf(diag.Semantic, "identifier number %d is less than 1", n)
		}
	}
	for _, n := range numbers {
		for len(*g) < n {
			*g = append(*g, nil)
		}
		if !slices.Contains((*g)[n-1], attr) {
			(*g)[n-1] = append((*g)[n-1], attr)
		}
	}
	return nil
}

// ParseIDTags reads identifier tags: `I` is identifier 1 and every digit
// after the I names one identifier, so `I23` is identifiers 2 and 3. The
// result is sorted and free of duplicates.
func ParseIDTags(tag string) ([]int, error) {
	tag = strings.TrimSpace(tag)
	if !strings.HasPrefix(tag, "I") {
		return nil, diag.Newf(diag.Semantic, "malformed identifier tag %q", tag)
	}
	digits := tag[1:]
	if digits == "" {
		return []int{1}, nil
	}
	var out []int
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, diag.Newf(diag.Semantic, "malformed identifier tag %q", tag)
		}
		n := int(r - '0')
		if n < 1 {
			return nil, diag.Newf(diag.Semantic, "identifier number %d is less than 1 in %q", n, tag)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}
