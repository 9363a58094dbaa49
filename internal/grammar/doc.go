// Package grammar defines the fixed, hand-authored grammar of the miUML text
// script.
//
// The grammar has two levels. The section grammar recognizes header lines
// (a single bare word) and enforces the legal order of sections. The
// expression grammar lists, per section, the statement alternatives a content
// line may take. Each alternative has ordered regular expression patterns,
// the constructor call it targets and the transform applied to its captures.
//
// Matching is first-match-wins: expressions are tried in declared order, and
// within an expression its patterns are tried in declared order.
package grammar
