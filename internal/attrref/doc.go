/*
Package attrref parses the targets of a referential attribute.

A target names the attribute a reference points at, written
`class.attribute`, or `subsystem::class.attribute` when the class lives in
another subsystem of the same domain. A referential attribute may point at
several targets separated by commas.
*/
package attrref
