// Package classify maps asset file names to content categories.
//
// Classification is an ordered table of substring rules evaluated against the
// lower-cased base name; the first matching rule wins, so the order of the
// table is part of its behaviour. Names with an audio extension only consult
// audio rules and everything else only consults image rules. Unmatched names
// resolve to Misc. Classification never touches the filesystem.
package classify
