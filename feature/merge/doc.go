// Package merge runs merge passes over modded tables.
//
// A pass takes the candidate files of every logical path, merges each
// registered table independently against its baseline, and replaces the
// candidates of every merged table with one file produced by the merger.
// Results are cached by the ordered list of contributing origins, so a pass
// over unchanged mods reuses the previous artifacts without rebuilding them.
//
// The merged file is published under the full logical path (for example
// R2/BATTLE/TABLE/SKILL.TBL); configured prefixes are stripped only to find
// the baseline.
//
// A table that cannot be merged is left with its original candidates.
package merge
