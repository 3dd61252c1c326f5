// Package tbl reads, diffs and merges fixed-layout binary game tables.
//
// A table is described by a Layout: an ordered list of segments, each holding a
// run of fixed-size records that are split into fields. Segmented tables store
// every segment as a 4-byte little-endian payload size followed by the payload,
// padded so the next segment starts on a 16-byte boundary.
//
// # Patching
//
// A Patcher wraps one baseline buffer. GeneratePatch compares a modified copy of
// the table against the baseline and records only the fields that differ.
// Apply replays an ordered list of patches onto a fresh copy of the baseline:
//
//	p, err := tbl.NewPatcher(baseline, tbl.Skill)
//	if err != nil {
//	    return err
//	}
//	patchA, _ := p.GeneratePatch(modA)
//	patchB, _ := p.GeneratePatch(modB)
//	merged, skipped := p.Apply([]tbl.Patch{patchA, patchB})
//
// When two patches write the same field the later one wins. Structural bytes
// (segment sizes, padding) are never written, so the merged buffer always has
// the baseline's length and record layout. Edits that do not fit the baseline
// (for example records a mod appended) are skipped and reported as
// PatchOutOfRangeError values instead of failing the merge.
//
// # Table Types
//
// TableType is a closed set of schemas. Describe is the single lookup from a
// type to its Layout; adding a schema means adding one entry to the layout table.
package tbl
