package tbl

import "fmt"

// MalformedTableError reports a buffer whose structure does not match the
// layout of its table type.
type MalformedTableError struct {
	Type    TableType
	Segment string
	Reason  string
}

func (e *MalformedTableError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("malformed %s table: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("malformed %s table: segment %s: %s", e.Type, e.Segment, e.Reason)
}

// PatchOutOfRangeError reports an edit that addresses a field the baseline
// does not have. Apply skips such edits.
type PatchOutOfRangeError struct {
	Patch   int
	Segment int
	Record  int
	Field   int
	Reason  string
}

func (e *PatchOutOfRangeError) Error() string {
	return fmt.Sprintf("patch %d: edit segment=%d record=%d field=%d out of range: %s",
		e.Patch, e.Segment, e.Record, e.Field, e.Reason)
}
