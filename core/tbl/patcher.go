package tbl

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// span locates one segment payload inside a buffer.
type span struct {
	offset int
	size   int
}

// Patcher diffs and merges tables against one read-only baseline.
type Patcher struct {
	layout   Layout
	baseline []byte
	spans    []span
	offsets  [][]int
}

// NewPatcher validates baseline against the layout of t and returns a Patcher
// bound to it. The baseline is never written to.
func NewPatcher(baseline []byte, t TableType) (*Patcher, error) {
	layout, ok := Describe(t)
	if !ok {
		return nil, &MalformedTableError{Type: t, Reason: "no layout registered"}
	}
	return newPatcher(baseline, layout)
}

func newPatcher(baseline []byte, layout Layout) (*Patcher, error) {
	spans, err := parse(baseline, layout)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	offsets := make([][]int, len(layout.Segments))
	for i, s := range layout.Segments {
		offsets[i] = s.fieldOffsets()
	}
	return &Patcher{layout: layout, baseline: baseline, spans: spans, offsets: offsets}, nil
}

// GeneratePatch records every field of modified whose bytes differ from the
// baseline. Records that modified has beyond the baseline's record count are
// recorded in full; Apply rejects them as out of range.
func (p *Patcher) GeneratePatch(modified []byte) (Patch, error) {
	modSpans, err := parse(modified, p.layout)
	if err != nil {
		return Patch{}, err
	}

	patch := Patch{Type: p.layout.Type}
	for si, s := range p.layout.Segments {
		base, mod := p.spans[si], modSpans[si]
		baseRecords := base.size / s.RecordSize
		modRecords := mod.size / s.RecordSize

		for r := 0; r < modRecords; r++ {
			modRec := modified[mod.offset+r*s.RecordSize : mod.offset+(r+1)*s.RecordSize]
			var baseRec []byte
			if r < baseRecords {
				baseRec = p.baseline[base.offset+r*s.RecordSize : base.offset+(r+1)*s.RecordSize]
			}
			if baseRec != nil && bytes.Equal(baseRec, modRec) {
				continue
			}
			for f, off := range p.offsets[si] {
				value := modRec[off : off+s.Fields[f]]
				if baseRec != nil && bytes.Equal(baseRec[off:off+s.Fields[f]], value) {
					continue
				}
				patch.Edits = append(patch.Edits, Edit{
					Segment: si,
					Record:  r,
					Field:   f,
					Value:   bytes.Clone(value),
				})
			}
		}
	}
	return patch, nil
}

// Apply replays patches in order onto a fresh copy of the baseline. A later
// patch overwrites fields written by an earlier one. Edits that do not address
// a field of the baseline are skipped and returned.
func (p *Patcher) Apply(patches []Patch) ([]byte, []*PatchOutOfRangeError) {
	out := bytes.Clone(p.baseline)
	if out == nil {
		out = []byte{}
	}

	var skipped []*PatchOutOfRangeError
	for pi, patch := range patches {
		if patch.Type != p.layout.Type {
			skipped = append(skipped, &PatchOutOfRangeError{
				Patch: pi, Segment: -1, Record: -1, Field: -1,
				Reason: fmt.Sprintf("patch is for %s, table is %s", patch.Type, p.layout.Type),
			})
			continue
		}
		for _, e := range patch.Edits {
			off, reason := p.locate(e)
			if reason != "" {
				skipped = append(skipped, &PatchOutOfRangeError{
					Patch: pi, Segment: e.Segment, Record: e.Record, Field: e.Field, Reason: reason,
				})
				continue
			}
			copy(out[off:], e.Value)
		}
	}
	return out, skipped
}

// locate returns the absolute offset of the field an edit writes, or a reason
// why the edit does not fit the baseline.
func (p *Patcher) locate(e Edit) (int, string) {
	if e.Segment < 0 || e.Segment >= len(p.layout.Segments) {
		return 0, fmt.Sprintf("table has %d segments", len(p.layout.Segments))
	}
	s := p.layout.Segments[e.Segment]
	records := p.spans[e.Segment].size / s.RecordSize
	if e.Record < 0 || e.Record >= records {
		return 0, fmt.Sprintf("segment %s has %d records", s.Name, records)
	}
	if e.Field < 0 || e.Field >= len(s.Fields) {
		return 0, fmt.Sprintf("segment %s has %d fields", s.Name, len(s.Fields))
	}
	if len(e.Value) != s.Fields[e.Field] {
		return 0, fmt.Sprintf("value is %d bytes, field is %d", len(e.Value), s.Fields[e.Field])
	}
	return p.spans[e.Segment].offset + e.Record*s.RecordSize + p.offsets[e.Segment][e.Field], ""
}

// parse locates every segment payload of buf.
func parse(buf []byte, layout Layout) ([]span, error) {
	// Headerless single-segment tables, reachable through newPatcher. Every
	// layout returned by Describe is segmented.
	if !layout.Segmented {
		s := layout.Segments[0]
		if len(buf)%s.RecordSize != 0 {
			return nil, &MalformedTableError{
				Type: layout.Type, Segment: s.Name,
				Reason: fmt.Sprintf("size %d is not a multiple of record size %d", len(buf), s.RecordSize),
			}
		}
		return []span{{offset: 0, size: len(buf)}}, nil
	}

	spans := make([]span, 0, len(layout.Segments))
	pos := 0
	for _, s := range layout.Segments {
		if pos+segmentHeaderSize > len(buf) {
			return nil, &MalformedTableError{Type: layout.Type, Segment: s.Name, Reason: "missing segment header"}
		}
		size := int(binary.LittleEndian.Uint32(buf[pos:]))
		pos += segmentHeaderSize
		if size > len(buf)-pos {
			return nil, &MalformedTableError{
				Type: layout.Type, Segment: s.Name,
				Reason: fmt.Sprintf("size %d exceeds remaining %d bytes", size, len(buf)-pos),
			}
		}
		if size%s.RecordSize != 0 {
			return nil, &MalformedTableError{
				Type: layout.Type, Segment: s.Name,
				Reason: fmt.Sprintf("size %d is not a multiple of record size %d", size, s.RecordSize),
			}
		}
		spans = append(spans, span{offset: pos, size: size})
		pos = align(pos+size, segmentAlignment)
	}
	return spans, nil
}

func align(n, to int) int {
	return (n + to - 1) / to * to
}

// GeneratePatch diffs modified against baseline using the layout of t.
func GeneratePatch(baseline []byte, t TableType, modified []byte) (Patch, error) {
	p, err := NewPatcher(baseline, t)
	if err != nil {
		return Patch{}, err
	}
	return p.GeneratePatch(modified)
}

// Apply merges patches onto a copy of baseline in order.
func Apply(baseline []byte, t TableType, patches []Patch) ([]byte, []*PatchOutOfRangeError, error) {
	p, err := NewPatcher(baseline, t)
	if err != nil {
		return nil, nil, err
	}
	out, skipped := p.Apply(patches)
	return out, skipped, nil
}
