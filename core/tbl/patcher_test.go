package tbl

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var singleField = Layout{Segments: []Segment{{Name: "value", RecordSize: 4, Fields: []int{4}}}}

// buildTable encodes payloads as a segmented table.
func buildTable(payloads ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range payloads {
		var header [4]byte
		binary.LittleEndian.PutUint32(header[:], uint32(len(p)))
		buf.Write(header[:])
		buf.Write(p)
		for buf.Len()%segmentAlignment != 0 {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

// skillTable builds a Skill table with n element records, one active skill
// and one trait.
func skillTable(elements ...[]byte) []byte {
	return buildTable(bytes.Join(elements, nil), make([]byte, 48), make([]byte, 44))
}

func TestApply_LastPatchWins(t *testing.T) {
	baseline := []byte{0, 0, 0, 0}
	p, err := newPatcher(baseline, singleField)
	require.NoError(t, err)

	c1, err := p.GeneratePatch([]byte{1, 0, 0, 0})
	require.NoError(t, err)
	c2, err := p.GeneratePatch([]byte{2, 0, 0, 0})
	require.NoError(t, err)

	merged, skipped := p.Apply([]Patch{c1, c2})
	assert.Empty(t, skipped)
	assert.Equal(t, []byte{2, 0, 0, 0}, merged)

	reversed, _ := p.Apply([]Patch{c2, c1})
	assert.Equal(t, []byte{1, 0, 0, 0}, reversed)
}

func TestApply_MergesDisjointFields(t *testing.T) {
	baseline := skillTable(make([]byte, 8), make([]byte, 8))
	p, err := NewPatcher(baseline, Skill)
	require.NoError(t, err)

	modA := skillTable([]byte{7, 0, 0, 0, 0, 0, 0, 0}, make([]byte, 8))
	modB := skillTable(make([]byte, 8), []byte{0, 0, 0, 0, 9, 9, 9, 9})

	patchA, err := p.GeneratePatch(modA)
	require.NoError(t, err)
	patchB, err := p.GeneratePatch(modB)
	require.NoError(t, err)
	assert.Len(t, patchA.Edits, 1)
	assert.Equal(t, Edit{Segment: 0, Record: 0, Field: 0, Value: []byte{7}}, patchA.Edits[0])

	merged, skipped := p.Apply([]Patch{patchA, patchB})
	assert.Empty(t, skipped)
	assert.Equal(t, skillTable([]byte{7, 0, 0, 0, 0, 0, 0, 0}, []byte{0, 0, 0, 0, 9, 9, 9, 9}), merged)
	assert.Len(t, merged, len(baseline))
}

func TestApply_LastWriteWinsPerField(t *testing.T) {
	baseline := skillTable(make([]byte, 8))
	p, err := NewPatcher(baseline, Skill)
	require.NoError(t, err)

	// Both mods touch record 0; only field 0 conflicts.
	patchA, _ := p.GeneratePatch(skillTable([]byte{1, 5, 0, 0, 0, 0, 0, 0}))
	patchB, _ := p.GeneratePatch(skillTable([]byte{2, 0, 0, 0, 0, 0, 0, 0}))

	merged, _ := p.Apply([]Patch{patchA, patchB})
	assert.Equal(t, skillTable([]byte{2, 5, 0, 0, 0, 0, 0, 0}), merged)
}

func TestApply_Deterministic(t *testing.T) {
	baseline := skillTable(make([]byte, 8), make([]byte, 8))
	mods := [][]byte{
		skillTable([]byte{1, 2, 3, 4, 5, 6, 7, 8}, make([]byte, 8)),
		skillTable([]byte{8, 7, 0, 0, 0, 0, 0, 0}, []byte{1, 1, 1, 1, 1, 1, 1, 1}),
	}

	run := func() []byte {
		p, err := NewPatcher(baseline, Skill)
		require.NoError(t, err)
		var patches []Patch
		for _, m := range mods {
			patch, err := p.GeneratePatch(m)
			require.NoError(t, err)
			patches = append(patches, patch)
		}
		out, _ := p.Apply(patches)
		return out
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}

func TestPatcher_BaselineUntouched(t *testing.T) {
	baseline := skillTable(make([]byte, 8))
	original := bytes.Clone(baseline)

	p, err := NewPatcher(baseline, Skill)
	require.NoError(t, err)
	patch, err := p.GeneratePatch(skillTable([]byte{9, 9, 9, 9, 9, 9, 9, 9}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		out, _ := p.Apply([]Patch{patch})
		out[4] = 0xFF
	}
	assert.Equal(t, original, baseline)
}

func TestApply_NoPatches(t *testing.T) {
	baseline := skillTable(make([]byte, 8))
	p, err := NewPatcher(baseline, Skill)
	require.NoError(t, err)

	out, skipped := p.Apply(nil)
	assert.Empty(t, skipped)
	assert.Equal(t, baseline, out)
	out[0] = 0xAA
	assert.NotEqual(t, baseline[0], out[0])
}

func TestApply_SkipsOutOfRange(t *testing.T) {
	baseline := skillTable(make([]byte, 8))
	p, err := NewPatcher(baseline, Skill)
	require.NoError(t, err)

	// The mod appends a second element record the baseline does not have.
	patch, err := p.GeneratePatch(skillTable([]byte{3, 0, 0, 0, 0, 0, 0, 0}, []byte{1, 1, 1, 1, 1, 1, 1, 1}))
	require.NoError(t, err)

	merged, skipped := p.Apply([]Patch{patch})
	assert.Equal(t, skillTable([]byte{3, 0, 0, 0, 0, 0, 0, 0}), merged)
	require.Len(t, skipped, 4)
	for _, s := range skipped {
		assert.Equal(t, 1, s.Record)
	}

	tests := []struct {
		name string
		edit Edit
	}{
		{"segment", Edit{Segment: 9, Value: []byte{1}}},
		{"record", Edit{Segment: 0, Record: -1, Value: []byte{1}}},
		{"field", Edit{Segment: 0, Record: 0, Field: 4, Value: []byte{1}}},
		{"width", Edit{Segment: 0, Record: 0, Field: 0, Value: []byte{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, skipped := p.Apply([]Patch{{Type: Skill, Edits: []Edit{tt.edit}}})
			assert.Equal(t, baseline, out)
			require.Len(t, skipped, 1)
			assert.Contains(t, skipped[0].Error(), "out of range")
		})
	}
}

func TestApply_RejectsForeignPatch(t *testing.T) {
	p, err := NewPatcher(skillTable(make([]byte, 8)), Skill)
	require.NoError(t, err)

	_, skipped := p.Apply([]Patch{{Type: Item, Edits: []Edit{{Value: []byte{1}}}}})
	require.Len(t, skipped, 1)
	assert.Equal(t, 0, skipped[0].Patch)
}

func TestGeneratePatch_Malformed(t *testing.T) {
	baseline := skillTable(make([]byte, 8))
	p, err := NewPatcher(baseline, Skill)
	require.NoError(t, err)

	tests := []struct {
		name     string
		modified []byte
		segment  string
	}{
		{"empty", nil, "elements"},
		{"missing segment", buildTable(make([]byte, 8)), "active_skills"},
		{"partial record", buildTable(make([]byte, 7), make([]byte, 48), make([]byte, 44)), "elements"},
		{"size past end", []byte{0xFF, 0, 0, 0, 1, 2}, "elements"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.GeneratePatch(tt.modified)
			var malformed *MalformedTableError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, Skill, malformed.Type)
			assert.Equal(t, tt.segment, malformed.Segment)
		})
	}
}

func TestNewPatcher_MalformedBaseline(t *testing.T) {
	_, err := NewPatcher([]byte{1, 2}, Unit)
	var malformed *MalformedTableError
	assert.ErrorAs(t, err, &malformed)

	_, err = NewPatcher(nil, TableType(99))
	assert.ErrorAs(t, err, &malformed)
}

func TestLayouts_FieldWidthsCoverRecords(t *testing.T) {
	for _, tt := range TableTypes() {
		layout, ok := Describe(tt)
		require.True(t, ok, tt.String())
		assert.Equal(t, tt, layout.Type)
		for _, s := range layout.Segments {
			sum := 0
			for _, w := range s.Fields {
				sum += w
			}
			assert.Equal(t, s.RecordSize, sum, "%s/%s", tt, s.Name)
		}
	}
}
