package tbl

// segmentAlignment is the boundary every segment of a segmented table starts on.
const segmentAlignment = 16

// segmentHeaderSize is the size of the little-endian payload length that
// precedes each segment.
const segmentHeaderSize = 4

// Segment is one run of fixed-size records inside a table.
type Segment struct {
	Name       string
	RecordSize int
	// Fields holds the width of every field of a record, in order. The widths
	// sum to RecordSize.
	Fields []int
}

// fieldOffsets returns the offset of every field inside a record.
func (s Segment) fieldOffsets() []int {
	offsets := make([]int, len(s.Fields))
	off := 0
	for i, w := range s.Fields {
		offsets[i] = off
		off += w
	}
	return offsets
}

// Layout is the structure shared by every table of one TableType.
type Layout struct {
	Type TableType
	// Segmented tables prefix each segment with its size. All registered
	// layouts are segmented. A flat table is a
	// single headerless segment spanning the whole buffer.
	Segmented bool
	Segments  []Segment
}

// uniform splits a record into fields of the given width. A trailing
// remainder becomes one narrower field.
func uniform(recordSize, width int) []int {
	fields := make([]int, 0, recordSize/width+1)
	for left := recordSize; left > 0; left -= width {
		fields = append(fields, min(width, left))
	}
	return fields
}

func seg(name string, recordSize, width int) Segment {
	return Segment{Name: name, RecordSize: recordSize, Fields: uniform(recordSize, width)}
}

var layouts = map[TableType]Layout{
	Skill: {Type: Skill, Segmented: true, Segments: []Segment{
		{Name: "elements", RecordSize: 8, Fields: []int{1, 1, 2, 4}},
		seg("active_skills", 48, 2),
		seg("traits", 44, 2),
	}},
	Elsai: {Type: Elsai, Segmented: true, Segments: []Segment{
		seg("unit_visual", 4, 2),
		seg("ai_flags", 2, 2),
	}},
	Item: {Type: Item, Segmented: true, Segments: []Segment{
		seg("accessories", 48, 2),
		seg("armor", 48, 2),
		seg("consumables", 48, 2),
		seg("key_items", 48, 2),
		seg("materials", 48, 2),
		seg("melee_weapons", 48, 2),
		seg("outfits", 32, 2),
		seg("skill_cards", 24, 2),
		seg("ranged_weapons", 48, 2),
	}},
	Exist: {Type: Exist, Segmented: true, Segments: []Segment{
		seg("enemy_exist", 12, 2),
		seg("persona_exist", 12, 2),
	}},
	Player: {Type: Player, Segmented: true, Segments: []Segment{
		seg("level_up_threshold", 4, 4),
		seg("party_stats", 6, 2),
		seg("sp_growth", 4, 2),
		seg("unknown", 8, 4),
		seg("base_hp_sp", 4, 2),
		seg("ailment_stats", 12, 2),
	}},
	Encount: {Type: Encount, Segmented: true, Segments: []Segment{
		{Name: "encounters", RecordSize: 44, Fields: append([]int{4, 2, 2}, uniform(36, 2)...)},
		seg("force_battles", 20, 2),
		seg("chances", 24, 2),
	}},
	Persona: {Type: Persona, Segmented: true, Segments: []Segment{
		{Name: "personas", RecordSize: 14, Fields: []int{2, 1, 1, 1, 1, 2, 2, 2, 2}},
		seg("skills_and_stats", 70, 2),
		seg("party_personas", 396, 2),
		seg("exp_table", 4, 4),
		seg("growth_table", 6, 2),
	}},
	AiCalc: {Type: AiCalc, Segmented: true, Segments: []Segment{
		seg("conditions", 12, 4),
		seg("actions", 12, 4),
		seg("targets", 8, 4),
		seg("scripts", 8, 4),
	}},
	Visual: {Type: Visual, Segmented: true, Segments: []Segment{
		seg("enemy_visual", 24, 2),
		seg("player_visual", 24, 2),
		seg("persona_visual", 16, 2),
		seg("summon_visual", 24, 2),
	}},
	Unit: {Type: Unit, Segmented: true, Segments: []Segment{
		{Name: "enemy_stats", RecordSize: 68, Fields: append([]int{4, 2, 2, 4, 4}, uniform(52, 2)...)},
		seg("enemy_affinities", 40, 2),
		seg("persona_affinities", 40, 2),
		seg("voice_ids", 4, 2),
		seg("visual_index", 4, 2),
	}},
}

// Describe returns the layout of a table type.
func Describe(t TableType) (Layout, bool) {
	l, ok := layouts[t]
	return l, ok
}
