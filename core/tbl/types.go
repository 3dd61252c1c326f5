package tbl

import (
	"fmt"
	"strings"
)

// LogicalPath is a normalized, container-relative table path such as
// "BATTLE/TABLE/SKILL.TBL".
type LogicalPath string

// NormalizePath converts a raw relative path into a LogicalPath.
// Separators become forward slashes, leading slashes are dropped and the
// result is uppercased because container lookups are case-insensitive.
func NormalizePath(raw string) LogicalPath {
	p := strings.ReplaceAll(raw, `\`, "/")
	p = strings.TrimLeft(p, "/")
	return LogicalPath(strings.ToUpper(p))
}

// TrimPrefix removes the first matching prefix from the path.
func (p LogicalPath) TrimPrefix(prefixes ...string) LogicalPath {
	for _, prefix := range prefixes {
		norm := string(NormalizePath(prefix))
		if norm != "" && strings.HasPrefix(string(p), norm) {
			return LogicalPath(strings.TrimPrefix(string(p), norm))
		}
	}
	return p
}

// TableType selects the field layout used to diff and merge a table.
type TableType int

const (
	Skill TableType = iota + 1
	Elsai
	Item
	Exist
	Player
	Encount
	Persona
	AiCalc
	Visual
	Unit
)

var tableTypeNames = map[TableType]string{
	Skill:   "skill",
	Elsai:   "elsai",
	Item:    "item",
	Exist:   "exist",
	Player:  "player",
	Encount: "encount",
	Persona: "persona",
	AiCalc:  "aicalc",
	Visual:  "visual",
	Unit:    "unit",
}

// String returns the lowercase name of the table type.
func (t TableType) String() string {
	if name, ok := tableTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// ParseTableType parses a table type from its name (case-insensitive).
func ParseTableType(name string) (TableType, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for t, n := range tableTypeNames {
		if n == lower {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown table type: %q", name)
}

// TableTypes returns every known table type in declaration order.
func TableTypes() []TableType {
	return []TableType{Skill, Elsai, Item, Exist, Player, Encount, Persona, AiCalc, Visual, Unit}
}

// Edit sets one field of one record to a new value.
type Edit struct {
	Segment int    `json:"segment"`
	Record  int    `json:"record"`
	Field   int    `json:"field"`
	Value   []byte `json:"value"`
}

// Patch is the ordered set of field edits that turn the baseline into one
// modified table. It never holds a full copy of the table.
type Patch struct {
	Type  TableType `json:"type"`
	Edits []Edit    `json:"edits"`
}
