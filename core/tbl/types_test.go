package tbl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		raw  string
		want LogicalPath
	}{
		{`R2\BATTLE\TABLE\SKILL.TBL`, "R2/BATTLE/TABLE/SKILL.TBL"},
		{"/battle/table/item.tbl", "BATTLE/TABLE/ITEM.TBL"},
		{"BATTLE/TABLE/UNIT.TBL", "BATTLE/TABLE/UNIT.TBL"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.raw))
		})
	}
}

func TestLogicalPath_TrimPrefix(t *testing.T) {
	p := NormalizePath(`R2\BATTLE\TABLE\SKILL.TBL`)
	assert.Equal(t, LogicalPath("BATTLE/TABLE/SKILL.TBL"), p.TrimPrefix(`r2\`))
	assert.Equal(t, p, p.TrimPrefix("DATA/", ""))
}

func TestParseTableType(t *testing.T) {
	for _, tt := range TableTypes() {
		parsed, err := ParseTableType(tt.String())
		require.NoError(t, err)
		assert.Equal(t, tt, parsed)
	}

	parsed, err := ParseTableType(" AiCalc ")
	require.NoError(t, err)
	assert.Equal(t, AiCalc, parsed)

	_, err = ParseTableType("weapon")
	assert.Error(t, err)
	assert.Equal(t, "unknown(42)", TableType(42).String())
}
