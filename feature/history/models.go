package history

import (
	"time"

	"tbl-merger/feature/merge"
)

// PassRecord is one stored merge pass.
type PassRecord struct {
	ID         string       `gorm:"column:id;primaryKey;size:36" json:"id"`
	StartedAt  time.Time    `gorm:"column:started_at;index" json:"started_at"`
	DurationMs int64        `gorm:"column:duration_ms" json:"duration_ms"`
	Merged     int          `gorm:"column:merged" json:"merged"`
	Cached     int          `gorm:"column:cached" json:"cached"`
	NotFound   int          `gorm:"column:not_found" json:"not_found"`
	Failed     int          `gorm:"column:failed" json:"failed"`
	Expired    int          `gorm:"column:expired" json:"expired"`
	Units      []UnitRecord `gorm:"foreignKey:PassID;constraint:OnDelete:CASCADE" json:"units,omitempty"`
}

// TableName overrides the table name.
func (PassRecord) TableName() string {
	return "merge_passes"
}

// UnitRecord is the stored result of one table within a pass.
type UnitRecord struct {
	ID           uint     `gorm:"column:id;primaryKey" json:"-"`
	PassID       string   `gorm:"column:pass_id;size:36;index" json:"-"`
	LogicalPath  string   `gorm:"column:logical_path;size:255" json:"logical_path"`
	TableType    string   `gorm:"column:table_type;size:32" json:"table_type"`
	Outcome      string   `gorm:"column:outcome;size:16" json:"outcome"`
	Origins      []string `gorm:"column:origins;serializer:json" json:"origins"`
	Artifact     string   `gorm:"column:artifact" json:"artifact,omitempty"`
	DroppedEdits int      `gorm:"column:dropped_edits" json:"dropped_edits"`
	Error        string   `gorm:"column:error" json:"error,omitempty"`
}

// TableName overrides the table name.
func (UnitRecord) TableName() string {
	return "merge_units"
}

// fromReport converts a pass report to its stored form.
func fromReport(r *merge.Report) *PassRecord {
	rec := &PassRecord{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
		Merged:     r.Count(merge.OutcomeMerged),
		Cached:     r.Count(merge.OutcomeCached),
		NotFound:   r.Count(merge.OutcomeNotFound),
		Failed:     r.Count(merge.OutcomeFailed),
		Expired:    r.Expired,
	}
	for _, u := range r.Units {
		rec.Units = append(rec.Units, UnitRecord{
			PassID:       r.ID,
			LogicalPath:  string(u.Path),
			TableType:    u.Type,
			Outcome:      string(u.Outcome),
			Origins:      u.Origins,
			Artifact:     u.Artifact,
			DroppedEdits: u.DroppedEdits,
			Error:        u.Error,
		})
	}
	return rec
}
