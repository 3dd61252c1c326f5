package merge

import (
	"sort"
	"sync/atomic"
	"time"

	"tbl-merger/core/tbl"
)

// Outcome is the result of one merge unit.
type Outcome string

const (
	// OutcomeMerged means the table was rebuilt and stored in the cache.
	OutcomeMerged Outcome = "merged"
	// OutcomeCached means a cached artifact was reused.
	OutcomeCached Outcome = "cached"
	// OutcomeNotFound means no container holds a baseline for the table.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeFailed means the unit was abandoned and the table left unmerged.
	OutcomeFailed Outcome = "failed"
)

// UnitResult describes one merge unit of a pass.
type UnitResult struct {
	Path      tbl.LogicalPath `json:"logical_path"`
	Type      string          `json:"table_type"`
	Outcome   Outcome         `json:"outcome"`
	Origins   []string        `json:"origins"`
	Container string          `json:"container,omitempty"`
	Artifact  string          `json:"artifact,omitempty"`
	// Rejected lists origins whose file failed structural validation.
	Rejected []string `json:"rejected,omitempty"`
	// DroppedEdits counts edits discarded as out of range.
	DroppedEdits int    `json:"dropped_edits"`
	Error        string `json:"error,omitempty"`
}

// Report summarizes a merge pass.
type Report struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Units     []UnitResult  `json:"units"`
	// Expired is the number of cache entries removed after the pass.
	Expired int `json:"expired"`
}

// Resolved maps every merged or cached table to its artifact path.
func (r *Report) Resolved() map[tbl.LogicalPath]string {
	out := make(map[tbl.LogicalPath]string)
	for _, u := range r.Units {
		if u.Outcome == OutcomeMerged || u.Outcome == OutcomeCached {
			out[u.Path] = u.Artifact
		}
	}
	return out
}

// Count returns the number of units with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, u := range r.Units {
		if u.Outcome == o {
			n++
		}
	}
	return n
}

func sortUnits(units []UnitResult) {
	sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })
}

// Stats counts orchestrator activity across passes.
type Stats struct {
	passes    atomic.Int64
	merged    atomic.Int64
	cacheHits atomic.Int64
	notFound  atomic.Int64
	failures  atomic.Int64
	patches   atomic.Int64
	dropped   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Passes           int64 `json:"passes"`
	Merged           int64 `json:"merged"`
	CacheHits        int64 `json:"cache_hits"`
	NotFound         int64 `json:"not_found"`
	Failures         int64 `json:"failures"`
	PatchesGenerated int64 `json:"patches_generated"`
	DroppedEdits     int64 `json:"dropped_edits"`
}

// Snapshot reads all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Passes:           s.passes.Load(),
		Merged:           s.merged.Load(),
		CacheHits:        s.cacheHits.Load(),
		NotFound:         s.notFound.Load(),
		Failures:         s.failures.Load(),
		PatchesGenerated: s.patches.Load(),
		DroppedEdits:     s.dropped.Load(),
	}
}

func (s *Stats) observe(u UnitResult) {
	switch u.Outcome {
	case OutcomeMerged:
		s.merged.Add(1)
	case OutcomeCached:
		s.cacheHits.Add(1)
	case OutcomeNotFound:
		s.notFound.Add(1)
	case OutcomeFailed:
		s.failures.Add(1)
	}
	s.dropped.Add(int64(u.DroppedEdits))
}
