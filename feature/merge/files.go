package merge

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tbl-merger/core/tbl"
)

// MergedOrigin is the origin recorded on files produced by the merger.
const MergedOrigin = "tbl-merger"

// CandidateSource is one modified file contributing to a logical path.
type CandidateSource struct {
	// Origin identifies the mod that produced the file.
	Origin string `json:"origin"`
	// Path is the file location on disk.
	Path string `json:"path"`
	// LastWrite is the file's modification time.
	LastWrite time.Time `json:"last_write"`
}

// FileMap maps logical paths to their ordered candidate files. Order is the
// load order: later candidates override earlier ones. It is shared between
// concurrent merge units, which replace entries with merged artifacts.
type FileMap struct {
	mu    sync.Mutex
	files map[tbl.LogicalPath][]CandidateSource
}

// NewFileMap creates an empty file map.
func NewFileMap() *FileMap {
	return &FileMap{files: make(map[tbl.LogicalPath][]CandidateSource)}
}

// Add appends a candidate for path.
func (m *FileMap) Add(path tbl.LogicalPath, src CandidateSource) {
	m.mu.Lock()
	m.files[path] = append(m.files[path], src)
	m.mu.Unlock()
}

// Get returns a copy of the candidates for path.
func (m *FileMap) Get(path tbl.LogicalPath) ([]CandidateSource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files, ok := m.files[path]
	if !ok {
		return nil, false
	}
	return append([]CandidateSource(nil), files...), true
}

// Replace substitutes all candidates for path with a single file.
func (m *FileMap) Replace(path tbl.LogicalPath, src CandidateSource) {
	m.mu.Lock()
	m.files[path] = []CandidateSource{src}
	m.mu.Unlock()
}

// Paths returns every logical path in sorted order.
func (m *FileMap) Paths() []tbl.LogicalPath {
	m.mu.Lock()
	paths := make([]tbl.LogicalPath, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	m.mu.Unlock()
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Snapshot returns a deep copy of the map.
func (m *FileMap) Snapshot() map[tbl.LogicalPath][]CandidateSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[tbl.LogicalPath][]CandidateSource, len(m.files))
	for p, files := range m.files {
		out[p] = append([]CandidateSource(nil), files...)
	}
	return out
}

// Registry maps the logical paths that should be merged to their table type.
type Registry map[tbl.LogicalPath]tbl.TableType

// tablePrefix is where the battle tables live relative to the game data root.
const tablePrefix = "R2/BATTLE/TABLE/"

// DefaultRegistry returns the battle tables merged by default.
func DefaultRegistry() Registry {
	return Registry{
		tablePrefix + "SKILL.TBL":   tbl.Skill,
		tablePrefix + "ELSAI.TBL":   tbl.Elsai,
		tablePrefix + "ITEM.TBL":    tbl.Item,
		tablePrefix + "EXIST.TBL":   tbl.Exist,
		tablePrefix + "PLAYER.TBL":  tbl.Player,
		tablePrefix + "ENCOUNT.TBL": tbl.Encount,
		tablePrefix + "PERSONA.TBL": tbl.Persona,
		tablePrefix + "AICALC.TBL":  tbl.AiCalc,
		tablePrefix + "VISUAL.TBL":  tbl.Visual,
		tablePrefix + "UNIT.TBL":    tbl.Unit,
	}
}

// ParseRegistry builds a registry from "path=type" pairs.
func ParseRegistry(pairs []string) (Registry, error) {
	reg := make(Registry, len(pairs))
	for _, pair := range pairs {
		path, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid table mapping %q, want path=type", pair)
		}
		t, err := tbl.ParseTableType(name)
		if err != nil {
			return nil, err
		}
		reg[tbl.NormalizePath(strings.TrimSpace(path))] = t
	}
	return reg, nil
}
