package integrity

import (
	"context"
	"errors"
	"os"
	"slices"

	"tbl-merger/core/logger"
	"tbl-merger/core/tbl"
	"tbl-merger/feature/container"
	"tbl-merger/feature/merge"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// checkWorkers bounds concurrent baseline reads.
const checkWorkers = 4

// Status is the verdict for one checked file.
type Status string

const (
	StatusOK         Status = "ok"
	StatusMissing    Status = "missing"
	StatusMalformed  Status = "malformed"
	StatusUnreadable Status = "unreadable"
)

// TableCheck is the result of checking one registered table's baseline.
type TableCheck struct {
	Path      tbl.LogicalPath `json:"logical_path"`
	Type      string          `json:"table_type"`
	Container string          `json:"container,omitempty"`
	Status    Status          `json:"status"`
	Size      int             `json:"size,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// CandidateCheck is the result of checking one mod's copy of a table.
type CandidateCheck struct {
	Path   tbl.LogicalPath `json:"logical_path"`
	Origin string          `json:"origin"`
	Status Status          `json:"status"`
	// Edits is the number of fields the mod changes.
	Edits int    `json:"edits"`
	Error string `json:"error,omitempty"`
}

// Report summarizes a check.
type Report struct {
	Tables     []TableCheck     `json:"tables,omitempty"`
	Candidates []CandidateCheck `json:"candidates,omitempty"`
	Counts     map[Status]int   `json:"counts"`
}

// Service checks baselines and mods against the table layouts.
type Service struct {
	locator   merge.Locator
	collector merge.Collector
	registry  merge.Registry
	strip     []string
	logger    *zap.Logger
}

// NewService creates a new integrity service.
func NewService(locator merge.Locator, collector merge.Collector, registry merge.Registry, stripPrefixes []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		locator:   locator,
		collector: collector,
		registry:  registry,
		strip:     stripPrefixes,
		logger:    logger,
	}
}

// CheckBaselines verifies that every registered table has a baseline in some
// container and that the baseline matches its layout.
func (s *Service) CheckBaselines(ctx context.Context) *Report {
	paths := sortedPaths(s.registry)
	checks := make([]TableCheck, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(checkWorkers)
	for i, path := range paths {
		g.Go(func() error {
			checks[i] = s.checkBaseline(ctx, path, s.registry[path])
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Tables: checks, Counts: map[Status]int{}}
	for _, c := range checks {
		report.Counts[c.Status]++
	}
	return report
}

func (s *Service) checkBaseline(ctx context.Context, path tbl.LogicalPath, t tbl.TableType) TableCheck {
	check := TableCheck{Path: path, Type: t.String()}
	_, baseline, err := s.baseline(ctx, path, t, &check)
	if err != nil {
		return check
	}
	check.Size = len(baseline)
	check.Status = StatusOK
	return check
}

// baseline locates, reads and validates the baseline of path, recording any
// failure on check.
func (s *Service) baseline(ctx context.Context, path tbl.LogicalPath, t tbl.TableType, check *TableCheck) (*tbl.Patcher, []byte, error) {
	lookup := path.TrimPrefix(s.strip...)
	box, err := s.locator.Locate(ctx, lookup)
	if err != nil {
		check.Status = StatusMissing
		if !errors.Is(err, container.ErrNotFound) {
			check.Status = StatusUnreadable
		}
		check.Error = err.Error()
		return nil, nil, err
	}
	check.Container = box.ID()

	data, err := box.Read(ctx, lookup)
	if err != nil {
		check.Status = StatusUnreadable
		check.Error = err.Error()
		return nil, nil, err
	}
	patcher, err := tbl.NewPatcher(data, t)
	if err != nil {
		check.Status = StatusMalformed
		check.Error = err.Error()
		return nil, nil, err
	}
	return patcher, data, nil
}

// CheckMods diffs every mod's copy of a registered table against the
// baseline and reports copies that do not match the layout.
func (s *Service) CheckMods(ctx context.Context) (*Report, error) {
	files, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Counts: map[Status]int{}}
	for _, path := range sortedPaths(s.registry) {
		cands, ok := files.Get(path)
		if !ok {
			continue
		}
		t := s.registry[path]
		l := logger.ForTable(s.logger, string(path), t.String())

		check := TableCheck{Path: path, Type: t.String()}
		patcher, _, err := s.baseline(ctx, path, t, &check)
		if err != nil {
			l.Warn("Skipping mods without a usable baseline", zap.Error(err))
			report.Tables = append(report.Tables, check)
			continue
		}

		for _, cand := range cands {
			cc := CandidateCheck{Path: path, Origin: cand.Origin, Status: StatusOK}
			data, err := os.ReadFile(cand.Path)
			if err != nil {
				cc.Status, cc.Error = StatusUnreadable, err.Error()
			} else if patch, err := patcher.GeneratePatch(data); err != nil {
				cc.Status, cc.Error = StatusMalformed, err.Error()
			} else {
				cc.Edits = len(patch.Edits)
			}
			if cc.Status != StatusOK {
				l.Warn("Mod table failed validation", zap.String("origin", cand.Origin), zap.String("error", cc.Error))
			}
			report.Candidates = append(report.Candidates, cc)
			report.Counts[cc.Status]++
		}
	}
	return report, nil
}

func sortedPaths(reg merge.Registry) []tbl.LogicalPath {
	paths := make([]tbl.LogicalPath, 0, len(reg))
	for p := range reg {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
