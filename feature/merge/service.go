package merge

import (
	"context"
	"fmt"
	"sync"

	"tbl-merger/core/cache"

	"go.uber.org/zap"
)

// Collector supplies the candidate files of a pass.
type Collector interface {
	Collect(ctx context.Context) (*FileMap, error)
}

// Index is the administrative view of the merged file cache.
type Index interface {
	Entries() []cache.Entry
	RemoveExpiredItems() int
}

// Service runs merge passes over freshly collected candidates, one at a time.
type Service struct {
	orchestrator *Orchestrator
	collector    Collector
	registry     Registry
	index        Index
	logger       *zap.Logger

	mu   sync.Mutex
	last *Report
}

// NewService creates a merge service.
func NewService(orchestrator *Orchestrator, collector Collector, registry Registry, index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orchestrator: orchestrator,
		collector:    collector,
		registry:     registry,
		index:        index,
		logger:       logger,
	}
}

// RunPass collects candidates and merges them. The returned map holds the
// resolved candidates after merging.
func (s *Service) RunPass(ctx context.Context) (*Report, *FileMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to collect candidates: %w", err)
	}
	report := s.orchestrator.Run(ctx, files, s.registry)
	s.last = report
	return report, files, nil
}

// LastReport returns the report of the most recent pass, if any.
func (s *Service) LastReport() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// CacheEntries lists the cached merges.
func (s *Service) CacheEntries() []cache.Entry {
	return s.index.Entries()
}

// SweepExpired removes stale cache entries outside a pass.
func (s *Service) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.index.RemoveExpiredItems()
	s.logger.Info("Expired cache entries removed", zap.Int("removed", n))
	return n
}

// Stats returns the orchestrator counters.
func (s *Service) Stats() StatsSnapshot {
	return s.orchestrator.Stats()
}

// Wait waits for background work of finished passes.
func (s *Service) Wait(ctx context.Context) error {
	return s.orchestrator.Wait(ctx)
}
