package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"tbl-merger/core/cache"
	"tbl-merger/core/logger"
	"tbl-merger/core/tbl"
	"tbl-merger/feature/container"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Locator finds the container holding a baseline table.
type Locator interface {
	Locate(ctx context.Context, path tbl.LogicalPath) (container.Container, error)
}

// Cache stores merged artifacts keyed by their inputs.
type Cache interface {
	TryGet(key cache.Key, sources []cache.Source) (string, bool)
	Add(key cache.Key, sources []cache.Source, data []byte) (cache.Entry, error)
	Path(relative string) string
	BeginPass() uint64
	RemoveExpiredItems() int
	PersistAsync() <-chan error
}

// Recorder receives the report of every finished pass.
type Recorder interface {
	Record(ctx context.Context, report *Report) error
}

// Orchestrator runs merge passes: one independent unit per registered table
// that has candidates, bounded by the configured worker count.
type Orchestrator struct {
	cfg      Config
	locator  Locator
	cache    Cache
	recorder Recorder
	logger   *zap.Logger
	stats    Stats

	builds singleflight.Group
	bg     sync.WaitGroup
	now    func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config, locator Locator, c Cache, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:     cfg,
		locator: locator,
		cache:   c,
		logger:  logger,
		now:     time.Now,
	}
}

// SetRecorder installs a sink for pass reports.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.recorder = r
}

// Stats returns the orchestrator's counters.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// MergeAll runs a pass and returns the artifact path of every table it
// resolved. Tables it could not merge keep their original candidates in files.
func (o *Orchestrator) MergeAll(ctx context.Context, files *FileMap, registry Registry) map[tbl.LogicalPath]string {
	return o.Run(ctx, files, registry).Resolved()
}

// Run merges every path present in both files and registry, publishes each
// result into files, then expires stale cache entries and persists the cache
// index in the background.
func (o *Orchestrator) Run(ctx context.Context, files *FileMap, registry Registry) *Report {
	started := o.now()
	report := &Report{ID: uuid.NewString(), StartedAt: started.UTC()}
	o.cache.BeginPass()

	type job struct {
		path tbl.LogicalPath
		typ  tbl.TableType
	}
	var jobs []job
	for _, path := range files.Paths() {
		if t, ok := registry[path]; ok {
			jobs = append(jobs, job{path: path, typ: t})
		}
	}

	results := make([]UnitResult, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(o.workers())
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = o.runUnit(ctx, files, j.path, j.typ)
			return nil
		})
	}
	_ = g.Wait()

	sortUnits(results)
	for _, u := range results {
		o.stats.observe(u)
	}
	report.Units = results
	report.Expired = o.cache.RemoveExpiredItems()
	report.Duration = o.now().Sub(started)
	o.stats.passes.Add(1)

	o.logger.Info("Merge pass finished",
		zap.String("pass_id", report.ID),
		zap.Int("units", len(results)),
		zap.Int("merged", report.Count(OutcomeMerged)),
		zap.Int("cached", report.Count(OutcomeCached)),
		zap.Int("failed", report.Count(OutcomeFailed)+report.Count(OutcomeNotFound)),
		zap.Int("expired", report.Expired),
		zap.Duration("duration", report.Duration))

	o.finish(report)
	return report
}

// finish persists the cache index and records the report without blocking
// the caller.
func (o *Orchestrator) finish(report *Report) {
	persisted := o.cache.PersistAsync()
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		// Persist failures are logged by the cache and retried next pass.
		<-persisted
		if o.recorder == nil {
			return
		}
		if err := o.recorder.Record(context.Background(), report); err != nil {
			o.logger.Warn("Failed to record merge pass", zap.String("pass_id", report.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until background work of finished passes completes or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) workers() int {
	if o.cfg.Workers > 0 {
		return o.cfg.Workers
	}
	return runtime.NumCPU()
}

// built is the shared result of one artifact build.
type built struct {
	artifact string
	rejected []string
	dropped  int
}

// runUnit merges one table. It never fails the pass: errors and panics turn
// into a failed result and the table stays unmerged.
func (o *Orchestrator) runUnit(ctx context.Context, files *FileMap, path tbl.LogicalPath, t tbl.TableType) (result UnitResult) {
	log := logger.ForTable(o.logger, string(path), t.String())
	result = UnitResult{Path: path, Type: t.String()}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Merge unit panicked", zap.Any("panic", r))
			result.Outcome = OutcomeFailed
			result.Artifact = ""
			result.Error = fmt.Sprint(r)
		}
	}()

	candidates, ok := files.Get(path)
	if !ok || len(candidates) == 0 {
		result.Outcome = OutcomeFailed
		result.Error = "no candidates"
		return result
	}
	origins := make([]string, len(candidates))
	sources := make([]cache.Source, len(candidates))
	for i, c := range candidates {
		origins[i] = c.Origin
		sources[i] = cache.Source{Origin: c.Origin, LastWrite: c.LastWrite}
	}
	result.Origins = origins

	lookup := path.TrimPrefix(o.cfg.StripPrefixes...)
	box, err := o.locator.Locate(ctx, lookup)
	if err != nil {
		if errors.Is(err, container.ErrNotFound) {
			log.Warn("Baseline not found in any container, leaving table unmerged", zap.Error(err))
			result.Outcome = OutcomeNotFound
		} else {
			log.Error("Baseline lookup failed", zap.Error(err))
			result.Outcome = OutcomeFailed
		}
		result.Error = err.Error()
		return result
	}
	result.Container = box.ID()

	key := cache.BuildKey(path, origins)
	if artifact, hit := o.cache.TryGet(key, sources); hit {
		log.Debug("Reusing cached merge", zap.String("key", string(key)))
		result.Outcome = OutcomeCached
		result.Artifact = artifact
		o.publish(files, path, artifact)
		return result
	}

	v, err, shared := o.builds.Do(flightKey(key, sources), func() (any, error) {
		return o.build(ctx, log, box, lookup, t, key, sources, candidates)
	})
	if err != nil {
		log.Error("Merge failed, leaving table unmerged", zap.String("container", box.ID()), zap.Error(err))
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}
	b := v.(built)
	if shared {
		log.Debug("Joined concurrent build", zap.String("key", string(key)))
	}

	result.Outcome = OutcomeMerged
	result.Artifact = b.artifact
	result.Rejected = b.rejected
	result.DroppedEdits = b.dropped
	o.publish(files, path, b.artifact)
	log.Info("Table merged", zap.Strings("origins", origins), zap.String("artifact", b.artifact))
	return result
}

func (o *Orchestrator) build(
	ctx context.Context,
	log *zap.Logger,
	box container.Container,
	lookup tbl.LogicalPath,
	t tbl.TableType,
	key cache.Key,
	sources []cache.Source,
	candidates []CandidateSource,
) (built, error) {
	baseline, err := box.Read(ctx, lookup)
	if err != nil {
		return built{}, fmt.Errorf("read baseline from %s: %w", box.ID(), err)
	}
	patcher, err := tbl.NewPatcher(baseline, t)
	if err != nil {
		return built{}, err
	}

	patches := make([]*tbl.Patch, len(candidates))
	g := new(errgroup.Group)
	for i, cand := range candidates {
		g.Go(func() error {
			data, err := os.ReadFile(cand.Path)
			if err != nil {
				return fmt.Errorf("read candidate from %s: %w", cand.Origin, err)
			}
			p, err := patcher.GeneratePatch(data)
			o.stats.patches.Add(1)
			if err != nil {
				log.Warn("Skipping malformed candidate", zap.String("origin", cand.Origin), zap.String("file", cand.Path), zap.Error(err))
				return nil
			}
			patches[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return built{}, err
	}

	var b built
	ordered := make([]tbl.Patch, 0, len(patches))
	applied := make([]string, 0, len(patches))
	for i, p := range patches {
		if p == nil {
			b.rejected = append(b.rejected, candidates[i].Origin)
			continue
		}
		ordered = append(ordered, *p)
		applied = append(applied, candidates[i].Origin)
	}

	merged, dropped := patcher.Apply(ordered)
	for _, d := range dropped {
		log.Warn("Dropped out-of-range edit", zap.String("origin", applied[d.Patch]), zap.Error(d))
	}
	b.dropped = len(dropped)

	entry, err := o.cache.Add(key, sources, merged)
	if err != nil {
		return built{}, err
	}
	b.artifact = o.cache.Path(entry.RelativePath)
	return b, nil
}

// flightKey identifies one build. Besides the cache key it carries the
// last-write time of every source, so a caller never joins a build of older
// file contents.
func flightKey(key cache.Key, sources []cache.Source) string {
	var b strings.Builder
	b.WriteString(string(key))
	for _, s := range sources {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(s.LastWrite.UnixNano(), 10))
	}
	return b.String()
}

// publish substitutes the candidates of path with the merged artifact.
func (o *Orchestrator) publish(files *FileMap, path tbl.LogicalPath, artifact string) {
	files.Replace(path, CandidateSource{
		Origin:    MergedOrigin,
		Path:      artifact,
		LastWrite: o.now().UTC(),
	})
}
