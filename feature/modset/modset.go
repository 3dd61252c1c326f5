package modset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"tbl-merger/core/tbl"
	"tbl-merger/feature/merge"

	"go.uber.org/zap"
)

// Config holds configuration for the mod set.
type Config struct {
	// Dir holds one subdirectory per mod.
	Dir string `mapstructure:"dir" default:"mods"`
	// LoadOrder lists mod ids from lowest to highest priority. Mods not listed
	// load after them in name order.
	LoadOrder []string `mapstructure:"load_order" default:""`
	// Disabled lists mod ids to ignore.
	Disabled []string `mapstructure:"disabled" default:""`
}

// Provider collects candidate files from the mods directory.
type Provider struct {
	cfg    Config
	logger *zap.Logger
}

// NewProvider creates a provider for cfg.
func NewProvider(cfg Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, logger: logger}
}

// Dir returns the mods directory.
func (p *Provider) Dir() string {
	return p.cfg.Dir
}

// Mods returns the enabled mod ids in load order.
func (p *Provider) Mods() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mods directory: %w", err)
	}

	disabled := make(map[string]struct{}, len(p.cfg.Disabled))
	for _, id := range p.cfg.Disabled {
		disabled[id] = struct{}{}
	}
	present := make(map[string]struct{})
	var rest []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, off := disabled[e.Name()]; off {
			continue
		}
		present[e.Name()] = struct{}{}
		rest = append(rest, e.Name())
	}

	ordered := make([]string, 0, len(present))
	listed := make(map[string]struct{}, len(p.cfg.LoadOrder))
	for _, id := range p.cfg.LoadOrder {
		if _, ok := present[id]; !ok {
			p.logger.Warn("Mod in load order not found", zap.String("mod", id))
			continue
		}
		if _, dup := listed[id]; dup {
			continue
		}
		listed[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		if _, ok := listed[id]; !ok {
			ordered = append(ordered, id)
		}
	}
	return ordered, nil
}

// Collect walks every enabled mod and maps each file to its logical path.
// Candidates of a path follow the mod load order.
func (p *Provider) Collect(ctx context.Context) (*merge.FileMap, error) {
	mods, err := p.Mods()
	if err != nil {
		return nil, err
	}

	files := merge.NewFileMap()
	for _, mod := range mods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root := filepath.Join(p.cfg.Dir, mod)
		count := 0
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files.Add(tbl.NormalizePath(filepath.ToSlash(rel)), merge.CandidateSource{
				Origin:    mod,
				Path:      path,
				LastWrite: info.ModTime().UTC(),
			})
			count++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan mod %s: %w", mod, err)
		}
		p.logger.Debug("Scanned mod", zap.String("mod", mod), zap.Int("files", count))
	}
	return files, nil
}
