package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/paveg/reviewrisk/internal/monitoring"
	"github.com/paveg/reviewrisk/internal/validation"
	"github.com/paveg/reviewrisk/internal/version"
	"gopkg.in/yaml.v3"
)

// ManifestFile is written to the output directory after a full run.
const ManifestFile = "run_manifest.yaml"

// CheckSummary is one failed validation check in the manifest.
type CheckSummary struct {
	Table      string `yaml:"table"`
	Check      string `yaml:"check"`
	Violations int    `yaml:"violations"`
	Error      string `yaml:"error,omitempty"`
}

// Manifest records what a run produced.
type Manifest struct {
	Version    string                    `yaml:"version"`
	Release    bool                      `yaml:"release"` // false for dev and pre-release builds
	StartedAt  time.Time                 `yaml:"started_at"`
	FinishedAt time.Time                 `yaml:"finished_at"`
	Config     config.Config             `yaml:"config"`
	Artifacts  map[string]int            `yaml:"artifacts"` // rows per written artifact
	Failed     []CheckSummary            `yaml:"failed_checks,omitempty"`
	Stages     []monitoring.StageMetrics `yaml:"stages"`
}

// Run executes clean, assemble, features and validate in order, exports to
// SQLite when configured and writes the run manifest. Any stage error
// aborts the run; validation findings never do.
func (r *Runner) Run(ctx context.Context) (*Manifest, error) {
	m := &Manifest{
		Version:   version.Info().Version,
		Release:   version.IsRelease(),
		StartedAt: time.Now().UTC(),
		Config:    *r.cfg,
		Artifacts: make(map[string]int),
	}
	merge := func(rows map[string]int) {
		for k, v := range rows {
			m.Artifacts[k] = v
		}
	}

	rows, err := r.Clean(ctx)
	if err != nil {
		return nil, err
	}
	merge(rows)
	if rows, err = r.Assemble(ctx); err != nil {
		return nil, err
	}
	merge(rows)
	if rows, err = r.Features(ctx); err != nil {
		return nil, err
	}
	merge(rows)

	results, err := r.Validate(ctx)
	if err != nil {
		return nil, err
	}
	m.Failed = failedChecks(results)

	if rows, err = r.Export(ctx); err != nil {
		return nil, err
	}
	for k, v := range rows {
		m.Artifacts["sqlite/"+k] = v
	}

	m.Stages = r.metrics.Metrics()
	m.FinishedAt = time.Now().UTC()
	if err := WriteManifest(filepath.Join(r.cfg.OutputDir, ManifestFile), m); err != nil {
		return nil, err
	}
	r.log.Info("run finished", "artifacts", len(m.Artifacts), "failed_checks", len(m.Failed),
		"duration", m.FinishedAt.Sub(m.StartedAt))
	return m, nil
}

func failedChecks(results []validation.Result) []CheckSummary {
	var out []CheckSummary
	for _, res := range results {
		if !res.Failed() {
			continue
		}
		s := CheckSummary{Table: res.Table, Check: res.Check, Violations: res.Violations}
		if res.Err != nil {
			s.Error = res.Err.Error()
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// WriteManifest writes m as YAML, replacing any earlier manifest atomically.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return io.WriteBytes(path, data)
}

// ReadManifest loads a manifest written by Run.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
