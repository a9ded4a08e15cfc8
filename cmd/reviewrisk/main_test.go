package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/pipeline"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// dirFlags lays out a workspace with the raw fixtures and returns the
// flags pointing the CLI at it.
func dirFlags(t *testing.T) (string, []string) {
	t.Helper()
	root := t.TempDir()
	raw := filepath.Join(root, "raw")
	testutil.WriteRawFixtures(t, raw, config.DefaultInputs())
	return root, []string{
		"--raw-dir", raw,
		"--processed-dir", filepath.Join(root, "processed"),
		"--output-dir", filepath.Join(root, "final"),
		"--model-dir", filepath.Join(root, "modeling"),
		"--log-level", "error",
	}
}

func TestRunCommand(t *testing.T) {
	root, flags := dirFlags(t)
	dbPath := filepath.Join(root, "olist.db")

	stdout, stderr, err := execute(t, append([]string{"run", "--sqlite", dbPath}, flags...)...)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "ARTIFACT")
	assert.Contains(t, stdout, "final_dataset_nlp")
	assert.Contains(t, stdout, "sqlite/final_dataset_nlp")
	assert.Contains(t, stdout, "failed checks")
	assert.Contains(t, stderr, "[", "progress bar is drawn on stderr")

	m, err := pipeline.ReadManifest(filepath.Join(root, "final", pipeline.ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, dbPath, m.Config.SQLitePath)
	assert.NotEmpty(t, m.Stages)
	assert.FileExists(t, dbPath)
}

func TestStageCommands(t *testing.T) {
	_, flags := dirFlags(t)
	flags = append(flags, "--progress=false")

	t.Run("clean selected entities", func(t *testing.T) {
		stdout, _, err := execute(t, append([]string{"clean", "orders", "reviews"}, flags...)...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "orders")
		assert.Contains(t, stdout, "reviews")
		assert.NotContains(t, stdout, "geolocation")
	})

	t.Run("debug level tracks arrow memory", func(t *testing.T) {
		args := append([]string{"clean", "orders"}, flags...)
		args = append(args, "--log-level", "debug")
		_, stderr, err := execute(t, args...)
		require.NoError(t, err)
		assert.Contains(t, stderr, "arrow memory outstanding")
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, _, err := execute(t, append([]string{"clean", "refunds"}, flags...)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refunds")
	})

	t.Run("features before assemble", func(t *testing.T) {
		_, _, err := execute(t, append([]string{"features"}, flags...)...)
		require.Error(t, err)
	})

	t.Run("full sequence", func(t *testing.T) {
		for _, stage := range []string{"clean", "assemble", "features"} {
			_, stderr, err := execute(t, append([]string{stage}, flags...)...)
			require.NoError(t, err, "%s: %s", stage, stderr)
		}

		stdout, _, err := execute(t, append([]string{"validate"}, flags...)...)
		require.NoError(t, err, "findings alone never fail the command")
		assert.Contains(t, stdout, "TABLE")
		assert.Contains(t, stdout, "final_dataset_basic")
		assert.Contains(t, stdout, "FAIL")

		_, _, err = execute(t, append([]string{"validate", "--strict"}, flags...)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "data-quality checks failed")
	})

	t.Run("export needs a database", func(t *testing.T) {
		_, _, err := execute(t, append([]string{"export"}, flags...)...)
		require.Error(t, err)
	})
}

func TestConfigLayering(t *testing.T) {
	decode := func(t *testing.T, out string) config.Config {
		t.Helper()
		var cfg config.Config
		require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
		return cfg
	}

	t.Run("defaults", func(t *testing.T) {
		stdout, _, err := execute(t, "config")
		require.NoError(t, err)
		cfg := decode(t, stdout)
		assert.Equal(t, config.DefaultRawDir, cfg.RawDir)
		assert.Equal(t, uint64(config.DefaultSeed), cfg.Split.Seed)
		assert.Equal(t, config.DefaultInputs(), cfg.Inputs)
	})

	t.Run("file then env then flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reviewrisk.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
raw_dir: from-file
format: parquet
bad_review_threshold: 2
split:
  seed: 9
  test_fraction: 0.25
inputs:
  orders: orders.csv
`), 0o600))
		t.Setenv("REVIEWRISK_SPLIT_SEED", "11")
		t.Setenv("REVIEWRISK_FORMAT", "csv")

		stdout, _, err := execute(t, "config", "--config", path, "--format", "parquet", "--workers", "2")
		require.NoError(t, err)
		cfg := decode(t, stdout)

		assert.Equal(t, "from-file", cfg.RawDir)
		assert.Equal(t, "parquet", cfg.Format, "flag beats env")
		assert.Equal(t, uint64(11), cfg.Split.Seed, "env beats file")
		assert.InDelta(t, 0.25, cfg.Split.TestFraction, 1e-12)
		assert.Equal(t, 2, cfg.BadReviewThreshold)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, "orders.csv", cfg.Inputs[config.InputOrders])
		assert.Equal(t, config.DefaultInputs()[config.InputReviews], cfg.Inputs[config.InputReviews])
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reviewrisk.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"raw_dir": "from-json", "split": {"seed": 5}}`), 0o600))

		stdout, _, err := execute(t, "config", "--config", path)
		require.NoError(t, err)
		cfg := decode(t, stdout)

		assert.Equal(t, "from-json", cfg.RawDir)
		assert.Equal(t, uint64(5), cfg.Split.Seed)
		assert.Equal(t, config.DefaultProcessedDir, cfg.ProcessedDir)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, _, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, _, err := execute(t, "config", "--format", "xlsx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")

		_, _, err = execute(t, "config", "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "reviewrisk")
}
