package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// envPrefix namespaces environment overrides, e.g. REVIEWRISK_SPLIT_SEED.
const envPrefix = "REVIEWRISK"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     *slog.Logger
	mem     *memory.CheckedAllocator // set at debug level

	progress bool
	strict   bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "reviewrisk",
		Short: "Build review-risk features from the Olist e-commerce dataset",
		Long: `reviewrisk cleans the raw Olist tables, assembles one row per order,
builds a leakage-free train/test feature matrix for predicting bad reviews
and checks every artifact against data-quality rules.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
		PersistentPostRun: a.reportMemory,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML or JSON config file (default: ./"+defaultConfigFile+" when present)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	flags.String("raw-dir", "", "directory holding the raw CSV inputs")
	flags.String("processed-dir", "", "directory for cleaned tables")
	flags.String("output-dir", "", "directory for master tables and the run manifest")
	flags.String("model-dir", "", "directory for modeling artifacts")
	flags.String("format", "", "table format (csv, parquet)")
	flags.Int("workers", 0, "concurrent cleaners (0 = one per CPU)")
	flags.String("sqlite", "", "SQLite database to export into")
	flags.BoolVar(&a.progress, "progress", true, "show a progress bar on stderr")

	for key, flag := range map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"raw_dir":        "raw-dir",
		"processed_dir":  "processed-dir",
		"output_dir":     "output-dir",
		"model_dir":      "model-dir",
		"format":         "format",
		"workers":        "workers",
		"sqlite_path":    "sqlite",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.cleanCmd(),
		a.assembleCmd(),
		a.featuresCmd(),
		a.validateCmd(),
		a.exportCmd(),
		a.runCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// defaultConfigFile is read from the working directory when --config is unset.
const defaultConfigFile = "reviewrisk.yaml"

// initConfig layers defaults, the config file, REVIEWRISK_* variables and
// flags into a.cfg, then installs the logger.
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	defaults, err := settingsOf(config.NewConfig())
	if err != nil {
		return err
	}
	setDefaults(a.v, "", defaults)

	path := a.cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		fileCfg, err := config.LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		settings, err := settingsOf(fileCfg)
		if err != nil {
			return err
		}
		if err := a.v.MergeConfigMap(settings); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	var cfg config.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	a.cfg = cfg.WithDefaults()
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := setupLogging(cmd.ErrOrStderr(), a.cfg.Logging)
	if err != nil {
		return err
	}
	a.log = logger
	slog.SetDefault(logger)
	return nil
}

// reportMemory logs the Arrow bytes still held once a command finishes.
func (a *app) reportMemory(*cobra.Command, []string) {
	if a.mem == nil {
		return
	}
	a.log.Debug("arrow memory outstanding", "bytes", a.mem.CurrentAlloc())
}

// settingsOf renders cfg as the nested key map viper works with.
func settingsOf(cfg config.Config) (map[string]any, error) {
	data, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// setDefaults registers every leaf of tree as a viper default so that
// AutomaticEnv can see nested keys such as split.seed.
func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := val.(map[string]any); ok {
			setDefaults(v, key, child)
			continue
		}
		v.SetDefault(key, val)
	}
}

func setupLogging(w io.Writer, lc config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", lc.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch lc.Format {
	case "console":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", lc.Format)
	}
	return slog.New(handler), nil
}
