package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level healthsync configuration.
type Config struct {
	Workspace   string        `mapstructure:"workspace"`
	ArtifactDir string        `mapstructure:"artifact_dir"`
	Debounce    time.Duration `mapstructure:"debounce"`
	Pipeline    Pipeline      `mapstructure:"pipeline"`
	Timeouts    Timeouts      `mapstructure:"timeouts"`
	Weights     Weights       `mapstructure:"weights"`
	Output      Output        `mapstructure:"output"`
	Notify      Notify        `mapstructure:"notify"`
}

// Pipeline describes how the external analysis pipeline is invoked. The
// workspace root and output directory are appended to the argument list.
type Pipeline struct {
	Command      string   `mapstructure:"command"`
	Args         []string `mapstructure:"args"`
	SecurityArgs []string `mapstructure:"security_args"`
}

// Timeouts bounds each kind of scan.
type Timeouts struct {
	General  time.Duration `mapstructure:"general"`
	Security time.Duration `mapstructure:"security"`
}

// Weights defines the penalties subtracted from 100 when no explicit score
// is present in the health artifact.
type Weights struct {
	LintError       float64 `mapstructure:"lint_error"`
	LintWarning     float64 `mapstructure:"lint_warning"`
	TypeError       float64 `mapstructure:"type_error"`
	SecurityHigh    float64 `mapstructure:"security_high"`
	SecurityMedium  float64 `mapstructure:"security_medium"`
	TestFailed      float64 `mapstructure:"test_failed"`
	CoverageTarget  float64 `mapstructure:"coverage_target"`
	CoveragePenalty float64 `mapstructure:"coverage_penalty"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Notify defines how process failures are surfaced.
type Notify struct {
	Desktop bool `mapstructure:"desktop"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("workspace", DefaultWorkspace)
	v.SetDefault("artifact_dir", DefaultArtifactDir)
	v.SetDefault("debounce", DefaultDebounce)
	v.SetDefault("pipeline.command", DefaultPipeline.Command)
	v.SetDefault("pipeline.args", DefaultPipeline.Args)
	v.SetDefault("pipeline.security_args", DefaultPipeline.SecurityArgs)
	v.SetDefault("timeouts.general", DefaultTimeouts.General)
	v.SetDefault("timeouts.security", DefaultTimeouts.Security)
	v.SetDefault("weights.lint_error", DefaultWeights.LintError)
	v.SetDefault("weights.lint_warning", DefaultWeights.LintWarning)
	v.SetDefault("weights.type_error", DefaultWeights.TypeError)
	v.SetDefault("weights.security_high", DefaultWeights.SecurityHigh)
	v.SetDefault("weights.security_medium", DefaultWeights.SecurityMedium)
	v.SetDefault("weights.test_failed", DefaultWeights.TestFailed)
	v.SetDefault("weights.coverage_target", DefaultWeights.CoverageTarget)
	v.SetDefault("weights.coverage_penalty", DefaultWeights.CoveragePenalty)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("notify.desktop", DefaultNotify.Desktop)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Workspace = expandPath(cfg.Workspace)

	return &cfg, nil
}

// WorkspaceRoot resolves the configured workspace to an absolute path,
// falling back to the current directory when none is configured.
func (c *Config) WorkspaceRoot() (string, error) {
	root := c.Workspace
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	return filepath.Abs(root)
}

// ArtifactPath returns the absolute artifact directory for the given
// workspace root.
func (c *Config) ArtifactPath(root string) string {
	if filepath.IsAbs(c.ArtifactDir) {
		return c.ArtifactDir
	}
	return filepath.Join(root, c.ArtifactDir)
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
