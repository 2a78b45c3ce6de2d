// Package config provides configuration loading and defaults for healthsync.
package config

import "time"

// DefaultWorkspace is the workspace root used when neither the config file
// nor --workspace names one. Empty means the current working directory.
const DefaultWorkspace = ""

// DefaultArtifactDir is where the analysis pipeline writes its JSON
// artifacts, relative to the workspace root.
const DefaultArtifactDir = ".healthsync"

// DefaultConfigDir is the default location for healthsync configuration.
const DefaultConfigDir = "~/.config/healthsync"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "healthsync.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultEnvPrefix prefixes environment variable overrides.
const DefaultEnvPrefix = "HEALTHSYNC"

// DefaultDebounce is the quiet period after the last source save before a
// scan is dispatched.
const DefaultDebounce = 2 * time.Second

// DefaultPipeline holds the default external pipeline invocation.
var DefaultPipeline = Pipeline{
	Command:      "health-pipeline",
	Args:         []string{"scan"},
	SecurityArgs: []string{"security"},
}

// DefaultTimeouts holds the default scan timeouts.
var DefaultTimeouts = Timeouts{
	General:  60 * time.Second,
	Security: 120 * time.Second,
}

// DefaultWeights holds the default score penalties.
var DefaultWeights = Weights{
	LintError:       2,
	LintWarning:     0.5,
	TypeError:       3,
	SecurityHigh:    10,
	SecurityMedium:  5,
	TestFailed:      5,
	CoverageTarget:  70,
	CoveragePenalty: 1,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultNotify holds the default notification preferences.
var DefaultNotify = Notify{
	Desktop: true,
}
