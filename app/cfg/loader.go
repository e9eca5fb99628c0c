package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	Profile     string `short:"p" long:"profile" env:"CHROMESIFT_PROFILE" default:"Default" description:"Chrome profile name or display name"`
	PatternFile string `long:"config" env:"CHROMESIFT_CONFIG" description:"YAML file with named pattern sets merged into the selection"`
	LogLevel    string `long:"log-level" env:"CHROMESIFT_LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	Debug       bool   `long:"debug" env:"CHROMESIFT_DEBUG" description:"Enable debug logging"`
}

// Load parses flags and environment into a Cfg. It returns (nil, nil)
// when help was shown.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg
	var analyze AnalyzeCmd
	var export ExportCmd
	var merge MergeCmd
	var profiles ProfilesCmd

	parser := flags.NewParser(&raw, flags.Default)
	parser.SubcommandsOptional = false

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	_, err := parser.AddCommand("analyze", "Show a usage report",
		"Correlate bookmarks with history and print the ranked result.", &analyze)
	must(err)
	_, err = parser.AddCommand("export", "Export profile data for migration",
		"Write a selective bookmark file and ranked site lists.", &export)
	must(err)
	_, err = parser.AddCommand("merge-history", "Merge one profile's history into another",
		"Combine two history stores; the browser must be closed for the commit.", &merge)
	must(err)
	_, err = parser.AddCommand("profiles", "List available Chrome profiles", "", &profiles)
	must(err)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Profile:     raw.Profile,
		PatternFile: raw.PatternFile,
		LogLevel:    raw.LogLevel,
		Debug:       raw.Debug,
		Version:     GetVersion(),
		Analyze:     analyze,
		Export:      export,
		Merge:       merge,
		Profiles:    profiles,
	}
	if active := parser.Active; active != nil {
		cfg.Command = active.Name
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
