package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultFile is the taskfile looked up when none is given.
const DefaultFile = "kiln.yaml"

// EnvPrefix prefixes every environment variable read into Settings.
const EnvPrefix = "KILN"

// Setting keys. They double as flag names.
const (
	KeyFile    = "file"
	KeyVerbose = "verbose"
	KeyDryRun  = "dry-run"

	KeyInteractive = "interactive"
)

// Settings are the runtime options of a kiln invocation.
type Settings struct {
	File    string
	Verbose bool
	DryRun  bool

	Interactive bool
}

// Options converts s to the options passed to every node of a run.
func (s Settings) Options() domain.ExecutionOptions {
	return domain.ExecutionOptions{Verbose: s.Verbose, DryRun: s.DryRun}
}

// LoadSettings resolves settings from flags, KILN_* environment variables and
// defaults, in that order of precedence. flags may be nil.
func LoadSettings(flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyFile, DefaultFile)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyInteractive, false)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Settings{}, zerr.Wrap(err, "failed to bind flags")
		}
	}

	return Settings{
		File:    v.GetString(KeyFile),
		Verbose: v.GetBool(KeyVerbose),
		DryRun:  v.GetBool(KeyDryRun),

		Interactive: v.GetBool(KeyInteractive),
	}, nil
}
