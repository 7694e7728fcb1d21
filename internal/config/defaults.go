package config

const (
	defaultDataDir      = "~/.local/share/authorfix"
	defaultLogDir       = "~/.local/share/authorfix/logs"
	defaultSlugPrefix   = "cap-"
	defaultDecisionMode = "auto"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Reconcile: Reconcile{
			SlugPrefix:   defaultSlugPrefix,
			DecisionMode: defaultDecisionMode,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
