package config

import "fmt"

var knownDecisionModes = map[string]struct{}{
	"auto":        {},
	"interactive": {},
}

var knownLogFormats = map[string]struct{}{
	"console": {},
	"text":    {},
	"json":    {},
}

var knownLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks that configured values form a usable configuration.
func (c *Config) Validate() error {
	if _, ok := knownDecisionModes[c.Reconcile.DecisionMode]; !ok {
		return fmt.Errorf("reconcile.decision_mode: unsupported value %q (use auto or interactive)", c.Reconcile.DecisionMode)
	}
	if _, ok := knownLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, ok := knownLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
