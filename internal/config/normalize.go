package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(firstNonEmpty(c.Paths.DataDir, defaultDataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(firstNonEmpty(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}

	c.Reconcile.SlugPrefix = strings.TrimSpace(c.Reconcile.SlugPrefix)
	if c.Reconcile.SlugPrefix == "" {
		c.Reconcile.SlugPrefix = defaultSlugPrefix
	}
	c.Reconcile.DecisionMode = strings.ToLower(strings.TrimSpace(c.Reconcile.DecisionMode))
	if c.Reconcile.DecisionMode == "" {
		c.Reconcile.DecisionMode = defaultDecisionMode
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
