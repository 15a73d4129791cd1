package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSession(); err != nil {
		return err
	}
	c.normalizeDaemons()
	c.normalizeReadiness()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RuntimeDir) == "" {
		c.Paths.RuntimeDir = defaultRuntimeDir
	}
	if c.Paths.RuntimeDir, err = expandPath(c.Paths.RuntimeDir); err != nil {
		return fmt.Errorf("paths.runtime_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RuntimeFallbackDir) == "" {
		c.Paths.RuntimeFallbackDir = defaultRuntimeFallbackDir
	}
	if c.Paths.RuntimeFallbackDir, err = expandPath(c.Paths.RuntimeFallbackDir); err != nil {
		return fmt.Errorf("paths.runtime_fallback_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() error {
	c.Session.Display = strings.TrimSpace(c.Session.Display)
	if c.Session.Display == "" {
		if value, ok := os.LookupEnv("DISPLAY"); ok && strings.TrimSpace(value) != "" {
			c.Session.Display = strings.TrimSpace(value)
		} else {
			c.Session.Display = defaultDisplay
		}
	}
	c.Session.Locale = strings.TrimSpace(c.Session.Locale)
	if c.Session.Locale == "" {
		c.Session.Locale = defaultLocale
	}
	c.Session.Theme = strings.TrimSpace(c.Session.Theme)
	c.Session.ModulePath = strings.TrimSpace(c.Session.ModulePath)
	if c.Session.EnvFile != "" {
		expanded, err := expandPath(c.Session.EnvFile)
		if err != nil {
			return fmt.Errorf("session.env_file: %w", err)
		}
		c.Session.EnvFile = expanded
	}
	return nil
}

func (c *Config) normalizeDaemons() {
	for i := range c.Daemons {
		c.Daemons[i].Name = strings.TrimSpace(c.Daemons[i].Name)
		c.Daemons[i].Command = strings.TrimSpace(c.Daemons[i].Command)
		c.Daemons[i].Stage = strings.ToLower(strings.TrimSpace(c.Daemons[i].Stage))
	}
}

func (c *Config) normalizeReadiness() {
	c.Readiness.Probe = strings.ToLower(strings.TrimSpace(c.Readiness.Probe))
	if c.Readiness.Probe == "" {
		c.Readiness.Probe = defaultReadinessProbe
	}
	c.Readiness.SocketPath = strings.TrimSpace(c.Readiness.SocketPath)
	if c.Readiness.SocketPath == "" {
		c.Readiness.SocketPath = defaultReadinessSocket
	}
	c.Readiness.Command = strings.TrimSpace(c.Readiness.Command)
	if c.Readiness.IntervalMS <= 0 {
		c.Readiness.IntervalMS = defaultReadinessInterval
	}
	if c.Readiness.MaxAttempts <= 0 {
		c.Readiness.MaxAttempts = defaultReadinessAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
