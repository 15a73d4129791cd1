package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDeviceNodes(); err != nil {
		return err
	}
	if err := c.validateDaemons(); err != nil {
		return err
	}
	if err := c.validateReadiness(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.RuntimeDir == c.Paths.RuntimeFallbackDir {
		return errors.New("paths.runtime_fallback_dir must differ from paths.runtime_dir")
	}
	return nil
}

func (c *Config) validateDeviceNodes() error {
	seen := make(map[string]struct{}, len(c.DeviceNodes))
	for i, node := range c.DeviceNodes {
		if strings.TrimSpace(node.Path) == "" {
			return fmt.Errorf("device_node[%d].path must be set", i)
		}
		if _, dup := seen[node.Path]; dup {
			return fmt.Errorf("device_node path %q listed twice", node.Path)
		}
		seen[node.Path] = struct{}{}
		switch node.Type {
		case "char", "block":
		default:
			return fmt.Errorf("device_node %q: type must be \"char\" or \"block\", got %q", node.Path, node.Type)
		}
		if node.Mode == 0 {
			return fmt.Errorf("device_node %q: mode must be set", node.Path)
		}
		if node.Mode > 0o777 {
			return fmt.Errorf("device_node %q: mode %o exceeds permission bits", node.Path, node.Mode)
		}
	}
	return nil
}

func (c *Config) validateDaemons() error {
	validStages := make(map[string]struct{})
	for _, stage := range Stages() {
		validStages[stage] = struct{}{}
	}
	names := make(map[string]struct{}, len(c.Daemons))
	for i, d := range c.Daemons {
		if d.Name == "" {
			return fmt.Errorf("daemon[%d].name must be set", i)
		}
		if _, dup := names[d.Name]; dup {
			return fmt.Errorf("daemon name %q listed twice", d.Name)
		}
		names[d.Name] = struct{}{}
		if d.Command == "" {
			return fmt.Errorf("daemon %q: command must be set", d.Name)
		}
		if _, ok := validStages[d.Stage]; !ok {
			return fmt.Errorf("daemon %q: stage must be one of %s, got %q", d.Name, strings.Join(Stages(), ", "), d.Stage)
		}
	}
	return nil
}

func (c *Config) validateReadiness() error {
	switch c.Readiness.Probe {
	case "socket", "none":
	case "command":
		if c.Readiness.Command == "" {
			return errors.New("readiness.command must be set when readiness.probe is \"command\"")
		}
	default:
		return fmt.Errorf("readiness.probe must be \"socket\", \"command\", or \"none\", got %q", c.Readiness.Probe)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.Locale != "" {
		if _, err := language.Parse(c.Session.Locale); err != nil {
			return fmt.Errorf("session.locale: unrecognized tag %q", c.Session.Locale)
		}
	}
	for key := range c.Session.Env {
		if strings.TrimSpace(key) == "" {
			return errors.New("session.env contains an empty variable name")
		}
		if strings.Contains(key, "=") {
			return fmt.Errorf("session.env variable name %q must not contain '='", key)
		}
	}
	return nil
}
