package config

const (
	defaultRuntimeDir         = "/run/stagehand"
	defaultRuntimeFallbackDir = "/tmp/stagehand"
	defaultLogDir             = "~/.local/share/stagehand/logs"
	defaultDisplay            = ":0"
	defaultLocale             = "en-US"
	defaultReadinessProbe     = "socket"
	defaultReadinessSocket    = "/tmp/.X11-unix/X0"
	defaultReadinessInterval  = 500
	defaultReadinessAttempts  = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RuntimeDir:         defaultRuntimeDir,
			RuntimeFallbackDir: defaultRuntimeFallbackDir,
			LogDir:             defaultLogDir,
		},
		Readiness: Readiness{
			Probe:       defaultReadinessProbe,
			SocketPath:  defaultReadinessSocket,
			IntervalMS:  defaultReadinessInterval,
			MaxAttempts: defaultReadinessAttempts,
		},
		Session: Session{
			Display: defaultDisplay,
			Locale:  defaultLocale,
		},
		Hotplug: Hotplug{
			Subsystems: []string{"input"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
