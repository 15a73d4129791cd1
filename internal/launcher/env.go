package launcher

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"stagehand/internal/config"
)

// BuildEnvironment composes the environment handed to every daemon: the
// parent environment, overlaid with variables from the session's env file
// (when configured), overlaid with the session settings themselves. Session
// settings win so a stale env file cannot change the display the sequencer
// gated on.
func BuildEnvironment(session config.Session, runtimeDir string) ([]string, error) {
	merged := map[string]string{}
	for _, entry := range os.Environ() {
		if key, value, ok := strings.Cut(entry, "="); ok {
			merged[key] = value
		}
	}

	if session.EnvFile != "" {
		fromFile, err := godotenv.Read(session.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("read session env file %q: %w", session.EnvFile, err)
		}
		for key, value := range fromFile {
			merged[key] = value
		}
	}

	for key, value := range session.Env {
		merged[key] = value
	}

	if session.Display != "" {
		merged["DISPLAY"] = session.Display
	}
	if session.Locale != "" {
		merged["LANG"] = localeEnvValue(session.Locale)
	}
	if session.Theme != "" {
		merged["GTK_THEME"] = session.Theme
	}
	if session.ModulePath != "" {
		merged["XDG_DATA_DIRS"] = prependPathList(session.ModulePath, merged["XDG_DATA_DIRS"])
	}
	if runtimeDir != "" {
		merged["XDG_RUNTIME_DIR"] = runtimeDir
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+merged[key])
	}
	return env, nil
}

// localeEnvValue converts a BCP 47 tag ("en-US") into the POSIX form
// ("en_US.UTF-8") daemons expect in LANG.
func localeEnvValue(locale string) string {
	value := strings.ReplaceAll(locale, "-", "_")
	if !strings.Contains(value, ".") {
		value += ".UTF-8"
	}
	return value
}

func prependPathList(head, rest string) string {
	if rest == "" {
		return head
	}
	return head + string(os.PathListSeparator) + rest
}
