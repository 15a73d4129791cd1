package runtimedir

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"stagehand/internal/logging"
)

const probeName = ".stagehand-probe"

// probe is a seam so tests can simulate an unwritable primary without
// depending on filesystem permissions (which root ignores).
var probe = writeProbe

// Select returns a writable runtime directory, preferring primary. The
// primary is created, probed with a zero-byte write, and restricted to
// owner-only permissions. On any failure the fallback is created and
// returned without a probe; it is assumed writable.
func Select(primary, fallback string, logger *slog.Logger) (string, error) {
	log := logging.NewComponentLogger(logger, "runtimedir")

	if err := tryPrimary(primary); err != nil {
		log.Warn("primary runtime directory unusable, using fallback",
			logging.String("primary", primary),
			logging.String("fallback", fallback),
			logging.Error(err),
		)
		if mkErr := os.MkdirAll(fallback, 0o700); mkErr != nil {
			return "", fmt.Errorf("create fallback runtime directory %q: %w", fallback, mkErr)
		}
		return fallback, nil
	}

	log.Info("runtime directory selected", logging.String("path", primary))
	return primary, nil
}

func tryPrimary(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := probe(dir); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	// MkdirAll leaves pre-existing directories untouched; enforce
	// owner-only access regardless.
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("restrict permissions: %w", err)
	}
	return nil
}

func writeProbe(dir string) error {
	path := filepath.Join(dir, probeName)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		return err
	}
	return os.Remove(path)
}
