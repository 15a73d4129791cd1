package runtimedir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stagehand/internal/logging"
)

func TestSelectPrefersWritablePrimary(t *testing.T) {
	base := t.TempDir()
	primary := filepath.Join(base, "run")
	fallback := filepath.Join(base, "fallback")

	got, err := Select(primary, fallback, logging.NewNop())
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got != primary {
		t.Fatalf("expected primary %q, got %q", primary, got)
	}

	info, err := os.Stat(primary)
	if err != nil {
		t.Fatalf("primary missing: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("expected owner-only permissions, got %o", info.Mode().Perm())
	}

	// Probe artifact removed after verification.
	if _, err := os.Stat(filepath.Join(primary, probeName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected probe artifact to be gone, got %v", err)
	}

	if _, err := os.Stat(fallback); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("fallback should not be created when primary succeeds")
	}
}

func TestSelectFallsBackWhenPrimaryNotCreatable(t *testing.T) {
	base := t.TempDir()
	// A regular file where the primary's parent should be makes MkdirAll
	// fail regardless of the caller's privileges.
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	primary := filepath.Join(blocker, "run")
	fallback := filepath.Join(base, "fallback")

	got, err := Select(primary, fallback, logging.NewNop())
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got != fallback {
		t.Fatalf("expected fallback %q, got %q", fallback, got)
	}
	if info, err := os.Stat(fallback); err != nil || !info.IsDir() {
		t.Fatalf("fallback should exist as a directory: %v", err)
	}
}

func TestSelectFallsBackWhenProbeWriteFails(t *testing.T) {
	base := t.TempDir()
	primary := filepath.Join(base, "run")
	fallback := filepath.Join(base, "fallback")

	orig := probe
	probe = func(string) error { return errors.New("read-only filesystem") }
	t.Cleanup(func() { probe = orig })

	got, err := Select(primary, fallback, logging.NewNop())
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got != fallback {
		t.Fatalf("expected fallback on probe failure, got %q", got)
	}
}

func TestSelectErrorsOnlyWhenBothCandidatesFail(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	primary := filepath.Join(blocker, "run")
	fallback := filepath.Join(blocker, "fallback")

	if _, err := Select(primary, fallback, logging.NewNop()); err == nil {
		t.Fatal("expected error when fallback is also unusable")
	}
}

func TestAcquireIsExclusivePerDirectory(t *testing.T) {
	dir := t.TempDir()

	claim, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if claim.SessionID == "" {
		t.Fatal("expected a session id")
	}

	data, err := os.ReadFile(filepath.Join(dir, sessionName))
	if err != nil {
		t.Fatalf("session record missing: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("session record empty")
	}

	if err := claim.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, sessionName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected session record removed after release")
	}

	// Reclaimable after release.
	second, err := Acquire(dir)
	if err != nil {
		t.Fatalf("expected reclaim after release, got %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
}

func TestReleaseNilClaimIsSafe(t *testing.T) {
	var claim *Claim
	if err := claim.Release(); err != nil {
		t.Fatalf("nil release should be a no-op, got %v", err)
	}
}
