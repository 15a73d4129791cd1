package readiness_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stagehand/internal/config"
	"stagehand/internal/readiness"
)

func TestAwaitSucceedsOnExactAttempt(t *testing.T) {
	invocations := 0
	check := func() bool {
		invocations++
		return invocations == 5
	}

	ok := readiness.Await(context.Background(), check, time.Millisecond, 10)
	if !ok {
		t.Fatal("expected success")
	}
	if invocations != 5 {
		t.Fatalf("expected exactly 5 invocations, got %d", invocations)
	}
}

func TestAwaitImmediateSuccessSkipsSleep(t *testing.T) {
	start := time.Now()
	ok := readiness.Await(context.Background(), func() bool { return true }, time.Second, 3)
	if !ok {
		t.Fatal("expected success")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("immediate success should not sleep, took %v", elapsed)
	}
}

func TestAwaitIsBoundedWhenConditionNeverHolds(t *testing.T) {
	const (
		interval    = 10 * time.Millisecond
		maxAttempts = 5
	)
	invocations := 0
	start := time.Now()
	ok := readiness.Await(context.Background(), func() bool {
		invocations++
		return false
	}, interval, maxAttempts)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected failure")
	}
	if invocations != maxAttempts {
		t.Fatalf("expected %d invocations, got %d", maxAttempts, invocations)
	}
	// Generous ceiling; the contract is interval times maxAttempts.
	if elapsed > time.Duration(maxAttempts)*interval+time.Second {
		t.Fatalf("wait exceeded budget: %v", elapsed)
	}
}

func TestAwaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := readiness.Await(ctx, func() bool { return false }, time.Hour, 100)
	if ok {
		t.Fatal("expected failure on cancelled context")
	}
}

func TestAwaitRejectsDegenerateInputs(t *testing.T) {
	if readiness.Await(context.Background(), nil, time.Millisecond, 3) {
		t.Fatal("nil check must fail")
	}
	if readiness.Await(context.Background(), func() bool { return true }, time.Millisecond, 0) {
		t.Fatal("zero attempts must fail")
	}
}

func TestSocketProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "X0")

	check := readiness.SocketProbe(path)
	if check() {
		t.Fatal("probe should fail before the socket exists")
	}
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("create socket stand-in: %v", err)
	}
	if !check() {
		t.Fatal("probe should succeed once the path exists")
	}
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()
	if check := readiness.FromConfig(ctx, config.Readiness{Probe: "none"}); check != nil {
		t.Fatal("none probe should return nil")
	}
	if check := readiness.FromConfig(ctx, config.Readiness{Probe: "socket", SocketPath: "/nonexistent"}); check == nil {
		t.Fatal("socket probe should not be nil")
	} else if check() {
		t.Fatal("socket probe for missing path should fail")
	}
}
