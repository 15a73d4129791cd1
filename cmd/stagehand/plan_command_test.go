package main

import "testing"

const planTestDaemons = `
[[daemon]]
name = "xserver"
command = "/usr/bin/Xorg"
args = [":7"]
stage = "display"
required = true

[[daemon]]
name = "wm"
command = "openbox"
stage = "window-manager"

[[daemon]]
name = "panel"
command = "lxpanel"
stage = "panel"
`

func TestPlanRendersLaunchTable(t *testing.T) {
	env := setupCLITestEnv(t, planTestDaemons)

	out, _, err := runCLI(t, env.configPath, "plan")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	requireContains(t, out, env.runtimeDir)
	requireContains(t, out, "xserver")
	requireContains(t, out, "/usr/bin/Xorg :7")
	requireContains(t, out, "Window Manager")
	requireContains(t, out, "Panel")
	requireContains(t, out, "disabled")
}

func TestPlanWithEmptyLaunchTable(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env.configPath, "plan")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Launch table is empty")
}

func TestStageTitle(t *testing.T) {
	cases := map[string]string{
		"core":           "Core",
		"window-manager": "Window Manager",
		"panel":          "Panel",
	}
	for stage, want := range cases {
		if got := stageTitle(stage); got != want {
			t.Errorf("stageTitle(%q) = %q, want %q", stage, got, want)
		}
	}
}
