//go:build pprof

package profile

import (
	"slices"
	"testing"
)

func TestModes(t *testing.T) {
	m := Modes()

	if !slices.IsSorted(m) {
		t.Errorf("Modes() not sorted: %v", m)
	}

	for _, want := range []string{"cpu", "heap", "trace"} {
		if !slices.Contains(m, want) {
			t.Errorf("Modes() = %v, missing %q", m, want)
		}
	}
}

func TestSettings(t *testing.T) {
	if s := settings("bogus", "", false); s != nil {
		t.Errorf("settings(bogus) = %d options, want none", len(s))
	}

	if n := len(settings("cpu", "", false)); n != 2 {
		t.Errorf("settings(cpu) = %d options, want 2", n)
	}

	if n := len(settings("cpu", t.TempDir(), true)); n != 4 {
		t.Errorf("settings(cpu, dir, quiet) = %d options, want 4", n)
	}
}
