package search

import "testing"

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()

	if cmd.Name != "search" {
		t.Errorf("command name = %q; want %q", cmd.Name, "search")
	}
	if cmd.Action == nil {
		t.Error("command action should not be nil")
	}
}

var expectedFlags = []string{"config", "type", "group", "wait"}

func TestGetFlags(t *testing.T) {
	t.Parallel()

	names := make(map[string]bool)
	for _, flag := range getFlags() {
		if n := flag.Names(); len(n) > 0 {
			names[n[0]] = true
		}
	}

	for _, want := range expectedFlags {
		if !names[want] {
			t.Errorf("expected flag %q not found", want)
		}
	}
}
