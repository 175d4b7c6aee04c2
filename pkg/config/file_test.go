package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lannet.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
protocol = "ws"
port = 5000
type = 7
timeout = "250ms"
group = "239.9.9.9:2000"

[server]
public = true
info = "room"
max_pending = 3
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if f.Protocol != "ws" || f.Port != 5000 || f.TypeID != 7 {
		t.Errorf("LoadFile() = %+v", f)
	}
	if f.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", f.Timeout.Duration)
	}
	if f.Group != "239.9.9.9:2000" {
		t.Errorf("Group = %q", f.Group)
	}
	if !f.Server.Public || f.Server.Info != "room" || f.Server.MaxPending != 3 {
		t.Errorf("Server = %+v", f.Server)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"syntax error", "port = "},
		{"unknown key", "colour = \"red\""},
		{"bad duration", "timeout = \"soon\""},
		{"bad protocol", "protocol = \"smtp\""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadFile(writeFile(t, tc.content)); err == nil {
				t.Errorf("LoadFile(%q) error = nil", tc.content)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("LoadFile() error = nil for missing file")
	}
}
