package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// File is the optional TOML configuration file. Its values seed the
// defaults of command line flags; flags given explicitly win.
//
//	protocol = "tcp"
//	port = 5000
//	type = 7
//	timeout = "10s"
//	group = "232.45.103.96:2562"
//
//	[server]
//	public = true
//	info = "chat room"
//	max_pending = 16
type File struct {
	Protocol string   `toml:"protocol"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	TypeID   int32    `toml:"type"`
	Timeout  Duration `toml:"timeout"`
	Group    string   `toml:"group"`
	WireLog  string   `toml:"wirelog"`
	Verbose  bool     `toml:"verbose"`
	Metrics  string   `toml:"metrics"`

	Server FileServer `toml:"server"`
}

// FileServer is the [server] table of File.
type FileServer struct {
	Public     bool   `toml:"public"`
	Info       string `toml:"info"`
	MaxPending int    `toml:"max_pending"`
}

// Duration decodes TOML strings such as "500ms" or "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// LoadFile reads the TOML file at path. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("toml.DecodeFile(%s): %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	if f.Protocol != "" {
		if _, err := ParseProtocol(f.Protocol); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return &f, nil
}
