package code

import (
	"dominicbreuker/lannet/pkg/joincode"
	"testing"
)

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()

	if cmd.Name != "code" {
		t.Errorf("command name = %q; want %q", cmd.Name, "code")
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands {
		names[sub.Name] = sub.Action != nil
	}
	for _, want := range []string{"encode", "decode"} {
		if !names[want] {
			t.Errorf("subcommand %q missing or without action", want)
		}
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		err   bool
	}{
		{input: "192.168.1.20:5000"},
		{input: "10.0.0.1:0"},
		{input: "192.168.1.20", err: true},
		{input: "example.com:80", err: true},
		{input: "192.168.1.20:http", err: true},
		{input: "[::1]:80", err: true},
		{input: "1.2.3.4:70000", err: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			code, err := encode(tt.input)
			if (err != nil) != tt.err {
				t.Fatalf("encode(%q) error = %v, want error %t", tt.input, err, tt.err)
			}
			if tt.err {
				return
			}

			addr, err := joincode.Decode(code)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", code, err)
			}
			if addr.String() != tt.input {
				t.Errorf("Decode(encode(%q)) = %s", tt.input, addr)
			}
		})
	}
}
