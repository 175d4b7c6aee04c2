// Package code provides the code command, which converts between addresses
// and join codes.
package code

import (
	"context"
	"dominicbreuker/lannet/pkg/joincode"
	"fmt"
	"net"
	"strconv"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the code command with its encode and decode
// subcommands.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "code",
		Usage: "Convert between IPv4 addresses and join codes",
		Commands: []*cli.Command{
			{
				Name:      "encode",
				Usage:     "Print the join code of an address",
				ArgsUsage: "ip:port",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					code, err := encode(cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(code)
					return nil
				},
			},
			{
				Name:      "decode",
				Usage:     "Print the address of a join code",
				ArgsUsage: "code",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					addr, err := joincode.Decode(cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(addr)
					return nil
				},
			},
		},
	}
}

func encode(s string) (string, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", fmt.Errorf("net.SplitHostPort(%q): %w", s, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("%q is not an IP address", host)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid port %q", portStr)
	}
	return joincode.Encode(ip, port)
}
