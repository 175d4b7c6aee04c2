// Package search provides the search command, which lists the public
// servers of a type on the LAN.
package search

import (
	"context"
	"dominicbreuker/lannet/cmd/shared"
	"dominicbreuker/lannet/pkg/chat"
	"dominicbreuker/lannet/pkg/hub"
	"dominicbreuker/lannet/pkg/log"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

// WaitFlag is the name of the flag bounding how long replies are collected.
const WaitFlag = "wait"

// GetCommand returns the search command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the LAN for public servers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := shared.Load(cmd)
			if err != nil {
				return err
			}
			if err := shared.CheckErrors(s.Shared.Validate()); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration(WaitFlag))
			defer cancel()
			shared.SetupSignalHandling(cancel)

			n, err := run(ctx, s)
			if err != nil {
				return err
			}
			log.InfoMsg("%d server(s) found\n", n)
			return nil
		},
		Flags: getFlags(),
	}
}

// run probes once and prints replies until ctx is done. It returns the
// number of servers found.
func run(ctx context.Context, s *shared.Settings) (int, error) {
	rt := s.NewRuntime(ctx)
	defer func() {
		rt.Shutdown()
		<-rt.Done()
	}()

	h := chat.NewClient(os.Stdout)
	c, err := hub.NewClient(rt, h, s.Shared)
	if err != nil {
		return 0, fmt.Errorf("hub.NewClient(): %w", err)
	}
	defer c.Close()

	if err := c.Search(); err != nil {
		return 0, fmt.Errorf("searching: %w", err)
	}

	<-ctx.Done()
	return len(h.Servers()), nil
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, &cli.DurationFlag{
		Name:     WaitFlag,
		Aliases:  []string{"w"},
		Usage:    "How long to collect replies",
		Value:    2 * time.Second,
		Required: false,
	})

	return flags
}
