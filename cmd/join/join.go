// Package join provides the join command, which connects to a chat room by
// transport address or join code.
package join

import (
	"context"
	"dominicbreuker/lannet/cmd/shared"
	"dominicbreuker/lannet/pkg/chat"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/format"
	"dominicbreuker/lannet/pkg/hub"
	"dominicbreuker/lannet/pkg/log"
	"dominicbreuker/lannet/pkg/pipeio"
	"dominicbreuker/lannet/pkg/terminal"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the join command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "join",
		Usage:       "Join a chat room",
		Description: shared.GetBaseDescription() + "\nInstead of a transport you can give a join code.",
		ArgsUsage:   "transport|code",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := shared.Load(cmd)
			if err != nil {
				return err
			}

			target := cmd.Args().First()
			if target == "" {
				return shared.CheckErrors([]error{errors.New("a transport or join code is required")})
			}

			code := ""
			if shared.IsTransport(target) {
				if err := s.ApplyTransport(target); err != nil {
					return shared.CheckErrors([]error{err})
				}
				if err := shared.CheckErrors(append(s.Shared.Validate(), config.ValidateJoin(s.Shared)...)); err != nil {
					return err
				}
			} else {
				code = target
				if err := shared.CheckErrors(s.Shared.Validate()); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			return run(ctx, s, code)
		},
		Flags: getFlags(),
	}
}

func run(ctx context.Context, s *shared.Settings, code string) error {
	rt := s.NewRuntime(ctx)
	defer func() {
		rt.Shutdown()
		<-rt.Done()
	}()

	h := chat.NewClient(os.Stdout)
	c, err := hub.NewClient(rt, h, s.Shared)
	if err != nil {
		return fmt.Errorf("hub.NewClient(): %w", err)
	}
	defer c.Close()

	if code != "" {
		log.InfoMsg("Joining with code %s\n", code)
		err = c.JoinCode(ctx, code)
	} else {
		addr := format.Addr(s.Shared.Host, s.Shared.Port)
		log.InfoMsg("Joining %s\n", addr)
		err = c.JoinServer(ctx, addr)
	}
	if err != nil {
		return fmt.Errorf("joining: %w", err)
	}
	log.InfoMsg("Joined, type a line to send it\n")

	lineCtx, stopLines := context.WithCancel(ctx)
	defer stopLines()
	go func() {
		select {
		case <-h.Left():
			stopLines()
		case <-lineCtx.Done():
		}
	}()

	stdio := pipeio.NewStdio(nil, nil)
	prompt := terminal.Prompt(os.Stdin)
	err = pipeio.Lines(lineCtx, stdio, func(line string) error {
		if line != "" {
			if err := c.Send(line); err != nil {
				return fmt.Errorf("sending: %w", err)
			}
		}
		if prompt != "" {
			fmt.Fprint(os.Stdout, prompt)
		}
		return nil
	})
	if err != nil && lineCtx.Err() == nil {
		return err
	}

	if c.InServer() {
		if err := c.LeaveServer(); err != nil && !errors.Is(err, hub.ErrConnectionClosed) {
			s.Shared.Logger.VerboseMsg("leaving: %s", err)
		}
	}
	return nil
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetClientFlags()...)

	return flags
}
