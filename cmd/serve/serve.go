// Package serve provides the serve command, which hosts a chat room that
// clients join by address, join code or LAN search.
package serve

import (
	"context"
	"dominicbreuker/lannet/cmd/shared"
	"dominicbreuker/lannet/pkg/chat"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/hub"
	"dominicbreuker/lannet/pkg/log"
	"dominicbreuker/lannet/pkg/pipeio"
	"dominicbreuker/lannet/pkg/terminal"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// EchoFlag is the name of the flag that sends members their own lines back.
const EchoFlag = "echo"

// GetCommand returns the serve command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Host a chat room",
		Description: shared.GetBaseDescription(),
		ArgsUsage:   shared.GetArgsUsage(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := shared.Load(cmd)
			if err != nil {
				return err
			}

			transport := cmd.Args().First()
			if transport == "" {
				transport = fmt.Sprintf("%s://*:%d", s.Shared.Protocol, s.Shared.Port)
			}
			if err := s.ApplyTransport(transport); err != nil {
				return shared.CheckErrors([]error{err})
			}

			if err := shared.CheckErrors(config.Validate(s.Shared, s.Server)); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			return run(ctx, s, cmd.Bool(EchoFlag))
		},
		Flags: getFlags(),
	}
}

func run(ctx context.Context, s *shared.Settings, echo bool) error {
	rt := s.NewRuntime(ctx)
	defer func() {
		rt.Shutdown()
		<-rt.Done()
	}()

	h := chat.NewServer(s.Server.Info, echo, os.Stdout, s.Shared.Logger)
	srv := hub.NewServer(rt, h, s.Shared, s.Server)
	h.Attach(srv)

	if err := srv.Open(); err != nil {
		return fmt.Errorf("opening server: %w", err)
	}
	defer srv.Close()

	log.InfoMsg("Serving on %s (type %d)\n", srv.Addr(), s.Shared.TypeID)
	if code, err := srv.JoinCode(); err == nil {
		log.InfoMsg("Join code: %s\n", code)
	} else {
		s.Shared.Logger.VerboseMsg("no join code: %s", err)
	}
	if s.Server.Public {
		log.InfoMsg("Answering LAN searches\n")
	}

	stdio := pipeio.NewStdio(nil, nil)
	prompt := terminal.Prompt(os.Stdin)
	err := pipeio.Lines(ctx, stdio, func(line string) error {
		if line != "" {
			h.Say(line)
		}
		if prompt != "" {
			fmt.Fprint(os.Stdout, prompt)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	// stdin closed; keep serving until interrupted
	<-ctx.Done()
	return nil
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetServerFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:     EchoFlag,
		Usage:    "Send members their own lines back",
		Category: "server",
		Value:    false,
		Required: false,
	})

	return flags
}
