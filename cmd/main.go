package main

import (
	"context"
	"dominicbreuker/lannet/cmd/code"
	"dominicbreuker/lannet/cmd/join"
	"dominicbreuker/lannet/cmd/search"
	"dominicbreuker/lannet/cmd/serve"
	"dominicbreuker/lannet/cmd/version"
	"dominicbreuker/lannet/pkg/log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "lannet",
		Usage: "chat over the LAN: host rooms, find them and join them",
		Commands: []*cli.Command{
			serve.GetCommand(),
			join.GetCommand(),
			search.GetCommand(),
			code.GetCommand(),
			version.GetCommand(),
		},
	}
}
