package shared

import (
	"context"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/hub"
	"dominicbreuker/lannet/pkg/log"
	"dominicbreuker/lannet/pkg/metrics"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// Settings are the merged config file and flag values of one invocation.
type Settings struct {
	Shared      *config.Shared
	Server      *config.Server
	MetricsAddr string
}

// Load reads the config file named by --config, if any, and overlays the
// flags of cmd. Flags given explicitly win over the file; the file wins
// over flag defaults.
func Load(cmd *cli.Command) (*Settings, error) {
	f := &config.File{}
	if path := cmd.String(ConfigFlag); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		f = loaded
	}

	proto, err := config.ParseProtocol(pickString(cmd, ProtocolFlag, f.Protocol, "tcp"))
	if err != nil {
		return nil, err
	}

	verbose := pickBool(cmd, VerboseFlag, f.Verbose)

	s := &Settings{
		Shared: &config.Shared{
			Protocol:       proto,
			Host:           f.Host,
			Port:           f.Port,
			TypeID:         int32(pickInt(cmd, TypeFlag, int64(f.TypeID))),
			Timeout:        pickDuration(cmd, TimeoutFlag, f.Timeout.Duration),
			DiscoveryGroup: pickString(cmd, GroupFlag, f.Group, config.DefaultDiscoveryGroup),
			WireLog:        pickString(cmd, WireLogFlag, f.WireLog, ""),
			Verbose:        verbose,
			Logger:         log.NewLogger(verbose),
		},
		Server: &config.Server{
			Public:     pickBool(cmd, PublicFlag, f.Server.Public),
			Info:       pickString(cmd, InfoFlag, f.Server.Info, ""),
			MaxPending: int(pickInt(cmd, MaxPendingFlag, int64(f.Server.MaxPending))),
		},
		MetricsAddr: pickString(cmd, MetricsFlag, f.Metrics, ""),
	}

	return s, nil
}

// ApplyTransport overrides protocol, host and port with a transport
// argument such as tcp://127.0.0.1:5000.
func (s *Settings) ApplyTransport(transport string) error {
	proto, host, port, err := ParseTransport(transport)
	if err != nil {
		return err
	}
	s.Shared.Protocol = proto
	s.Shared.Host = host
	s.Shared.Port = port
	return nil
}

// NewRuntime creates the runtime for this invocation. With --metrics set it
// also serves the runtime's metrics until ctx is cancelled.
func (s *Settings) NewRuntime(ctx context.Context) *hub.Runtime {
	logger := s.Shared.Logger
	if s.MetricsAddr == "" {
		return hub.NewRuntime(logger, nil)
	}

	m := metrics.New()
	go func() {
		if err := metrics.Serve(ctx, s.MetricsAddr, m, logger); err != nil {
			logger.ErrorMsg("metrics.Serve(%s): %s", s.MetricsAddr, err)
		}
	}()
	return hub.NewRuntime(logger, m)
}

// CheckErrors prints validation errors the way every command reports them.
func CheckErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	log.ErrorMsg("Argument validation errors:\n")
	for _, err := range errs {
		log.ErrorMsg(" - %s\n", err)
	}
	return fmt.Errorf("exiting")
}

func pickString(cmd *cli.Command, name, file, def string) string {
	if cmd.IsSet(name) {
		return cmd.String(name)
	}
	if file != "" {
		return file
	}
	if v := cmd.String(name); v != "" {
		return v
	}
	return def
}

func pickBool(cmd *cli.Command, name string, file bool) bool {
	if cmd.IsSet(name) {
		return cmd.Bool(name)
	}
	return file || cmd.Bool(name)
}

func pickInt(cmd *cli.Command, name string, file int64) int64 {
	if cmd.IsSet(name) || file == 0 {
		return cmd.Int(name)
	}
	return file
}

func pickDuration(cmd *cli.Command, name string, file time.Duration) time.Duration {
	if cmd.IsSet(name) || file == 0 {
		return cmd.Duration(name)
	}
	return file
}
