// Package shared provides common CLI flag definitions and utility functions
// used across lannet's command-line interface.
package shared

import (
	"strings"

	"dominicbreuker/lannet/pkg/config"

	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"

// ConfigFlag is the name of the flag naming a TOML configuration file.
const ConfigFlag = "config"

// VerboseFlag is the name of the flag to enable verbose logging.
const VerboseFlag = "verbose"

// TimeoutFlag is the name of the flag bounding dials and handshakes.
const TimeoutFlag = "timeout"

// TypeFlag is the name of the flag to specify the application type id.
const TypeFlag = "type"

// GroupFlag is the name of the flag to specify the discovery multicast group.
const GroupFlag = "group"

// WireLogFlag is the name of the flag to capture stream traffic to a file.
const WireLogFlag = "wirelog"

// MetricsFlag is the name of the flag to serve Prometheus metrics.
const MetricsFlag = "metrics"

// ProtocolFlag is the name of the flag selecting the transport for join codes.
const ProtocolFlag = "protocol"

// GetBaseDescription returns the base description text for transport
// specifications used in CLI commands.
func GetBaseDescription() string {
	return strings.Join([]string{
		"Specify transport like this: tcp://127.0.0.1:123 (supports tcp|ws|udp)",
		"You can omit the host when serving to bind to all interfaces.",
	}, "\n")
}

// GetArgsUsage returns the arguments usage string for CLI commands.
func GetArgsUsage() string {
	return strings.Join([]string{
		"transport",
	}, " ")
}

// GetCommonFlags returns the CLI flags used by every networked command.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ConfigFlag,
			Aliases:  []string{"c"},
			Usage:    "TOML file with default settings, flags given explicitly win",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose logging",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
		&cli.DurationFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Timeout for dials and handshakes",
			Category: categoryCommon,
			Value:    config.DefaultTimeout,
			Required: false,
		},
		&cli.IntFlag{
			Name:     TypeFlag,
			Usage:    "Application type id, servers only accept clients of the same type",
			Category: categoryCommon,
			Value:    0,
			Required: false,
		},
		&cli.StringFlag{
			Name:     GroupFlag,
			Aliases:  []string{"g"},
			Usage:    "Discovery multicast group",
			Category: categoryCommon,
			Value:    config.DefaultDiscoveryGroup,
			Required: false,
		},
		&cli.StringFlag{
			Name:     WireLogFlag,
			Usage:    "Append a hex dump of all stream traffic to this file",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     MetricsFlag,
			Aliases:  []string{"m"},
			Usage:    "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9090",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
	}
}

const categoryServer = "server"

// PublicFlag is the name of the flag to answer discovery probes.
const PublicFlag = "public"

// InfoFlag is the name of the flag to specify the advertised info.
const InfoFlag = "info"

// MaxPendingFlag is the name of the flag bounding pending handshakes.
const MaxPendingFlag = "max-pending"

// GetServerFlags returns the CLI flags specific to serving.
func GetServerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     PublicFlag,
			Aliases:  []string{"p"},
			Usage:    "Advertise the server to LAN searches",
			Category: categoryServer,
			Value:    false,
			Required: false,
		},
		&cli.StringFlag{
			Name:     InfoFlag,
			Aliases:  []string{"i"},
			Usage:    "Info sent to clients that search for servers",
			Category: categoryServer,
			Value:    "",
			Required: false,
		},
		&cli.IntFlag{
			Name:     MaxPendingFlag,
			Usage:    "Maximum number of connections waiting for their handshake",
			Category: categoryServer,
			Value:    config.DefaultMaxPending,
			Required: false,
		},
	}
}

const categoryClient = "client"

// GetClientFlags returns the CLI flags specific to joining.
func GetClientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ProtocolFlag,
			Usage:    "Transport used when joining with a code (tcp|ws|udp)",
			Category: categoryClient,
			Value:    "tcp",
			Required: false,
		},
	}
}
