// Package metrics exposes Prometheus counters for connections, messages and
// discovery traffic. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lannet"

// Role labels the side of a connection.
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// Rejection labels why a connection did not complete its handshake.
type Rejection string

const (
	RejectCancelled Rejection = "cancelled"
	RejectAuth      Rejection = "auth"
	RejectError     Rejection = "error"
)

// Metrics holds the collectors of one runtime.
type Metrics struct {
	reg *prometheus.Registry

	messagesSent        *prometheus.CounterVec
	messagesReceived    *prometheus.CounterVec
	connectionsAccepted prometheus.Counter
	connectionsRejected *prometheus.CounterVec
	activeConnections   *prometheus.GaugeVec
	probesReceived      prometheus.Counter
	repliesSent         prometheus.Counter
	serverInfos         prometheus.Counter
	passes              prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages written to connections by tag",
		}, []string{"tag"}),

		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages dispatched to receivers by tag",
		}, []string{"tag"}),

		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections that completed the handshake on a server",
		}),

		connectionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections dropped during the handshake by reason",
		}, []string{"reason"}),

		activeConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Open connections by role",
		}, []string{"role"}),

		probesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "probes_received_total",
			Help:      "Discovery probes received by servers",
		}),

		repliesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "replies_sent_total",
			Help:      "Discovery replies sent by servers",
		}),

		serverInfos: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "server_infos_total",
			Help:      "Server infos assembled and delivered to clients",
		}),

		passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "passes_total",
			Help:      "Dispatcher passes over all registered endpoints",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) MessageSent(tag codec.Tag) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(tag.String()).Inc()
}

func (m *Metrics) MessageReceived(tag codec.Tag) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(tag.String()).Inc()
}

func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *Metrics) ConnectionRejected(reason Rejection) {
	if m == nil {
		return
	}
	m.connectionsRejected.WithLabelValues(string(reason)).Inc()
}

// ConnectionOpened and ConnectionClosed track the active gauge.
func (m *Metrics) ConnectionOpened(role Role) {
	if m == nil {
		return
	}
	m.activeConnections.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) ConnectionClosed(role Role) {
	if m == nil {
		return
	}
	m.activeConnections.WithLabelValues(string(role)).Dec()
}

func (m *Metrics) ProbeReceived() {
	if m == nil {
		return
	}
	m.probesReceived.Inc()
}

func (m *Metrics) ReplySent() {
	if m == nil {
		return
	}
	m.repliesSent.Inc()
}

func (m *Metrics) ServerInfoDelivered() {
	if m == nil {
		return
	}
	m.serverInfos.Inc()
}

func (m *Metrics) Pass() {
	if m == nil {
		return
	}
	m.passes.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, logger *log.Logger) error {
	nl, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen(tcp, %s): %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.VerboseMsg("Serving metrics on http://%s/metrics", nl.Addr())

	if err := srv.Serve(nl); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http.Server.Serve(): %w", err)
	}
	return nil
}
