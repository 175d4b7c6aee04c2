package hub

import (
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/metrics"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

// metricValue sums the samples of family name whose labels include want.
func metricValue(t *testing.T, m *metrics.Metrics, name string, want map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, sample := range f.GetMetric() {
			if !hasLabels(sample, want) {
				continue
			}
			switch {
			case sample.GetCounter() != nil:
				total += sample.GetCounter().GetValue()
			case sample.GetGauge() != nil:
				total += sample.GetGauge().GetValue()
			}
		}
	}
	return total
}

func hasLabels(sample *dto.Metric, want map[string]string) bool {
	found := 0
	for _, lp := range sample.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			found++
		}
	}
	return found == len(want)
}

func TestRuntimeMetrics(t *testing.T) {
	t.Parallel()

	n := newTestNet()
	m := metrics.New()
	rt := NewRuntime(nil, m)
	t.Cleanup(rt.Shutdown)

	if rt.Metrics() != m {
		t.Fatal("Metrics() did not return the runtime's metrics")
	}

	sh := newServerRecorder("")
	s := NewServer(rt, sh, n.shared(4), &config.Server{})
	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ch := newClientRecorder()
	c := newClient(t, rt, n, 4, ch)
	join(t, c, s, sh.events)

	if err := c.Send(int32(1)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	expect(t, sh.events, "int32")

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"lannet_connections_accepted_total", nil, 1},
		{"lannet_messages_sent_total", map[string]string{"tag": "int32"}, 1},
		{"lannet_messages_received_total", map[string]string{"tag": "int32"}, 1},
		{"lannet_active_connections", map[string]string{"role": string(metrics.RoleServer)}, 1},
		{"lannet_active_connections", map[string]string{"role": string(metrics.RoleClient)}, 1},
	}
	for _, tc := range tests {
		if got := metricValue(t, m, tc.name, tc.labels); got != tc.want {
			t.Errorf("%s%v = %v, want %v", tc.name, tc.labels, got, tc.want)
		}
	}

	if got := metricValue(t, m, "lannet_dispatcher_passes_total", nil); got == 0 {
		t.Error("no dispatcher passes counted")
	}
}
