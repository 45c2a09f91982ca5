// Package metrics exposes a netclient.Client's connection state as
// Prometheus metrics, grounded on the TCPInfoCollector pattern: a
// custom Collector that reads a published snapshot rather than
// maintaining its own counters, so the hot path never touches the
// Prometheus registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is the subset of client state the collector reports. The
// netclient package publishes one of these each time
// Client.PublishMetrics is called.
type Snapshot struct {
	State            string
	Connected        bool
	Drone            bool
	LatencyMs        int32
	ClockOffsetMs    int32
	SendWindowDepth  int
	RecvWindowDepth  int
	ReliablePending  int
	Retries          int
}

// Collector is a prometheus.Collector backed by a single caller-set
// Snapshot rather than a live connection table.
type Collector struct {
	mu       sync.Mutex
	snapshot Snapshot

	state           *prometheus.Desc
	connected       *prometheus.Desc
	latency         *prometheus.Desc
	clockOffset     *prometheus.Desc
	sendDepth       *prometheus.Desc
	recvDepth       *prometheus.Desc
	reliablePending *prometheus.Desc
	retries         *prometheus.Desc
}

// NewCollector returns a Collector with all descriptors labeled
// "player" so a drone fleet can be told apart in a shared registry.
func NewCollector(player string) *Collector {
	labels := prometheus.Labels{"player": player}
	return &Collector{
		state:           prometheus.NewDesc("netdoom_client_state", "Current session state, as an info-style gauge (always 1).", []string{"state"}, labels),
		connected:       prometheus.NewDesc("netdoom_client_connected", "1 if the client has an active session with the server.", nil, labels),
		latency:         prometheus.NewDesc("netdoom_client_latency_ms", "Last measured round-trip latency in milliseconds.", nil, labels),
		clockOffset:     prometheus.NewDesc("netdoom_client_clock_offset_ms", "Current PID-controlled clock offset in milliseconds.", nil, labels),
		sendDepth:       prometheus.NewDesc("netdoom_client_send_window_depth", "Number of active entries in the send queue.", nil, labels),
		recvDepth:       prometheus.NewDesc("netdoom_client_recv_window_depth", "Number of active entries in the receive window.", nil, labels),
		reliablePending: prometheus.NewDesc("netdoom_client_reliable_pending", "Number of reliable packets awaiting acknowledgement.", nil, labels),
		retries:         prometheus.NewDesc("netdoom_client_connect_retries", "Number of SYN retries sent during the current or most recent connect attempt.", nil, labels),
	}
}

// Publish replaces the snapshot Collect will report on its next scrape.
func (c *Collector) Publish(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.state
	descs <- c.connected
	descs <- c.latency
	descs <- c.clockOffset
	descs <- c.sendDepth
	descs <- c.recvDepth
	descs <- c.reliablePending
	descs <- c.retries
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	s := c.snapshot
	c.mu.Unlock()

	metrics <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, 1, s.State)
	metrics <- boolGauge(c.connected, s.Connected)
	metrics <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, float64(s.LatencyMs))
	metrics <- prometheus.MustNewConstMetric(c.clockOffset, prometheus.GaugeValue, float64(s.ClockOffsetMs))
	metrics <- prometheus.MustNewConstMetric(c.sendDepth, prometheus.GaugeValue, float64(s.SendWindowDepth))
	metrics <- prometheus.MustNewConstMetric(c.recvDepth, prometheus.GaugeValue, float64(s.RecvWindowDepth))
	metrics <- prometheus.MustNewConstMetric(c.reliablePending, prometheus.GaugeValue, float64(s.ReliablePending))
	metrics <- prometheus.MustNewConstMetric(c.retries, prometheus.GaugeValue, float64(s.Retries))
}

func boolGauge(desc *prometheus.Desc, v bool) prometheus.Metric {
	if v {
		return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 1)
	}
	return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, 0)
}
