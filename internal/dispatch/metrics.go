// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded by the invocation counter.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics counts and times block invocations.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockext",
			Name:      "block_invocations_total",
			Help:      "Block invocations by extension, opcode and outcome.",
		}, []string{"extension", "opcode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blockext",
			Name:      "block_invocation_duration_seconds",
			Help:      "Time spent inside block handlers.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"extension", "opcode"}),
	}
	reg.MustRegister(m.invocations, m.duration)
	return m
}

func (m *Metrics) observe(extension, opcode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(extension, opcode, outcome).Inc()
	if outcome != OutcomeRejected {
		m.duration.WithLabelValues(extension, opcode).Observe(elapsed.Seconds())
	}
}
