// Package metrics publishes transition telemetry for machines built on the
// state package. A TransitionCounts listener counts dispatched events and
// committed arcs in a go-metrics registry; a FileSink periodically writes
// the counters as structured records.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/maobaolong/statemachine-demo/service"
)

// TransitionCounts is a transition listener that counts every dispatched
// event and every committed (before, after) arc. Counters are atomic, so
// the listener is safe across operands.
type TransitionCounts[O any, S comparable, E any] struct {
	context  string
	registry gometrics.Registry
}

// NewTransitionCounts creates a listener publishing into its own registry
// under the given context name.
func NewTransitionCounts[O any, S comparable, E any](context string) *TransitionCounts[O, S, E] {
	return &TransitionCounts[O, S, E]{
		context:  context,
		registry: gometrics.NewRegistry(),
	}
}

// Registry exposes the registry for sinks.
func (m *TransitionCounts[O, S, E]) Registry() gometrics.Registry {
	return m.registry
}

// Context returns the context name records are published under.
func (m *TransitionCounts[O, S, E]) Context() string {
	return m.context
}

// PreTransition counts the dispatched event.
func (m *TransitionCounts[O, S, E]) PreTransition(operand O, before S, event E) {
	gometrics.GetOrRegisterCounter("events", m.registry).Inc(1)
}

// PostTransition counts the committed arc.
func (m *TransitionCounts[O, S, E]) PostTransition(operand O, before S, after S, event E) {
	name := fmt.Sprintf("transitions.%v.%v", before, after)
	gometrics.GetOrRegisterCounter(name, m.registry).Inc(1)
}

// Snapshot returns the current counter values keyed by name.
func (m *TransitionCounts[O, S, E]) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	m.registry.Each(func(name string, i interface{}) {
		if c, ok := i.(gometrics.Counter); ok {
			out[name] = c.Count()
		}
	})
	return out
}

// FileSink is a service that periodically writes every counter of a
// registry as one record line:
//
//	<unix-millis> <context>: name=value, name=value
//
// A final record is written on Stop.
type FileSink struct {
	*service.Base

	w        io.Writer
	context  string
	registry gometrics.Registry
	interval time.Duration
	stop     chan struct{}
	stopAck  chan struct{}
}

// NewFileSink creates a sink for the registry writing to w every interval.
func NewFileSink(context string, registry gometrics.Registry, w io.Writer, interval time.Duration) *FileSink {
	s := &FileSink{
		w:        w,
		context:  context,
		registry: registry,
		interval: interval,
		stop:     make(chan struct{}),
		stopAck:  make(chan struct{}),
	}
	s.Base = service.NewBase("filesink-"+context, service.Hooks{
		Start: func() error {
			go s.run()
			return nil
		},
		Stop: func() error {
			close(s.stop)
			<-s.stopAck
			return nil
		},
	})
	return s
}

func (s *FileSink) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			s.PutMetrics()
			s.stopAck <- struct{}{}
			return
		case <-ticker.C:
			s.PutMetrics()
		}
	}
}

// PutMetrics writes one record with the current counter values, sorted by
// name for stable output. Empty registries write nothing.
func (s *FileSink) PutMetrics() {
	type entry struct {
		name  string
		value int64
	}
	var entries []entry
	s.registry.Each(func(name string, i interface{}) {
		if c, ok := i.(gometrics.Counter); ok {
			entries = append(entries, entry{name: name, value: c.Count()})
		}
	})
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	fmt.Fprintf(s.w, "%d %s", time.Now().UnixMilli(), s.context)
	separator := ": "
	for _, e := range entries {
		fmt.Fprintf(s.w, "%s%s=%d", separator, e.name, e.value)
		separator = ", "
	}
	fmt.Fprintln(s.w)
}
