// Package dispatch delivers events to operands outside their transition
// bodies. Bodies must not dispatch into their own machine synchronously;
// they enqueue follow-up events here instead, and the loop delivers them in
// FIFO per-operand order.
package dispatch

import (
	"github.com/juju/errors"

	"github.com/maobaolong/statemachine-demo/log"
	"github.com/maobaolong/statemachine-demo/service"
)

// Handler consumes one event. Implementations own their concurrency
// discipline; the reference operand takes its write lock inside Handle.
type Handler[E any] interface {
	Handle(event E) error
}

// HandlerFunc adapts a func to a Handler.
type HandlerFunc[E any] func(event E) error

// Handle calls the func.
func (f HandlerFunc[E]) Handle(event E) error {
	return f(event)
}

// EventSink accepts events for later delivery. Transition bodies hold a
// sink, never a machine.
type EventSink[E any] interface {
	Put(event E) error
}

// EventDispatcher decides which goroutine runs the handler for an event
// pulled off the loop.
type EventDispatcher[E any] interface {
	DispatchEvent(event E, handler func(E))
}

// CallingGoroutineDispatcher runs the handler on the loop goroutine,
// preserving total FIFO order.
type CallingGoroutineDispatcher[E any] struct{}

// DispatchEvent calls the handler in the same goroutine.
func (*CallingGoroutineDispatcher[E]) DispatchEvent(event E, handler func(E)) {
	handler(event)
}

// NewGoroutineDispatcher runs every handler in a new goroutine. No ordering
// is preserved; use only for operands that tolerate interleaving.
type NewGoroutineDispatcher[E any] struct{}

// DispatchEvent calls the handler in a new goroutine.
func (*NewGoroutineDispatcher[E]) DispatchEvent(event E, handler func(E)) {
	go handler(event)
}

// BoundedGoroutineDispatcher runs handlers on a fixed pool of goroutines.
// The pool starts lazily on the first event and captures that handler; it is
// unsynchronized because only the single loop goroutine calls DispatchEvent.
type BoundedGoroutineDispatcher[E any] struct {
	NumGoroutines int
	started       bool
	events        chan E
}

// DispatchEvent sends the event to a channel NumGoroutines goroutines
// receive from.
func (b *BoundedGoroutineDispatcher[E]) DispatchEvent(event E, handler func(E)) {
	if !b.started {
		if b.NumGoroutines <= 0 {
			//use at least 1
			b.NumGoroutines = 1
		}
		b.events = make(chan E)
		for i := 0; i < b.NumGoroutines; i++ {
			go func() {
				for e := range b.events {
					handler(e)
				}
			}()
		}
		b.started = true
	}

	b.events <- event
}

// OperandDispatcher gives each operand key its own queue and delivery
// goroutine: events for the same operand stay FIFO while different operands
// interleave freely. An operand with maxPending queued events blocks
// DispatchEvent until one drains. Like the bounded dispatcher it captures
// the handler on first use and relies on the single loop goroutine for
// synchronization of the queue map.
func OperandDispatcher[E any](key func(E) string, maxPending int) EventDispatcher[E] {
	if maxPending <= 0 {
		maxPending = 64
	}
	return &operandDispatcher[E]{
		key:        key,
		maxPending: maxPending,
		queues:     make(map[string]chan E),
	}
}

type operandDispatcher[E any] struct {
	key        func(E) string
	maxPending int
	queues     map[string]chan E
}

func (d *operandDispatcher[E]) DispatchEvent(event E, handler func(E)) {
	k := d.key(event)
	queue, ok := d.queues[k]
	if !ok {
		queue = make(chan E, d.maxPending)
		d.queues[k] = queue
		go func() {
			for e := range queue {
				handler(e)
			}
		}()
	}
	queue <- event
}

// Loop is the event loop service: a bounded queue drained by a single
// goroutine that hands each event to the configured EventDispatcher. With
// the default CallingGoroutineDispatcher delivery order is total FIFO.
type Loop[E any] struct {
	*service.Base

	name       string
	events     chan E
	handler    Handler[E]
	dispatcher EventDispatcher[E]
	stop       chan struct{}
	stopAck    chan struct{}
}

// NewLoop constructs a loop named name with the given queue depth and
// handler. The loop is a service: Init and Start it before Put, Stop it to
// shut it down. Events still queued when Stop is called are not delivered.
func NewLoop[E any](name string, buffer int, handler Handler[E]) *Loop[E] {
	if buffer <= 0 {
		buffer = 64
	}
	l := &Loop[E]{
		name:       name,
		events:     make(chan E, buffer),
		handler:    handler,
		dispatcher: &CallingGoroutineDispatcher[E]{},
		stop:       make(chan struct{}),
		stopAck:    make(chan struct{}),
	}
	l.Base = service.NewBase(name, service.Hooks{
		Start: func() error {
			go l.run()
			return nil
		},
		Stop: func() error {
			close(l.stop)
			<-l.stopAck
			return nil
		},
	})
	return l
}

// SetDispatcher replaces the delivery strategy. Call before Start.
func (l *Loop[E]) SetDispatcher(d EventDispatcher[E]) {
	l.dispatcher = d
}

// Put enqueues an event. It blocks while the queue is full and fails once
// the loop is stopped or not yet started.
func (l *Loop[E]) Put(event E) error {
	if l.Base.State() != service.Started {
		return errors.Errorf("event loop %s not started", l.name)
	}
	select {
	case l.events <- event:
		return nil
	case <-l.stop:
		return errors.Errorf("event loop %s stopped", l.name)
	}
}

func (l *Loop[E]) run() {
	for {
		select {
		case <-l.stop:
			log.Debugf("component=dispatch name=%s at=received-stop action=shutting-down", l.name)
			l.stopAck <- struct{}{}
			return
		case e := <-l.events:
			l.dispatcher.DispatchEvent(e, l.deliver)
		}
	}
}

func (l *Loop[E]) deliver(event E) {
	if err := l.handler.Handle(event); err != nil {
		log.Printf("component=dispatch name=%s at=handler-error error=%q", l.name, err)
	}
}
