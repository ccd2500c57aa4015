// Package service provides the lifecycle base that long-lived components of
// this module embed. The lifecycle itself runs on the state package:
// NOTINITED -> INITED -> STARTED -> STOPPED, with stop reachable from every
// live state.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/maobaolong/statemachine-demo/log"
	"github.com/maobaolong/statemachine-demo/state"
)

// LifecycleState is one of the four lifecycle states of a service.
type LifecycleState int

const (
	NotInited LifecycleState = iota
	Inited
	Started
	Stopped
)

func (s LifecycleState) String() string {
	switch s {
	case NotInited:
		return "NOTINITED"
	case Inited:
		return "INITED"
	case Started:
		return "STARTED"
	case Stopped:
		return "STOPPED"
	}
	return fmt.Sprintf("LifecycleState(%d)", int(s))
}

type lifecycleKind int

const (
	enterInit lifecycleKind = iota
	enterStart
	enterStop
)

func (k lifecycleKind) String() string {
	switch k {
	case enterInit:
		return "INIT"
	case enterStart:
		return "START"
	case enterStop:
		return "STOP"
	}
	return fmt.Sprintf("lifecycleKind(%d)", int(k))
}

type lifecycleEvent struct{}

// Hooks are the callbacks a concrete service attaches to its lifecycle.
// Unset hooks are no-ops. An Init or Start hook error fails the lifecycle
// transition; a Stop hook error is logged and the service still stops. Every
// hook error is recorded as the service failure cause.
type Hooks struct {
	Init  func() error
	Start func() error
	Stop  func() error
}

var lifecycleTopology = state.NewBuilder[*Base, LifecycleState, lifecycleKind, lifecycleEvent](NotInited).
	AddTransition(NotInited, Inited, enterInit, func(b *Base, e lifecycleEvent) error {
		if b.hooks.Init != nil {
			return b.hooks.Init()
		}
		return nil
	}).
	AddTransition(Inited, Started, enterStart, func(b *Base, e lifecycleEvent) error {
		if b.hooks.Start != nil {
			if err := b.hooks.Start(); err != nil {
				return err
			}
		}
		b.startTime = time.Now()
		return nil
	}).
	AddTransition(NotInited, Stopped, enterStop, (*Base).stopBody).
	AddTransition(Inited, Stopped, enterStop, (*Base).stopBody).
	AddTransition(Started, Stopped, enterStop, (*Base).stopBody).
	MustBuild()

// Base is the embeddable service implementation. The zero value is not
// usable; construct with NewBase.
type Base struct {
	name  string
	hooks Hooks

	mu      sync.Mutex
	machine *state.Machine[*Base, LifecycleState, lifecycleKind, lifecycleEvent]

	terminated chan struct{}
	startTime  time.Time

	failure      error
	failureState LifecycleState
}

// NewBase constructs a service named name with the given lifecycle hooks.
func NewBase(name string, hooks Hooks) *Base {
	b := &Base{
		name:       name,
		hooks:      hooks,
		terminated: make(chan struct{}),
	}
	b.machine = lifecycleTopology.Make(b)
	return b
}

// stopBody always commits the transition: a failing stop hook is logged and
// recorded, not propagated, so stop stays idempotent and waiters release.
func (b *Base) stopBody(e lifecycleEvent) error {
	defer close(b.terminated)
	if b.hooks.Stop != nil {
		if err := b.hooks.Stop(); err != nil {
			b.failure = err
			b.failureState = b.machine.Current()
			log.Printf("component=service name=%s at=stop-hook-error error=%q", b.name, err)
		}
	}
	return nil
}

// Name returns the service name.
func (b *Base) Name() string {
	return b.name
}

// State returns the current lifecycle state.
func (b *Base) State() LifecycleState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.machine.Current()
}

// StartTime returns when the service started, zero until then.
func (b *Base) StartTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startTime
}

// Init moves the service from NOTINITED to INITED.
func (b *Base) Init() error {
	return b.fire(enterInit)
}

// Start moves the service from INITED to STARTED.
func (b *Base) Start() error {
	return b.fire(enterStart)
}

// Stop moves the service to STOPPED from any live state and releases
// WaitForStop waiters. Stopping a stopped service is a no-op.
func (b *Base) Stop() error {
	return b.fire(enterStop)
}

// Failure returns the last recorded lifecycle error, if any (a hook error or
// a rejected lifecycle transition), and the state the service was in at the
// time.
func (b *Base) Failure() (error, LifecycleState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failure, b.failureState
}

// WaitForStop blocks until the service has stopped or the timeout elapses.
// It reports whether the service stopped.
func (b *Base) WaitForStop(timeout time.Duration) bool {
	select {
	case <-b.terminated:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (b *Base) fire(kind lifecycleKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := b.machine.Current()
	after, err := b.machine.DoTransition(kind, lifecycleEvent{})
	if err != nil {
		if state.IsInvalidTransition(err) && kind == enterStop {
			// already stopped
			return nil
		}
		b.failure = err
		b.failureState = before
		log.Printf("component=service name=%s at=lifecycle-error state=%s event=%s error=%q", b.name, before, kind, err)
		return errors.Trace(err)
	}
	log.Debugf("component=service name=%s at=lifecycle state=%s next-state=%s", b.name, before, after)
	return nil
}
