package state

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/maobaolong/statemachine-demo/internal/panicinfo"
	"github.com/maobaolong/statemachine-demo/log"
)

// Machine is the per-operand runtime of a Topology. It holds only the
// current state and a reference to the shared topology.
//
// A Machine performs no locking of its own: events on the same operand must
// be serialized by the caller (the reference operand wraps Handle in an
// exclusive lock and Current in a shared lock). DoTransition runs to
// completion on the calling goroutine.
type Machine[O any, S comparable, K comparable, E any] struct {
	topology    *Topology[O, S, K, E]
	operand     O
	current     S
	dispatching bool
}

// Current returns the current state.
func (m *Machine[O, S, K, E]) Current() S {
	return m.current
}

// DoTransition dispatches one event against the topology:
//
//  1. Look up (current state, kind). No arc: InvalidTransitionError, state
//     unchanged.
//  2. Invoke the pre-transition listener, then the arc body or selector. A
//     body error or recovered panic yields BodyFailureError, state
//     unchanged. A selector result outside the declared target set yields
//     InvalidTargetError, state unchanged.
//  3. Commit the new state, invoke the post-transition listener, return the
//     new state.
//
// A body that calls DoTransition on its own machine fails fast with
// ReentrancyError instead of deadlocking on the operand's lock.
func (m *Machine[O, S, K, E]) DoTransition(kind K, event E) (S, error) {
	if m.dispatching {
		return m.current, errors.Trace(&ReentrancyError{State: m.current, Kind: kind})
	}
	m.dispatching = true
	defer func() { m.dispatching = false }()

	tr, ok := m.topology.table[arcKey[S, K]{from: m.current, on: kind}]
	if !ok {
		return m.current, errors.Trace(&InvalidTransitionError{State: m.current, Kind: kind})
	}

	before := m.current
	if l := m.topology.listener; l != nil {
		l.PreTransition(m.operand, before, event)
	}

	next, err := m.runBody(tr, kind, event)
	if err != nil {
		return before, err
	}
	if tr.multi() {
		if _, ok := tr.targets[next]; !ok {
			return before, errors.Trace(&InvalidTargetError{From: before, Kind: kind, Target: next})
		}
	}

	m.current = next
	if l := m.topology.listener; l != nil {
		l.PostTransition(m.operand, before, next, event)
	}
	return next, nil
}

// runBody invokes the arc body or selector, converting returned errors and
// recovered panics into BodyFailureError with the raw cause preserved.
func (m *Machine[O, S, K, E]) runBody(tr *transition[O, S, K, E], kind K, event E) (next S, err error) {
	before := m.current
	defer func() {
		if r := recover(); r != nil {
			file, line, funcName := panicinfo.LocatePanic(r)
			log.Printf("component=machine at=body-panic-recovery state=%v event=%v func=%s file=%s line=%d panic=%v",
				before, kind, funcName, file, line, r)
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			next = before
			err = errors.Trace(&BodyFailureError{State: before, Kind: kind, cause: cause})
		}
	}()

	if tr.multi() {
		next, err = tr.selector(m.operand, before, kind, event)
	} else {
		err = tr.body(m.operand, event)
		next = tr.target
	}
	if err != nil {
		err = errors.Trace(&BodyFailureError{State: before, Kind: kind, cause: err})
	}
	return next, err
}
