package state

import (
	stderrors "errors"
	"fmt"
)

// InvalidTransitionError is returned by Machine.DoTransition when no arc
// matches the (current state, event kind) pair. The machine state is
// unchanged.
type InvalidTransitionError struct {
	State interface{}
	Kind  interface{}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid event %v at current state %v", e.Kind, e.State)
}

// IsInvalidTransition reports whether err is, or wraps, an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return stderrors.As(err, &target)
}

// DuplicateArcError is returned by Builder.Build when two arcs were declared
// for the same (from-state, event kind) and the builder is not lenient.
type DuplicateArcError struct {
	From interface{}
	Kind interface{}
}

func (e *DuplicateArcError) Error() string {
	return fmt.Sprintf("duplicate arc declared for state %v on event %v", e.From, e.Kind)
}

// IsDuplicateArc reports whether err is, or wraps, a DuplicateArcError.
func IsDuplicateArc(err error) bool {
	var target *DuplicateArcError
	return stderrors.As(err, &target)
}

// FrozenTopologyError is the panic value raised when a Builder is mutated
// after Build has been called.
type FrozenTopologyError struct {
	Op string
}

func (e *FrozenTopologyError) Error() string {
	return fmt.Sprintf("topology is frozen: %s called after Build", e.Op)
}

// IsFrozenTopology reports whether err is, or wraps, a FrozenTopologyError.
func IsFrozenTopology(err error) bool {
	var target *FrozenTopologyError
	return stderrors.As(err, &target)
}

// InvalidTargetError reports a multi arc whose declared target set is empty
// (at Build time, Target nil) or whose selector returned a state outside the
// declared set (at dispatch time). On dispatch the machine state is unchanged.
type InvalidTargetError struct {
	From   interface{}
	Kind   interface{}
	Target interface{}
}

func (e *InvalidTargetError) Error() string {
	if e.Target == nil {
		return fmt.Sprintf("multi arc for state %v on event %v declares no valid targets", e.From, e.Kind)
	}
	return fmt.Sprintf("selector for state %v on event %v returned %v, outside the declared target set", e.From, e.Kind, e.Target)
}

// IsInvalidTarget reports whether err is, or wraps, an InvalidTargetError.
func IsInvalidTarget(err error) bool {
	var target *InvalidTargetError
	return stderrors.As(err, &target)
}

// BodyFailureError wraps an error returned, or a panic recovered, from a
// transition body or selector. The machine state is unchanged; the
// pre-transition listener has fired, the post-transition listener has not.
// The raw cause is reachable through Unwrap and Cause.
type BodyFailureError struct {
	State interface{}
	Kind  interface{}
	cause error
}

func (e *BodyFailureError) Error() string {
	return fmt.Sprintf("transition body for state %v on event %v failed: %v", e.State, e.Kind, e.cause)
}

func (e *BodyFailureError) Unwrap() error { return e.cause }

// Cause exposes the raw body error, satisfying juju/errors causers.
func (e *BodyFailureError) Cause() error { return e.cause }

// IsBodyFailure reports whether err is, or wraps, a BodyFailureError.
func IsBodyFailure(err error) bool {
	var target *BodyFailureError
	return stderrors.As(err, &target)
}

// ReentrancyError is returned when a transition body calls DoTransition on
// the machine that invoked it. Bodies that need to trigger further
// transitions must enqueue events through a dispatcher instead.
type ReentrancyError struct {
	State interface{}
	Kind  interface{}
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("re-entrant dispatch of event %v while a transition from state %v is in flight", e.Kind, e.State)
}

// IsReentrancy reports whether err is, or wraps, a ReentrancyError.
func IsReentrancy(err error) bool {
	var target *ReentrancyError
	return stderrors.As(err, &target)
}
