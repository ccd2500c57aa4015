/*
Package state provides a declarative finite state machine framework.

A Builder accumulates arc declarations keyed by (from-state, event kind) and
compiles them into an immutable Topology. The Topology is shared by every
operand of the same class; Make binds a Machine to one operand, which then
dispatches events with DoTransition:

	State(S) x EventKind(K) -> Body(side effects), State(S')

An arc is either single (the target is fixed by the declaration) or multi
(a selector chooses the next state from a declared target set at dispatch
time). A single optional TransitionListener observes every machine made from
the topology, before and after each transition.

The framework is thread-agnostic: DoTransition runs to completion on the
calling goroutine and the operand owns whatever locking discipline it needs.
See the resource package for the reference operand.
*/
package state
