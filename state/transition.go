package state

// SingleArcBody is the side-effecting function attached to a single arc.
// The target state is fixed by the arc declaration. The body may mutate the
// operand and enqueue follow-up events through a dispatcher, but must not
// call back into the same Machine synchronously.
type SingleArcBody[O any, E any] func(operand O, event E) error

// MultiArcBody both runs side effects and selects the next state for a
// multi arc. The returned state must be a member of the arc's declared
// target set or the transition fails with InvalidTargetError.
type MultiArcBody[O any, S comparable, K comparable, E any] func(operand O, from S, kind K, event E) (S, error)

// transition is the tagged variant stored in the topology table. An arc is
// single when selector is nil, multi otherwise.
type transition[O any, S comparable, K comparable, E any] struct {
	from S
	on   K

	// single arc
	body   SingleArcBody[O, E]
	target S

	// multi arc
	selector   MultiArcBody[O, S, K, E]
	targets    map[S]struct{}
	targetList []S
}

func (t *transition[O, S, K, E]) multi() bool { return t.selector != nil }
