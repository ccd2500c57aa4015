package state

// TransitionListener observes transitions on every machine made from a
// topology. PreTransition runs after arc lookup and before the arc body; a
// panic there aborts the transition with the state unchanged. PostTransition
// runs after the new state has committed; a panic there surfaces to the
// DoTransition caller but does not roll the state back.
//
// Listeners run on whichever goroutine calls DoTransition and must be safe
// for concurrent use across operands.
type TransitionListener[O any, S comparable, E any] interface {
	PreTransition(operand O, before S, event E)
	PostTransition(operand O, before S, after S, event E)
}

// FuncListener is a TransitionListener with settable hook funcs. Unset hooks
// are no-ops.
type FuncListener[O any, S comparable, E any] struct {
	PreFn  func(operand O, before S, event E)
	PostFn func(operand O, before S, after S, event E)
}

// PreTransition runs the PreFn if not nil.
func (l *FuncListener[O, S, E]) PreTransition(operand O, before S, event E) {
	if l.PreFn != nil {
		l.PreFn(operand, before, event)
	}
}

// PostTransition runs the PostFn if not nil.
func (l *FuncListener[O, S, E]) PostTransition(operand O, before S, after S, event E) {
	if l.PostFn != nil {
		l.PostFn(operand, before, after, event)
	}
}

type composedListener[O any, S comparable, E any] struct {
	listeners []TransitionListener[O, S, E]
}

// ComposeListeners combines listeners into one that invokes each in order,
// skipping nils. The builder accepts a single listener; callers compose.
func ComposeListeners[O any, S comparable, E any](listeners ...TransitionListener[O, S, E]) TransitionListener[O, S, E] {
	c := &composedListener[O, S, E]{}
	for _, l := range listeners {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
	return c
}

func (c *composedListener[O, S, E]) PreTransition(operand O, before S, event E) {
	for _, l := range c.listeners {
		l.PreTransition(operand, before, event)
	}
}

func (c *composedListener[O, S, E]) PostTransition(operand O, before S, after S, event E) {
	for _, l := range c.listeners {
		l.PostTransition(operand, before, after, event)
	}
}
