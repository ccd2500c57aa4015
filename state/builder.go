package state

import (
	"github.com/juju/errors"

	"github.com/maobaolong/statemachine-demo/log"
)

// Builder accumulates arc declarations and compiles them into an immutable
// Topology. Builders are not safe for concurrent use; build the topology
// once at startup and share it.
type Builder[O any, S comparable, K comparable, E any] struct {
	initial  S
	decls    []*transition[O, S, K, E]
	listener TransitionListener[O, S, E]
	lenient  bool
	frozen   bool
}

// NewBuilder starts a topology rooted at the given initial state.
func NewBuilder[O any, S comparable, K comparable, E any](initial S) *Builder[O, S, K, E] {
	return &Builder[O, S, K, E]{initial: initial}
}

// AddTransition declares a single arc from -> to on the given event kind.
// Declaring the same (from, on) twice is detected at Build time.
func (b *Builder[O, S, K, E]) AddTransition(from, to S, on K, body SingleArcBody[O, E]) *Builder[O, S, K, E] {
	b.checkFrozen("AddTransition")
	b.decls = append(b.decls, &transition[O, S, K, E]{from: from, on: on, target: to, body: body})
	return b
}

// AddMultiArc declares a multi arc whose target is chosen at dispatch time
// by the selector from the declared target set. The set must be non-empty.
func (b *Builder[O, S, K, E]) AddMultiArc(from S, targets []S, on K, selector MultiArcBody[O, S, K, E]) *Builder[O, S, K, E] {
	b.checkFrozen("AddMultiArc")
	set := make(map[S]struct{}, len(targets))
	list := make([]S, 0, len(targets))
	for _, t := range targets {
		if _, ok := set[t]; ok {
			continue
		}
		set[t] = struct{}{}
		list = append(list, t)
	}
	b.decls = append(b.decls, &transition[O, S, K, E]{from: from, on: on, selector: selector, targets: set, targetList: list})
	return b
}

// AddListener attaches the topology's single listener. Compose multiple
// listeners with ComposeListeners before attaching.
func (b *Builder[O, S, K, E]) AddListener(l TransitionListener[O, S, E]) *Builder[O, S, K, E] {
	b.checkFrozen("AddListener")
	b.listener = l
	return b
}

// Lenient downgrades duplicate arc declarations from a Build error to a
// last-writer-wins warning log.
func (b *Builder[O, S, K, E]) Lenient() *Builder[O, S, K, E] {
	b.checkFrozen("Lenient")
	b.lenient = true
	return b
}

// Build compiles the declarations into a frozen Topology. It fails with
// DuplicateArcError when two arcs share (from, on) and the builder is not
// lenient, and with InvalidTargetError when a multi arc declares no targets.
// After Build, any further call on the builder panics with
// FrozenTopologyError.
func (b *Builder[O, S, K, E]) Build() (*Topology[O, S, K, E], error) {
	b.checkFrozen("Build")
	b.frozen = true

	table := make(map[arcKey[S, K]]*transition[O, S, K, E], len(b.decls))
	order := []S{b.initial}
	seen := map[S]struct{}{b.initial: {}}
	note := func(s S) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			order = append(order, s)
		}
	}

	for _, t := range b.decls {
		if t.multi() && len(t.targets) == 0 {
			return nil, errors.Trace(&InvalidTargetError{From: t.from, Kind: t.on})
		}
		key := arcKey[S, K]{from: t.from, on: t.on}
		if _, dup := table[key]; dup {
			if !b.lenient {
				return nil, errors.Trace(&DuplicateArcError{From: t.from, Kind: t.on})
			}
			log.Printf("component=topology at=duplicate-arc state=%v event=%v action=last-writer-wins", t.from, t.on)
		}
		table[key] = t
		note(t.from)
		if t.multi() {
			for _, tgt := range t.targetList {
				note(tgt)
			}
		} else {
			note(t.target)
		}
	}

	return &Topology[O, S, K, E]{
		initial:  b.initial,
		table:    table,
		states:   order,
		listener: b.listener,
	}, nil
}

// MustBuild is Build for topologies wired at package init, where a broken
// declaration should abort startup.
func (b *Builder[O, S, K, E]) MustBuild() *Topology[O, S, K, E] {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func (b *Builder[O, S, K, E]) checkFrozen(op string) {
	if b.frozen {
		panic(&FrozenTopologyError{Op: op})
	}
}
