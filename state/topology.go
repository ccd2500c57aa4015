package state

import (
	"fmt"
	"sort"
)

// arcKey is the topology lookup key.
type arcKey[S comparable, K comparable] struct {
	from S
	on   K
}

// Topology is the immutable transition table compiled by a Builder: the
// initial state, the hashed arc table and the optional listener. It is
// shared by every machine made from it and safe for unsynchronized
// concurrent reads.
type Topology[O any, S comparable, K comparable, E any] struct {
	initial  S
	table    map[arcKey[S, K]]*transition[O, S, K, E]
	states   []S
	listener TransitionListener[O, S, E]
}

// Make binds a new Machine to the operand, started in the initial state.
func (t *Topology[O, S, K, E]) Make(operand O) *Machine[O, S, K, E] {
	return &Machine[O, S, K, E]{topology: t, operand: operand, current: t.initial}
}

// InitialState returns the state new machines start in.
func (t *Topology[O, S, K, E]) InitialState() S {
	return t.initial
}

// States returns every state referenced by the topology in first-appearance
// order, initial state first. The returned slice is a copy.
func (t *Topology[O, S, K, E]) States() []S {
	return append([]S(nil), t.states...)
}

// Arc describes one outgoing edge for introspection and DOT export. Targets
// holds the single fixed target, or the declared target set of a multi arc.
type Arc[S comparable, K comparable] struct {
	From    S
	On      K
	Targets []S
	Multi   bool
}

// ArcsFrom returns the outgoing arcs of a state, sorted by the rendered
// event kind so output built from it is stable.
func (t *Topology[O, S, K, E]) ArcsFrom(s S) []Arc[S, K] {
	var arcs []Arc[S, K]
	for key, tr := range t.table {
		if key.from != s {
			continue
		}
		a := Arc[S, K]{From: s, On: key.on}
		if tr.multi() {
			a.Multi = true
			a.Targets = append([]S(nil), tr.targetList...)
		} else {
			a.Targets = []S{tr.target}
		}
		arcs = append(arcs, a)
	}
	sort.Slice(arcs, func(i, j int) bool {
		return fmt.Sprint(arcs[i].On) < fmt.Sprint(arcs[j].On)
	})
	return arcs
}
