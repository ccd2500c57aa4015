package dispatch

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	operand string
	seq     int
}

type collector struct {
	mu   sync.Mutex
	got  []testEvent
	done chan struct{}
	want int
}

func newCollector(want int) *collector {
	return &collector{done: make(chan struct{}), want: want}
}

func (c *collector) Handle(e testEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, e)
	if len(c.got) == c.want {
		close(c.done)
	}
	return nil
}

func (c *collector) wait(t *testing.T) []testEvent {
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %d events, got %d", c.want, len(c.events()))
	}
	return c.events()
}

func (c *collector) events() []testEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]testEvent(nil), c.got...)
}

func startLoop[E any](t *testing.T, l *Loop[E]) {
	t.Helper()
	if err := l.Init(); err != nil {
		t.Fatal(err)
	}
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}
}

func TestLoopDeliversInOrder(t *testing.T) {
	c := newCollector(50)
	l := NewLoop[testEvent]("events", 8, c)
	startLoop(t, l)
	defer l.Stop()

	for i := 0; i < 50; i++ {
		if err := l.Put(testEvent{operand: "a", seq: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := c.wait(t)
	for i, e := range got {
		assert.Equal(t, i, e.seq)
	}
}

func TestLoopPutBeforeStart(t *testing.T) {
	l := NewLoop[testEvent]("events", 8, newCollector(1))
	err := l.Put(testEvent{})
	assert.Error(t, err)
}

func TestLoopPutAfterStop(t *testing.T) {
	c := newCollector(1)
	l := NewLoop[testEvent]("events", 8, c)
	startLoop(t, l)
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}

	err := l.Put(testEvent{})
	assert.Error(t, err)
}

func TestLoopStopReleasesWaiters(t *testing.T) {
	l := NewLoop[testEvent]("events", 8, newCollector(1))
	startLoop(t, l)

	done := make(chan bool, 1)
	go func() { done <- l.WaitForStop(5 * time.Second) }()
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}
	assert.True(t, <-done)
}

func TestOperandDispatcherPerOperandFIFO(t *testing.T) {
	const perOperand = 20
	operands := []string{"a", "b", "c"}

	c := newCollector(perOperand * len(operands))
	l := NewLoop[testEvent]("events", 4, c)
	l.SetDispatcher(OperandDispatcher(func(e testEvent) string { return e.operand }, 8))
	startLoop(t, l)
	defer l.Stop()

	for i := 0; i < perOperand; i++ {
		for _, op := range operands {
			if err := l.Put(testEvent{operand: op, seq: i}); err != nil {
				t.Fatal(err)
			}
		}
	}

	got := c.wait(t)
	next := map[string]int{}
	for _, e := range got {
		if e.seq != next[e.operand] {
			t.Fatalf("operand %s saw seq %d, expected %d", e.operand, e.seq, next[e.operand])
		}
		next[e.operand]++
	}
	for _, op := range operands {
		assert.Equal(t, perOperand, next[op])
	}
}

func TestBoundedGoroutineDispatcherDeliversAll(t *testing.T) {
	const total = 100
	c := newCollector(total)
	l := NewLoop[testEvent]("events", 4, c)
	l.SetDispatcher(&BoundedGoroutineDispatcher[testEvent]{NumGoroutines: 4})
	startLoop(t, l)
	defer l.Stop()

	for i := 0; i < total; i++ {
		if err := l.Put(testEvent{operand: fmt.Sprintf("op-%d", i%7), seq: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := c.wait(t)
	assert.Len(t, got, total)
}
