// Package resource holds the reference operand of the state framework: a
// datum representing a localized resource, driven through INIT, DOWNLOADING,
// LOCALIZED and FAILED by request, release and localization events.
package resource

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"

	"github.com/maobaolong/statemachine-demo/dispatch"
	"github.com/maobaolong/statemachine-demo/log"
	"github.com/maobaolong/statemachine-demo/state"
)

// ResourceTopology is the shared transition table of all LocalizedResource
// instances.
type ResourceTopology = state.Topology[*LocalizedResource, ResourceState, EventKind, Event]

// NewTopology builds the resource topology, optionally carrying a listener.
// The wiring declares (DOWNLOADING, REQUEST) twice, so the builder runs in
// lenient mode and keeps the last declaration.
// TODO: drop the duplicate REQUEST arc and build strict.
func NewTopology(listener state.TransitionListener[*LocalizedResource, ResourceState, Event]) *ResourceTopology {
	b := state.NewBuilder[*LocalizedResource, ResourceState, EventKind, Event](Init).Lenient()
	if listener != nil {
		b.AddListener(listener)
	}
	return b.
		// From INIT (awaiting request)
		AddTransition(Init, Downloading, EventRequest, (*LocalizedResource).fetchResource).
		AddTransition(Init, Localized, EventRecovered, (*LocalizedResource).recovered).
		// From DOWNLOADING (may be localizing)
		AddTransition(Downloading, Downloading, EventRequest, (*LocalizedResource).fetchResource).
		AddTransition(Downloading, Downloading, EventRequest, (*LocalizedResource).fetchResource).
		AddTransition(Downloading, Localized, EventLocalized, (*LocalizedResource).fetchSuccess).
		AddTransition(Downloading, Downloading, EventRelease, (*LocalizedResource).releaseRef).
		AddTransition(Downloading, Failed, EventLocalizationFailed, (*LocalizedResource).fetchFailed).
		// From LOCALIZED (on disk)
		AddTransition(Localized, Localized, EventRequest, (*LocalizedResource).alreadyLocalized).
		AddTransition(Localized, Localized, EventRelease, (*LocalizedResource).releaseRef).
		MustBuild()
}

var defaultTopology = NewTopology(nil)

// Topology returns the shared listener-less topology, e.g. for DOT export.
func Topology() *ResourceTopology {
	return defaultTopology
}

// LocalizedResource is the datum holding the state machine of one resource.
type LocalizedResource struct {
	req  Request
	sink dispatch.EventSink[Event]

	mu      sync.RWMutex
	machine *state.Machine[*LocalizedResource, ResourceState, EventKind, Event]

	// single-permit gate for callers coordinating exclusive work on the
	// resource outside the event path; no event path acquires it
	gate chan struct{}

	// nanos of last activity
	timestamp atomic.Int64

	trace io.Writer
}

// Option configures a LocalizedResource at construction.
type Option func(*LocalizedResource)

// WithTrace redirects the transition trace characters, stdout by default.
func WithTrace(w io.Writer) Option {
	return func(r *LocalizedResource) { r.trace = w }
}

// WithTopology binds the resource to a custom topology, e.g. one carrying a
// listener built with NewTopology.
func WithTopology(t *ResourceTopology) Option {
	return func(r *LocalizedResource) { r.machine = t.Make(r) }
}

// New constructs a LocalizedResource for the request. The sink is where
// transition bodies enqueue follow-up events for asynchronous delivery; it
// may be nil when no dispatcher is wired.
func New(req Request, sink dispatch.EventSink[Event], opts ...Option) *LocalizedResource {
	r := &LocalizedResource{
		req:   req,
		sink:  sink,
		gate:  make(chan struct{}, 1),
		trace: os.Stdout,
	}
	r.machine = defaultTopology.Make(r)
	r.touch()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request returns the request this resource was created for.
func (r *LocalizedResource) Request() Request {
	return r.req
}

// State returns the current state under the shared read lock.
func (r *LocalizedResource) State() ResourceState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.machine.Current()
}

// Handle processes one event under the exclusive write lock, serializing
// events per resource. An event with no matching arc in the current state
// is logged and dropped with the state preserved; any other dispatch
// failure surfaces to the caller.
func (r *LocalizedResource) Handle(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.Debugf("component=LocalizedResource resource=%s at=handle event=%s", r.req.ID, event.Kind)
	before := r.machine.Current()
	after, err := r.machine.DoTransition(event.Kind, event)
	if err != nil {
		if state.IsInvalidTransition(err) {
			log.Printf("component=LocalizedResource resource=%s at=invalid-event state=%s event=%s error=%q",
				r.req.ID, before, event.Kind, err)
			return nil
		}
		return errors.Trace(err)
	}
	if before != after {
		log.Debugf("component=LocalizedResource resource=%s at=transition state=%s next-state=%s",
			r.req.ID, before, after)
	}
	return nil
}

// TryAcquire obtains the single-permit gate without blocking, reporting
// whether it was free.
func (r *LocalizedResource) TryAcquire() bool {
	select {
	case r.gate <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns the single-permit gate.
func (r *LocalizedResource) Release() {
	select {
	case <-r.gate:
	default:
	}
}

// Timestamp returns the nanos of last activity on the resource.
func (r *LocalizedResource) Timestamp() int64 {
	return r.timestamp.Load()
}

func (r *LocalizedResource) touch() {
	r.timestamp.Store(time.Now().UnixNano())
}

// fetchResource starts, or re-records interest in, the download.
func (r *LocalizedResource) fetchResource(event Event) error {
	fmt.Fprint(r.trace, "f")
	return nil
}

// fetchSuccess marks the resource localized; waiting requesters can be
// notified through the sink.
func (r *LocalizedResource) fetchSuccess(event Event) error {
	fmt.Fprint(r.trace, "e")
	return nil
}

// fetchFailed marks localization failed.
func (r *LocalizedResource) fetchFailed(event Event) error {
	fmt.Fprint(r.trace, "d")
	return nil
}

// alreadyLocalized answers a request for a resource that is on disk.
func (r *LocalizedResource) alreadyLocalized(event Event) error {
	fmt.Fprint(r.trace, "c")
	return nil
}

// releaseRef records a release and refreshes the activity timestamp; the
// resource keeps no reference count.
func (r *LocalizedResource) releaseRef(event Event) error {
	fmt.Fprint(r.trace, "b")
	r.touch()
	return nil
}

// recovered installs a resource found on disk at recovery time.
func (r *LocalizedResource) recovered(event Event) error {
	fmt.Fprint(r.trace, "a")
	return nil
}
