package resource

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/maobaolong/statemachine-demo/dispatch"
	"github.com/maobaolong/statemachine-demo/state"
)

func testResource(t *testing.T) (*LocalizedResource, *bytes.Buffer) {
	t.Helper()
	trace := &bytes.Buffer{}
	req := NewRequest("hdfs://nn/app/job.jar")
	if req.ID == "" {
		t.Fatal("request id not assigned")
	}
	return New(req, nil, WithTrace(trace)), trace
}

func handle(t *testing.T, r *LocalizedResource, kinds ...EventKind) {
	t.Helper()
	for _, k := range kinds {
		if err := r.Handle(Event{Kind: k, Request: r.Request()}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRequestStartsDownload(t *testing.T) {
	r, trace := testResource(t)
	assert.Equal(t, Init, r.State())

	handle(t, r, EventRequest)
	assert.Equal(t, Downloading, r.State())
	assert.Equal(t, "f", trace.String())
}

func TestLocalizedCompletesDownload(t *testing.T) {
	r, trace := testResource(t)
	handle(t, r, EventRequest, EventLocalized)
	assert.Equal(t, Localized, r.State())
	assert.Equal(t, "fe", trace.String())
}

func TestFailedIsTerminal(t *testing.T) {
	r, trace := testResource(t)
	handle(t, r, EventRequest, EventLocalizationFailed)
	assert.Equal(t, Failed, r.State())
	assert.Equal(t, "fd", trace.String())

	// rejected events are logged and dropped, state preserved
	for _, k := range []EventKind{EventRequest, EventRecovered, EventLocalized, EventRelease, EventLocalizationFailed} {
		handle(t, r, k)
		assert.Equal(t, Failed, r.State())
	}
	assert.Equal(t, "fd", trace.String())
}

func TestRecoveredResource(t *testing.T) {
	r, trace := testResource(t)
	handle(t, r, EventRecovered)
	assert.Equal(t, Localized, r.State())

	handle(t, r, EventRequest)
	assert.Equal(t, Localized, r.State())
	assert.Equal(t, "ac", trace.String())
}

func TestHappyPathTrace(t *testing.T) {
	r, trace := testResource(t)

	expected := []ResourceState{Downloading, Localized, Localized, Localized}
	kinds := []EventKind{EventRequest, EventLocalized, EventRelease, EventRequest}
	for i, k := range kinds {
		handle(t, r, k)
		assert.Equal(t, expected[i], r.State())
	}
	assert.Equal(t, "febc", trace.String())
}

func TestInvalidEventKeepsState(t *testing.T) {
	r, trace := testResource(t)

	// LOCALIZED is not handled at INIT
	handle(t, r, EventLocalized)
	assert.Equal(t, Init, r.State())
	assert.Equal(t, "", trace.String())
}

func TestReleaseRefreshesTimestamp(t *testing.T) {
	r, _ := testResource(t)
	handle(t, r, EventRequest)
	before := r.Timestamp()
	time.Sleep(time.Millisecond)
	handle(t, r, EventRelease)
	assert.Greater(t, r.Timestamp(), before)
}

func TestSinglePermitGate(t *testing.T) {
	r, _ := testResource(t)
	assert.True(t, r.TryAcquire())
	assert.False(t, r.TryAcquire())
	r.Release()
	assert.True(t, r.TryAcquire())
}

func TestConcurrentReadsDuringHandling(t *testing.T) {
	r, _ := testResource(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := r.State()
				if s != Init && s != Downloading && s != Localized {
					t.Errorf("observed state outside the expected path: %v", s)
					return
				}
			}
		}()
	}

	handle(t, r, EventRequest, EventLocalized, EventRequest)
	wg.Wait()
	assert.Equal(t, Localized, r.State())
}

// syncBuffer guards the trace against the loop goroutine writing while the
// test polls it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Len()
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestDispatchThroughLoop(t *testing.T) {
	trace := &syncBuffer{}
	var mu sync.Mutex
	resources := map[string]*LocalizedResource{}

	loop := dispatch.NewLoop[Event]("resource-events", 16, dispatch.HandlerFunc[Event](func(e Event) error {
		mu.Lock()
		r := resources[e.Request.ID]
		mu.Unlock()
		return r.Handle(e)
	}))
	if err := loop.Init(); err != nil {
		t.Fatal(err)
	}
	if err := loop.Start(); err != nil {
		t.Fatal(err)
	}

	req := NewRequest("hdfs://nn/app/files.tgz")
	r := New(req, loop, WithTrace(trace))
	mu.Lock()
	resources[req.ID] = r
	mu.Unlock()

	for _, k := range []EventKind{EventRequest, EventLocalized, EventRelease, EventRequest} {
		if err := loop.Put(Event{Kind: k, Request: req}); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for trace.Len() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := loop.Stop(); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, Localized, r.State())
	assert.Equal(t, "febc", trace.String())
}

func TestTopologyDot(t *testing.T) {
	dot := state.ExportDot(Topology(), "aaa")

	expected := `digraph aaa {
graph [label="aaa", fontsize=24, fontname=Helvetica];
node [fontsize=12, fontname=Helvetica];
edge [fontsize=9, fontcolor=blue, fontname=Arial];
"aaa.INIT" [label=INIT];
"aaa.INIT" -> "aaa.LOCALIZED" [label="RECOVERED"];
"aaa.INIT" -> "aaa.DOWNLOADING" [label="REQUEST"];
"aaa.DOWNLOADING" [label=DOWNLOADING];
"aaa.DOWNLOADING" -> "aaa.FAILED" [label="LOCALIZATION_FAILED"];
"aaa.DOWNLOADING" -> "aaa.LOCALIZED" [label="LOCALIZED"];
"aaa.DOWNLOADING" -> "aaa.DOWNLOADING" [label="RELEASE,\nREQUEST"];
"aaa.LOCALIZED" [label=LOCALIZED];
"aaa.LOCALIZED" -> "aaa.LOCALIZED" [label="RELEASE,\nREQUEST"];
"aaa.FAILED" [label=FAILED];
}
`
	assert.Equal(t, expected, dot)
	assert.Equal(t, dot, state.ExportDot(Topology(), "aaa"))
}

func TestStrictBuildRejectsDuplicateArc(t *testing.T) {
	_, err := state.NewBuilder[*LocalizedResource, ResourceState, EventKind, Event](Init).
		AddTransition(Init, Downloading, EventRequest, (*LocalizedResource).fetchResource).
		AddTransition(Downloading, Downloading, EventRequest, (*LocalizedResource).fetchResource).
		AddTransition(Downloading, Downloading, EventRequest, (*LocalizedResource).fetchResource).
		Build()
	if !state.IsDuplicateArc(err) {
		t.Fatalf("expected DuplicateArcError, got %v", err)
	}
}
