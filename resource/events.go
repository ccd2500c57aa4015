package resource

import (
	"fmt"

	"github.com/pborman/uuid"
)

// ResourceState is the localization state of a resource.
type ResourceState int

const (
	Init ResourceState = iota
	Downloading
	Localized
	Failed
)

func (s ResourceState) String() string {
	switch s {
	case Init:
		return "INIT"
	case Downloading:
		return "DOWNLOADING"
	case Localized:
		return "LOCALIZED"
	case Failed:
		return "FAILED"
	}
	return fmt.Sprintf("ResourceState(%d)", int(s))
}

// EventKind is the kind carried by every resource event.
type EventKind int

const (
	EventRequest EventKind = iota
	EventRecovered
	EventLocalized
	EventRelease
	EventLocalizationFailed
)

func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "REQUEST"
	case EventRecovered:
		return "RECOVERED"
	case EventLocalized:
		return "LOCALIZED"
	case EventRelease:
		return "RELEASE"
	case EventLocalizationFailed:
		return "LOCALIZATION_FAILED"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind maps the rendered kind name back to its EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range []EventKind{EventRequest, EventRecovered, EventLocalized, EventRelease, EventLocalizationFailed} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown resource event kind %q", s)
}

// Request identifies one resource to localize.
type Request struct {
	ID   string
	Path string
}

// NewRequest assigns a fresh id to a request for path.
func NewRequest(path string) Request {
	return Request{ID: uuid.New(), Path: path}
}

// Event is delivered to a LocalizedResource through its dispatcher.
type Event struct {
	Kind    EventKind
	Request Request
}
