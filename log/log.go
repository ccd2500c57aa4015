package log

import (
	golog "log"
	"os"
	"sync/atomic"
)

// Won't compile if StdLogger can't be realized by a log.Logger
var _ StdLogger = &golog.Logger{}

// StdLogger is the logging interface this library emits through. A stdlib
// *log.Logger satisfies it, as do most structured loggers' std adapters.
type StdLogger interface {
	Print(...interface{})
	Printf(string, ...interface{})
	Println(...interface{})

	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Fatalln(...interface{})

	Panic(...interface{})
	Panicf(string, ...interface{})
	Panicln(...interface{})
}

//provide a mutable logger so it can be swapped by the embedding application
var Log StdLogger = golog.New(os.Stderr, "", golog.LstdFlags)

var debug int32

// SetDebug opens or closes the gate for Debugf lines. Closed by default.
func SetDebug(on bool) {
	if on {
		atomic.StoreInt32(&debug, 1)
	} else {
		atomic.StoreInt32(&debug, 0)
	}
}

// DebugEnabled reports whether Debugf lines are currently emitted.
func DebugEnabled() bool {
	return atomic.LoadInt32(&debug) == 1
}

// Printf logs to the package Log.
func Printf(format string, args ...interface{}) {
	Log.Printf(format, args...)
}

// Println logs to the package Log.
func Println(args ...interface{}) {
	Log.Println(args...)
}

// Debugf logs to the package Log when the debug gate is open.
func Debugf(format string, args ...interface{}) {
	if DebugEnabled() {
		Log.Printf("level=debug "+format, args...)
	}
}
