package panicinfo

import (
	"strings"
	"testing"
)

var file, name string
var line int

func TestLocatePanic(t *testing.T) {
	panicFunc()

	// these must be correct
	if !strings.HasSuffix(file, "panic_test.go") || !strings.HasSuffix(name, "panicFunc") {
		t.Errorf("panic locator missed required information: file=%s name=%s", file, name)
	}

	// line number is best effort
	if line == 0 {
		t.Logf("warning: panic locator returned no line number")
	}
}

func panicFunc() {
	defer func() {
		r := recover()
		file, line, name = LocatePanic(r)
	}()
	panic("lol I paniced")
}
