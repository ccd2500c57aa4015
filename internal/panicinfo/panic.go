package panicinfo

import (
	"runtime"
	"strings"
)

// LocatePanic takes the result of recover() and returns the file name, line
// and function name of the frame that triggered the panic, skipping runtime
// frames. Intended to be called directly from the deferred recovery func.
func LocatePanic(r interface{}) (file string, line int, funcName string) {
	defer func() {
		// Be safe in here
		recover()
	}()
	var pc [16]uintptr

	// Skip Callers, LocatePanic, the deferred func and gopanic itself
	n := runtime.Callers(4, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		funcName = fn.Name()
		if !strings.HasPrefix(funcName, "runtime.") {
			break
		}
	}

	return file, line, funcName
}
