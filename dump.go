package fitcoach

import (
	"fmt"
	"runtime"

	"github.com/davecgh/go-spew/spew"
)

// Dump pretty-prints v with the caller's position. Used behind --debug.
func Dump(v ...any) {
	_, file, line, _ := runtime.Caller(1)
	args := append([]any{fmt.Sprintf("%s:%d:", file, line)}, v...)
	spew.Dump(args...)
}

// Sdump is Dump into a string, for slog attributes behind --debug.
func Sdump(v ...any) string {
	return spew.Sdump(v...)
}
