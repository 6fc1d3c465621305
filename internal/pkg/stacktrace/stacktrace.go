// Package stacktrace reports where a recovered panic happened in this module.
package stacktrace

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"
)

const modulePrefix = "github.com/shandysiswandi/ktvs/"

// Frames returns this module's frames on the calling goroutine's stack,
// innermost first, as "internal/<pkg>/<file>.go:<line>". Called inside a
// deferred recover, the panicking frame is included.
func Frames(skip int) []string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if strings.HasPrefix(f.Function, modulePrefix) {
			file := f.File
			if i := strings.LastIndex(file, "/internal/"); i >= 0 {
				file = file[i+1:]
			}
			out = append(out, fmt.Sprintf("%s:%d", file, f.Line))
		}
		if !more {
			return out
		}
	}
}

// LogPanic logs a recovered value with the module frames that led to it, or
// the full stack when none are found.
func LogPanic(ctx context.Context, msg string, recovered any) {
	if frames := Frames(1); len(frames) > 0 {
		slog.ErrorContext(ctx, msg, "panic", recovered, "stack", frames)
		return
	}
	slog.ErrorContext(ctx, msg, "panic", recovered, "stack", string(debug.Stack()))
}
