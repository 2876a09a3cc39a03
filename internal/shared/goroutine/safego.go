// Package goroutine contains helpers for background work.
package goroutine

import (
	"runtime/debug"

	"github.com/veridian-id/veridian/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine and turns a panic into an error log
// instead of a process crash. Dispatch paths use it so a misbehaving
// delivery transport cannot take the request path down with it.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer logPanic(log, name)
		fn()
	}()
}

func logPanic(log logger.Interface, name string) {
	r := recover()
	if r == nil {
		return
	}
	log.Errorw("background task panicked",
		"task", name,
		"panic", r,
		"stack", string(debug.Stack()),
	)
}
