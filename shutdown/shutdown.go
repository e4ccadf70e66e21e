// Package shutdown turns termination signals into a single callback.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
)

// Watch calls fn once when the process is asked to terminate.
// The returned stop function detaches the handler.
func Watch(fn func(os.Signal)) (stop func()) {
	ch := make(chan os.Signal, 1)
	notify(ch)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			fn(sig)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
