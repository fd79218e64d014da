//go:build unix

package hostterm

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Subscribe calls fn on every SIGWINCH until the returned func is called.
func (WindowSource) Subscribe(fn func()) func() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sig:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sig)
			close(done)
		})
	}
}
