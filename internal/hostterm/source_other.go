//go:build !unix

package hostterm

import (
	"sync"
	"time"

	"golang.org/x/term"
)

// Subscribe polls the tty size and calls fn when it changes.
func (s WindowSource) Subscribe(fn func()) func() {
	done := make(chan struct{})
	cols, rows, _ := term.GetSize(s.Fd)

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c, r, err := term.GetSize(s.Fd)
				if err != nil || (c == cols && r == rows) {
					continue
				}
				cols, rows = c, r
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
