package hostterm

import "time"

// pollInterval is how often WindowSource polls where no resize signal
// exists.
const pollInterval = 250 * time.Millisecond

// WindowSource reports size changes of the host terminal window.
type WindowSource struct {
	// Fd is the tty whose size is polled on platforms without SIGWINCH.
	Fd int
}
