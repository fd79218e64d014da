//go:build unix

package hostterm

import "golang.org/x/sys/unix"

// pixelSize returns the text area size in pixels, or zeros when the tty
// does not report it.
func pixelSize(fd int) (width, height int) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0
	}
	return int(ws.Xpixel), int(ws.Ypixel)
}
