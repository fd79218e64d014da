package adapter

// Engine is the rendering engine capability the adapter drives. It draws the
// terminal grid, reports its size and turns keyboard activity into data.
type Engine interface {
	// Open attaches the engine to its output.
	Open() error
	// Write displays raw terminal output.
	Write(data []byte)
	// OnData registers the single receiver for keyboard-generated data.
	OnData(func(data string))
	Cols() int
	Rows() int
	// HasMouseTracking reports whether the remote program enabled mouse
	// reporting.
	HasMouseTracking() bool
	Clear()
	Blur()
	// Fit recomputes the grid to match the current pixel size.
	Fit()
	// Surface returns the drawable surface, or nil before it exists.
	Surface() Surface
	// Ready is closed once Surface returns a non-nil value.
	Ready() <-chan struct{}
	Dispose() error
}

// Surface is the drawable area pointer events happen on.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (width, height float64)
	// OnPointer subscribes to pointer events and returns the unsubscribe
	// func.
	OnPointer(func(PointerEvent)) (unsubscribe func())
}

// ContextMenuSuppressor is implemented by surfaces that show a context menu
// on secondary click.
type ContextMenuSuppressor interface {
	SetContextMenu(enabled bool)
}

// OverlaySurface displays the transient on-surface notice.
type OverlaySurface interface {
	ShowOverlay(text string)
	HideOverlay()
}

// TitleSetter changes the title of the window hosting the terminal.
type TitleSetter interface {
	SetTitle(title string)
}

// TitleFunc adapts a func to TitleSetter.
type TitleFunc func(title string)

// SetTitle calls f(title).
func (f TitleFunc) SetTitle(title string) { f(title) }

// Dimensions is a terminal size in cells.
type Dimensions struct {
	Columns int
	Rows    int
}

type nopOverlay struct{}

func (nopOverlay) ShowOverlay(string) {}
func (nopOverlay) HideOverlay()       {}
