// Package adapter bridges a terminal rendering engine and a remote
// terminal-speaking process.
//
// It turns pointer, wheel and resize activity on the rendered surface into the
// SGR mouse escape sequences (mode 1006) and dimension updates the remote side
// expects, and forwards remote output to the engine untouched. The engine
// itself (glyph rendering, scrollback, grid sizing) and the transport that
// carries the produced bytes are collaborators consumed through the small
// interfaces in engine.go.
//
// The Adapter owns its lifecycle:
//
//	Constructing -> Active -> Deactivated -> Closed
//
// Close may be called from any state and is idempotent. Every external
// subscription (size sources, pointer capture, overlay timer) is released
// before the engine is disposed.
package adapter
