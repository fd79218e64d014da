// Package transport carries a terminal session between the adapter and a
// remote pty over a websocket.
//
// Every message is one binary frame: a type byte followed by the payload.
package transport

// Message types shared by client and server.
const (
	MsgInput   = '0' // Terminal input (client -> server)
	MsgOutput  = '1' // Terminal output (server -> client)
	MsgResize  = '2' // Resize terminal
	MsgPing    = '3' // Ping
	MsgPong    = '4' // Pong
	MsgTitle   = '5' // Set window title
	MsgOptions = '6' // Configuration options
	MsgClose   = '7' // Session closed (server -> client)
)

// Subprotocol is the websocket sub-protocol both ends negotiate.
const Subprotocol = "webtty"

// ResizeMessage is sent when the terminal should be resized.
type ResizeMessage struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// OptionsMessage is sent to configure the terminal.
type OptionsMessage struct {
	ReadOnly bool `json:"readOnly"`
}

// Encode frames payload with its message type.
func Encode(msgType byte, payload []byte) []byte {
	msg := make([]byte, 1+len(payload))
	msg[0] = msgType
	copy(msg[1:], payload)
	return msg
}

// Decode splits a frame into its type and payload. Empty frames report
// ok=false.
func Decode(msg []byte) (msgType byte, payload []byte, ok bool) {
	if len(msg) == 0 {
		return 0, nil, false
	}
	return msg[0], msg[1:], true
}
