package alarm

import (
	"sync"

	"github.com/gorilla/websocket"
)

// dispatcher owns the write side of one hub socket. It assigns
// monotonic sequence numbers, starting at 1 for each new connection,
// and serialises writes so concurrent senders never interleave frames.
type dispatcher struct {
	ws *websocket.Conn

	mu  sync.Mutex
	seq uint64
}

func newDispatcher(ws *websocket.Conn) *dispatcher {
	return &dispatcher{ws: ws, seq: 1}
}

// send assigns the next sequence number to msg and writes it.
func (d *dispatcher) send(msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	msg.Seq = d.seq
	d.seq++

	return d.ws.WriteJSON(msg)
}

func (d *dispatcher) close() error {
	return d.ws.Close()
}
