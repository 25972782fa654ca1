package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/savegress/hl7forge/internal/store"
)

var upgrader = websocket.Upgrader{
	// The read-side API has no same-origin requirement of its own; callers
	// behind a reverse proxy enforce whatever origin policy they need.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Type   string      `json:"type"`
	Total  int         `json:"total,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Missed uint64      `json:"missed,omitempty"`
}

type subEvent struct {
	event  store.Event
	lagged uint64
}

// Subscribe upgrades the connection to a WebSocket and streams store
// events to the client as they're published (spec.md §4.7): a NewMessage
// event becomes a "new_message" frame, Cleared becomes "cleared", and a
// lagging subscriber receives a "lagged" frame reporting how many events
// it missed before the next delivered event.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := h.store.Subscribe()

	init := wsFrame{Type: "init", Total: h.store.Count()}
	if err := conn.WriteJSON(init); err != nil {
		return
	}

	events := make(chan subEvent)
	stopRecv := make(chan struct{})
	defer close(stopRecv)

	go func() {
		for {
			ev, lagged := sub.Recv()
			select {
			case events <- subEvent{event: ev, lagged: lagged}:
			case <-stopRecv:
				return
			}
		}
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case next := <-events:
			if next.lagged > 0 {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(wsFrame{Type: "lagged", Missed: next.lagged}); err != nil {
					return
				}
			}

			frame, ok := renderFrame(next.event)
			if !ok {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}

func renderFrame(ev store.Event) (wsFrame, bool) {
	switch ev.Kind {
	case store.EventNewMessage:
		return wsFrame{Type: "new_message", Data: ev.Summary}, true
	case store.EventCleared:
		return wsFrame{Type: "cleared"}, true
	default:
		return wsFrame{}, false
	}
}
