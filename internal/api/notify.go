package api

import (
	"net/http"
	"sync"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/store"
)

// StateChangeMessage is one store.Listener event, relayed verbatim to every
// connected websocket client.
type StateChangeMessage struct {
	ReservationId ids.ReservationId `json:"reservationId"`
	OldState      string            `json:"oldState"`
	NewState      string            `json:"newState"`
}

// Notifier mirrors store.Store state transitions onto connected websocket
// clients. Grounded on jontk-slurm-client's
// pkg/streaming WebSocketServer: an Upgrader plus a fan-out write to every
// live connection, clients dropped on first write error.
type Notifier struct {
	upgrader websocket.Upgrader
	log      logr.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewNotifier(st *store.Store, log logr.Logger) *Notifier {
	n := &Notifier{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
		conns:    map[*websocket.Conn]struct{}{},
	}
	st.AddListener(n.onStateChange)
	return n
}

func (n *Notifier) onStateChange(id ids.ReservationId, old, new model.State) {
	msg := StateChangeMessage{ReservationId: id, OldState: old.String(), NewState: new.String()}

	n.mu.Lock()
	defer n.mu.Unlock()
	for conn := range n.conns {
		if err := conn.WriteJSON(msg); err != nil {
			n.log.V(1).Info("dropping notify connection", "error", err.Error())
			_ = conn.Close()
			delete(n.conns, conn)
		}
	}
}

// HandleWebSocket upgrades req and registers the connection to receive
// every subsequent state-change event until it closes.
func (n *Notifier) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := n.upgrader.Upgrade(w, req, nil)
	if err != nil {
		n.log.Error(err, "websocket upgrade failed")
		return
	}

	n.mu.Lock()
	n.conns[conn] = struct{}{}
	n.mu.Unlock()

	// Drain and discard any client-sent frames so the connection's read
	// deadline never trips; this is a push-only stream.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				n.mu.Lock()
				delete(n.conns, conn)
				n.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}
