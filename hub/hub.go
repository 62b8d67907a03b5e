// Package hub pushes match updates to every browser watching the board.
package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/gorilla/websocket"
)

// Hub maintains the set of active connections and broadcasts messages to the
// connections.
type Hub struct {
	// Registered connections.
	connections map[trivia.MatchID][]*connection

	// Messages to send to everyone watching a match.
	broadcast chan *broadcastMsg

	// Register requests from the connections.
	register chan *connection

	// Unregister requests from connections.
	unregister chan *connection

	// Counts requests, for tests and the status endpoint.
	count chan *countReq

	nextID atomic.Int64
	log    *slog.Logger
}

// New creates a new Hub and starts it in a background Go routine.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		broadcast:   make(chan *broadcastMsg),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		count:       make(chan *countReq),
		connections: make(map[trivia.MatchID][]*connection),
		log:         logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			conns := h.connections[c.matchID]
			h.connections[c.matchID] = append(conns, c)
		case c := <-h.unregister:
			h.deleteConn(c)
		case m := <-h.broadcast:
			// Iterate over a copy, deleteConn modifies the slice.
			for _, c := range append([]*connection(nil), h.connections[m.matchID]...) {
				select {
				case c.send <- m.msg:
				default:
					h.log.Warn("dropping slow connection", slog.String("match_id", string(c.matchID)))
					h.deleteConn(c)
				}
			}
		case req := <-h.count:
			req.resp <- len(h.connections[req.matchID])
		}
	}
}

func (h *Hub) deleteConn(c *connection) {
	rconns := h.connections[c.matchID]
	for i, rconn := range rconns {
		if rconn.id == c.id {
			close(c.send)
			// Remove the connection.
			copy(rconns[i:], rconns[i+1:])
			rconns[len(rconns)-1] = nil
			h.connections[c.matchID] = rconns[:len(rconns)-1]
			if len(h.connections[c.matchID]) == 0 {
				delete(h.connections, c.matchID)
			}
			return
		}
	}
}

type broadcastMsg struct {
	matchID trivia.MatchID
	msg     []byte
}

// ToMatch sends a message to everyone watching a match.
func (h *Hub) ToMatch(id trivia.MatchID, msg interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(msg); err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	h.broadcast <- &broadcastMsg{
		matchID: id,
		msg:     buf.Bytes(),
	}

	return nil
}

type countReq struct {
	matchID trivia.MatchID
	resp    chan int
}

// Watchers returns the number of connections watching a match.
func (h *Hub) Watchers(id trivia.MatchID) int {
	req := &countReq{matchID: id, resp: make(chan int, 1)}
	h.count <- req
	return <-req.resp
}

// Register associates a connection with the hub and a given match.
func (h *Hub) Register(ws *websocket.Conn, id trivia.MatchID) {
	conn := &connection{
		id:      h.nextID.Add(1),
		h:       h,
		matchID: id,
		send:    make(chan []byte, 256),
		ws:      ws,
	}
	h.register <- conn
	go conn.writePump()
	go conn.readPump()
}
