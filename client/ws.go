package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/web"
	"github.com/gorilla/websocket"
)

type WSHooks struct {
	// OnState is called with the full state when the server starts sending
	// updates.
	OnState func(*web.GameState)
	OnMove  func(*web.MoveMsg)
}

// ListenForUpdates watches the client's table until ctx is done or the server
// goes away. It returns nil when ctx ends it.
func (c *Client) ListenForUpdates(ctx context.Context, hooks WSHooks) error {
	scheme := "ws"
	if c.scheme == "https" {
		scheme = "wss"
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		Jar:              c.http.Jar,
	}
	conn, _, err := dialer.DialContext(ctx, scheme+"://"+c.addr+"/api/game/ws", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		// Control frames, pings included, are handled inside ReadMessage.
		messageType, message, err := conn.ReadMessage()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ReadMessage: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := hooks.handle(message); err != nil {
			return err
		}
	}
}

func (h WSHooks) handle(msg []byte) error {
	var justAction struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(msg, &justAction); err != nil {
		return fmt.Errorf("failed to unmarshal action from server: %w", err)
	}

	switch justAction.Action {
	case "STATE":
		var sm web.StateMsg
		if err := json.Unmarshal(msg, &sm); err != nil {
			return fmt.Errorf("bad STATE message: %w", err)
		}
		if h.OnState != nil {
			h.OnState(sm.Game)
		}
	case "MOVE":
		var mm web.MoveMsg
		if err := json.Unmarshal(msg, &mm); err != nil {
			return fmt.Errorf("bad MOVE message: %w", err)
		}
		if h.OnMove != nil {
			h.OnMove(&mm)
		}
	}
	// Unknown actions come from newer servers.
	return nil
}
