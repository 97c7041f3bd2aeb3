package controllers

import (
	"encoding/json"
	"net/http"

	"servermon/backend/app/socket"
	"servermon/backend/global"

	"github.com/gorilla/websocket"
)

var dashboardUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketController serves the operator dashboard socket. Clients send
// subscribe/unsubscribe messages per server and receive that server's
// event stream.
type SocketController struct {
	Hub *socket.Hub
}

func NewSocketController(hub *socket.Hub) *SocketController {
	return &SocketController{Hub: hub}
}

type subscribeMessage struct {
	Action   string `json:"action"` // subscribe,unsubscribe
	ServerID uint   `json:"serverId"`
}

func (c *SocketController) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := dashboardUpgrader.Upgrade(w, r, nil)
	if err != nil {
		global.Logger.Warn().Err(err).Msg("dashboard upgrade failed")
		return
	}
	client := c.Hub.Add(conn)
	defer c.Hub.Remove(client)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			client.Subscribe(socket.ServerGroup(msg.ServerID))
		case "unsubscribe":
			client.Unsubscribe(socket.ServerGroup(msg.ServerID))
		}
	}
}
