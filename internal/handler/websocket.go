package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"trajview/internal/dashboard"
	"trajview/internal/hub"
	"trajview/internal/render"
	"trajview/internal/selection"
)

type WSHandler struct {
	hub        *hub.Hub
	ctrl       *dashboard.Controller
	board      *toggleBoard
	table      *render.Table
	sendBuffer int
	logger     *slog.Logger
}

func NewWSHandler(h *hub.Hub, ctrl *dashboard.Controller, board *toggleBoard, table *render.Table, sendBuffer int, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:        h,
		ctrl:       ctrl,
		board:      board,
		table:      table,
		sendBuffer: sendBuffer,
		logger:     logger.With("component", "ws_handler"),
	}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type TablePayload struct {
	Columns []string     `json:"columns"`
	Rows    []render.Row `json:"rows"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, h.sendBuffer)

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// Registered first, so a redraw racing this connect is fanned out to the
	// client; the current frame is then skipped if it is already older.
	if h.ctrl.Loaded() {
		h.send(client, hub.TypeTable, TablePayload{Columns: render.Columns, Rows: h.table.Rows()})
		if h.hub.SendFrame(client, h.ctrl.Frame()) {
			ServerStats.IncWSMessagesOut()
		}
	}

	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	h.logger.Debug("client connected", "client_id", clientID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}
		ServerStats.IncWSMessagesIn()

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			h.send(client, hub.TypeError, errorResponse{Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case hub.TypeToggle:
			if !h.ctrl.Loaded() {
				h.send(client, hub.TypeError, errorResponse{Error: "dataset not loaded"})
				continue
			}
			var snap selection.Snapshot
			if err := json.Unmarshal(msg.Payload, &snap); err != nil {
				h.send(client, hub.TypeError, errorResponse{Error: "invalid toggle snapshot"})
				continue
			}
			// The resulting frame reaches this client through the hub.
			h.board.Apply(snap)

		case hub.TypePing:
			h.send(client, hub.TypePong, nil)

		default:
			h.send(client, hub.TypeError, errorResponse{Error: "unknown message type: " + msg.Type})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) send(client *hub.Client, msgType string, payload any) {
	data, err := hub.Encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", "type", msgType, "error", err)
		return
	}
	if client.Deliver(data) {
		ServerStats.IncWSMessagesOut()
	} else {
		h.logger.Debug("failed to send message, buffer full", "client_id", client.ID, "type", msgType)
	}
}
