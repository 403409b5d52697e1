package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/laibajaved880/team-chat/internal/auth"
	"github.com/laibajaved880/team-chat/internal/core"
	"github.com/laibajaved880/team-chat/internal/proto"
	"github.com/laibajaved880/team-chat/internal/store"
)

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub         *core.Hub
	authService *auth.Service
	store       store.Store
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, st store.Store, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:         hub,
		authService: authService,
		store:       st,
		log:         logger,
	}
}

// Serve handles GET /ws/:room?username=U (or ?token=JWT). The identity and
// room are validated before any room state is mutated; a rejected handshake
// closes with StatusPolicyViolation.
func (h *WSHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()
	room := c.Param("room")

	username := strings.TrimSpace(c.Query("username"))
	if token := c.Query("token"); token != "" {
		claims, err := h.authService.ValidateToken(token)
		if err != nil {
			h.log.Debug().Err(err).Msg("ws handshake with invalid token")
			username = ""
		} else {
			username = claims.Username
		}
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if username == "" {
		conn.Close(websocket.StatusPolicyViolation, "username required")
		return
	}

	// The room row is created on the fly and the user row ensured before
	// the session goes live, so history appends cannot dangle.
	if _, err := h.store.EnsureRoom(ctx, room); err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("ensure room")
		conn.Close(websocket.StatusInternalError, "storage error")
		return
	}
	if _, err := h.store.EnsureUser(ctx, username); err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("ensure user")
		conn.Close(websocket.StatusInternalError, "storage error")
		return
	}

	client := core.NewClient(uuid.NewString())
	if err := h.hub.Join(client, username, room); err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws handshake rejected")
		conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	defer h.hub.Leave(client)
	defer h.touchLastSeen(username)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	h.hub.Leave(client) // deregister before draining so no new events queue up
	cancel()            // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop pumps inbound frames to the hub. A malformed or unknown frame is
// dropped without terminating the session; only transport errors end the loop.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("dropping malformed ws frame")
			continue
		}

		switch inbound.Type {
		case proto.TypeChat:
			if err := h.hub.Chat(client, inbound.Content); err != nil {
				h.log.Warn().Err(err).Str("client_id", client.ID).Msg("chat rejected")
			}
		case proto.TypeTyping:
			isTyping := true
			if inbound.IsTyping != nil {
				isTyping = *inbound.IsTyping
			}
			if err := h.hub.Typing(client, isTyping); err != nil {
				h.log.Warn().Err(err).Str("client_id", client.ID).Msg("typing rejected")
			}
		default:
			// Unknown frame types are ignored.
		}
	}
}

// writeLoop pumps hub events to the connection until the client is closed.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case ev := <-client.Events:
			frame := outboundFromEvent(ev)
			if frame == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) touchLastSeen(username string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.TouchLastSeen(ctx, username, time.Now().UTC()); err != nil {
		h.log.Warn().Err(err).Str("username", username).Msg("update last_seen")
	}
}
