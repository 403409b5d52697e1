package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/laibajaved880/team-chat/internal/auth"
	"github.com/laibajaved880/team-chat/internal/core"
	"github.com/laibajaved880/team-chat/internal/store"
)

// APIHandlers provides HTTP handlers for the REST API endpoints.
type APIHandlers struct {
	authService  *auth.Service
	store        store.Store
	hub          *core.Hub
	log          *zerolog.Logger
	historyLimit int
	loginLimiter *rateLimiter
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, st store.Store, hub *core.Hub, logger *zerolog.Logger, historyLimit, loginRateLimit int) *APIHandlers {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &APIHandlers{
		authService:  authService,
		store:        st,
		hub:          hub,
		log:          logger,
		historyLimit: historyLimit,
		loginLimiter: newRateLimiter(loginRateLimit),
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
}

// LoginResponse represents the login response body.
type LoginResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// RoomsResponse represents the room listing response body.
type RoomsResponse struct {
	Rooms []string `json:"rooms"`
}

// MessageResponse represents one history message in API responses.
type MessageResponse struct {
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Room      string `json:"room"`
}

// MessagesResponse represents the history response body.
type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// OnlineResponse represents the live online-list response body.
type OnlineResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Login accepts a claimed username and returns it with a session token.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	if !h.loginLimiter.allow() {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many login attempts"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username required"})
		return
	}

	username, token, err := h.authService.Login(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidUsername) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username required"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", username).Msg("user logged in")
	c.JSON(http.StatusOK, LoginResponse{OK: true, Username: username, Token: token})
}

// ListRooms lists all room names.
// GET /api/rooms
func (h *APIHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if rooms == nil {
		rooms = []string{}
	}
	c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms})
}

// ListMessages returns the most recent messages of a room in chronological
// order, for replay before the WebSocket upgrade.
// GET /api/messages?room=R&limit=N
func (h *APIHandlers) ListMessages(c *gin.Context) {
	roomName := c.Query("room")
	if roomName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room required"})
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	room, err := h.store.GetRoomByName(c.Request.Context(), roomName)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomName).Msg("failed to query room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	msgs, err := h.store.ListRecentMessages(c.Request.Context(), roomName, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomName).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		response = append(response, MessageResponse{
			Username:  msg.Username,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt.Format(time.RFC3339Nano),
			Room:      msg.Room,
		})
	}
	c.JSON(http.StatusOK, MessagesResponse{Messages: response})
}

// Online returns the live online usernames of a room.
// GET /api/online?room=R
func (h *APIHandlers) Online(c *gin.Context) {
	roomName := c.Query("room")
	if roomName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room required"})
		return
	}
	c.JSON(http.StatusOK, OnlineResponse{Room: roomName, Users: h.hub.Online(roomName)})
}
