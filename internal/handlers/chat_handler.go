package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/chat"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/services"
	"go.uber.org/zap"
)

type ChatHandler struct {
	Chat     *services.ChatService
	Hub      *chat.Hub
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewChatHandler accepts WebSocket upgrades from the given origins; "*" allows any.
func NewChatHandler(svc *services.ChatService, hub *chat.Hub, origins []string, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		Chat: svc,
		Hub:  hub,
		Log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *ChatHandler) OpenRoom(c *gin.Context) {
	var req dtos.OpenRoomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.Chat.OpenRoom(c.Request.Context(), auth.CurrentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *ChatHandler) ListRooms(c *gin.Context) {
	rooms, err := h.Chat.ListRooms(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *ChatHandler) Messages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var q dtos.MessageListQuery
	if !bindQuery(c, &q) {
		return
	}
	msgs, err := h.Chat.Messages(c.Request.Context(), auth.CurrentUser(c), id, &q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Chat.Send(c.Request.Context(), auth.CurrentUser(c), id, req.Body, req.AttachmentURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Chat.MarkRead(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) Unread(c *gin.Context) {
	n, err := h.Chat.UnreadCount(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.UnreadResponse{Unread: n})
}

// Connect upgrades GET /chat/ws. Browsers cannot set headers on a WebSocket,
// so the token may come in the query string.
func (h *ChatHandler) Connect(c *gin.Context) {
	user := auth.CurrentUser(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Hub.Serve(c.Request.Context(), conn, user, h.Chat)
}
