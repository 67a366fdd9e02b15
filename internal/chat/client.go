package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/services"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 32
)

// Conn is the part of *websocket.Conn the pumps use.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one WebSocket connection of an authenticated user.
type Client struct {
	hub    *Hub
	conn   Conn
	send   chan []byte
	user   *models.User
	userID uint
	chat   *services.ChatService
	log    *zap.Logger
}

// inbound is a frame sent by the browser.
type inbound struct {
	Type          string `json:"type"`
	RoomID        uint   `json:"room_id"`
	Body          string `json:"body"`
	AttachmentURL string `json:"attachment_url"`
}

// Serve runs the connection until it closes. It blocks.
func (h *Hub) Serve(ctx context.Context, conn Conn, user *models.User, chat *services.ChatService) {
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		user:   user,
		userID: user.ID,
		chat:   chat,
		log:    h.log.With(zap.Uint("user_id", user.ID)),
	}
	h.Register(c)
	c.log.Debug("chat client connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump(ctx)
	<-done
	c.log.Debug("chat client disconnected")
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("chat read", zap.Error(err))
			}
			return
		}
		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			c.replyError("malformed frame")
			continue
		}
		c.handle(ctx, &frame)
	}
}

func (c *Client) handle(ctx context.Context, frame *inbound) {
	var err error
	switch frame.Type {
	case services.EventMessage:
		// Send notifies both members, this connection included
		_, err = c.chat.Send(ctx, c.user, frame.RoomID, frame.Body, frame.AttachmentURL)
	case services.EventRead:
		_, err = c.chat.MarkRead(ctx, c.user, frame.RoomID)
	default:
		c.replyError("unknown frame type")
		return
	}
	if err != nil {
		c.replyError(clientMessage(err))
	}
}

func (c *Client) replyError(msg string) {
	c.hub.sendTo(c, services.ChatEvent{Type: services.EventError, Error: msg})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// clientMessage hides internal errors from the socket.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrForbidden):
		return err.Error()
	default:
		return "internal error"
	}
}
