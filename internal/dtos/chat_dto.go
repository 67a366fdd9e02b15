package dtos

import (
	"time"

	"github.com/justsurfingit/job-portal/internal/models"
)

type OpenRoomRequest struct {
	PeerID uint `json:"peer_id" binding:"required"`
	JobID  uint `json:"job_id"`
}

type SendMessageRequest struct {
	Body          string `json:"body" binding:"max=5000"`
	AttachmentURL string `json:"attachment_url"`
}

type MessageListQuery struct {
	BeforeID uint `form:"before_id"`
	Limit    int  `form:"limit" binding:"omitempty,min=1,max=100"`
}

type RoomSummary struct {
	models.ChatRoom
	LastMessage *models.ChatMessage `json:"last_message"`
	Unread      int64               `json:"unread"`
}

type UnreadResponse struct {
	Unread int64 `json:"unread"`
}

type ReadResponse struct {
	RoomID uint      `json:"room_id"`
	Marked int64     `json:"marked"`
	ReadAt time.Time `json:"read_at"`
}
