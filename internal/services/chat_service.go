package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Chat event types pushed to connected clients.
const (
	EventMessage = "message"
	EventRead    = "read"
	EventError   = "error"
)

type ChatEvent struct {
	Type     string              `json:"type"`
	RoomID   uint                `json:"room_id,omitempty"`
	Message  *models.ChatMessage `json:"message,omitempty"`
	ReaderID uint                `json:"reader_id,omitempty"`
	ReadAt   *time.Time          `json:"read_at,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// ChatNotifier delivers events to the listed users' live connections.
type ChatNotifier interface {
	Notify(userIDs []uint, event ChatEvent)
}

type ChatService struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Notifier ChatNotifier
	now      func() time.Time
}

func NewChatService(db *gorm.DB, log *zap.Logger, notifier ChatNotifier) *ChatService {
	return &ChatService{DB: db, Log: log, Notifier: notifier, now: time.Now}
}

const maxMessageLength = 5000

// OpenRoom returns the room between the caller and peer, creating it once.
// Rooms always pair one job seeker with one employer.
func (s *ChatService) OpenRoom(ctx context.Context, user *models.User, req *dtos.OpenRoomRequest) (*models.ChatRoom, error) {
	if req.PeerID == user.ID {
		return nil, invalid("cannot open a room with yourself")
	}
	var peer models.User
	if err := s.DB.WithContext(ctx).First(&peer, req.PeerID).Error; err != nil {
		return nil, notFound("user", err)
	}

	room := models.ChatRoom{JobID: req.JobID}
	switch {
	case user.Role == models.RoleJobSeeker && peer.Role == models.RoleEmployer:
		room.SeekerID, room.EmployerID = user.ID, peer.ID
	case user.Role == models.RoleEmployer && peer.Role == models.RoleJobSeeker:
		room.SeekerID, room.EmployerID = peer.ID, user.ID
	default:
		return nil, invalid("chat rooms pair a job seeker with an employer")
	}

	if req.JobID != 0 {
		var job models.Job
		if err := s.DB.WithContext(ctx).Preload("Company").First(&job, req.JobID).Error; err != nil {
			return nil, notFound("job", err)
		}
		if job.Company.OwnerID != room.EmployerID {
			return nil, invalid("job does not belong to this employer")
		}
	}

	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Seeker", "Employer").
		Create(&room).Error
	if err != nil {
		return nil, err
	}
	return s.loadRoom(ctx, room.SeekerID, room.EmployerID, room.JobID)
}

func (s *ChatService) ListRooms(ctx context.Context, user *models.User) ([]dtos.RoomSummary, error) {
	var rooms []models.ChatRoom
	err := s.DB.WithContext(ctx).
		Preload("Seeker").Preload("Employer").
		Where("seeker_id = ? OR employer_id = ?", user.ID, user.ID).
		// rooms without messages sort by creation time on every driver
		Order("COALESCE(last_message_at, created_at) DESC, id DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	out := make([]dtos.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		summary := dtos.RoomSummary{ChatRoom: r}

		var last models.ChatMessage
		res := s.DB.WithContext(ctx).Where("room_id = ?", r.ID).Order("id DESC").Limit(1).Find(&last)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			summary.LastMessage = &last
		}
		err := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
			Where("room_id = ? AND sender_id <> ? AND read_at IS NULL", r.ID, user.ID).
			Count(&summary.Unread).Error
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// Messages pages backwards from beforeID, newest first.
func (s *ChatService) Messages(ctx context.Context, user *models.User, roomID uint, q *dtos.MessageListQuery) ([]models.ChatMessage, error) {
	if _, err := s.memberRoom(ctx, user, roomID); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := s.DB.WithContext(ctx).Where("room_id = ?", roomID)
	if q.BeforeID != 0 {
		query = query.Where("id < ?", q.BeforeID)
	}
	msgs := []models.ChatMessage{}
	err := query.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

func (s *ChatService) Send(ctx context.Context, user *models.User, roomID uint, body, attachmentURL string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	attachmentURL = strings.TrimSpace(attachmentURL)
	if body == "" && attachmentURL == "" {
		return nil, invalid("message needs a body or an attachment")
	}
	if len([]rune(body)) > maxMessageLength {
		return nil, invalid("message is too long")
	}
	room, err := s.memberRoom(ctx, user, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{RoomID: room.ID, SenderID: user.ID, Body: body, AttachmentURL: attachmentURL}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatRoom{ID: room.ID}).Update("last_message_at", msg.CreatedAt).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.Notify([]uint{room.SeekerID, room.EmployerID}, ChatEvent{Type: EventMessage, RoomID: room.ID, Message: msg})
	}
	return msg, nil
}

// MarkRead marks every message from the other member as read.
func (s *ChatService) MarkRead(ctx context.Context, user *models.User, roomID uint) (*dtos.ReadResponse, error) {
	room, err := s.memberRoom(ctx, user, roomID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	res := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND read_at IS NULL", room.ID, user.ID).
		Update("read_at", now)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected > 0 && s.Notifier != nil {
		s.Notifier.Notify([]uint{otherMember(room, user.ID)}, ChatEvent{Type: EventRead, RoomID: room.ID, ReaderID: user.ID, ReadAt: &now})
	}
	return &dtos.ReadResponse{RoomID: room.ID, Marked: res.RowsAffected, ReadAt: now}, nil
}

func (s *ChatService) UnreadCount(ctx context.Context, user *models.User) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
		Joins("JOIN chat_rooms ON chat_rooms.id = chat_messages.room_id").
		Where("(chat_rooms.seeker_id = ? OR chat_rooms.employer_id = ?)", user.ID, user.ID).
		Where("chat_messages.sender_id <> ? AND chat_messages.read_at IS NULL", user.ID).
		Count(&count).Error
	return count, err
}

func (s *ChatService) memberRoom(ctx context.Context, user *models.User, roomID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.DB.WithContext(ctx).First(&room, roomID).Error; err != nil {
		return nil, notFound("chat room", err)
	}
	if room.SeekerID != user.ID && room.EmployerID != user.ID {
		return nil, fmt.Errorf("not a member of this room: %w", ErrForbidden)
	}
	return &room, nil
}

func (s *ChatService) loadRoom(ctx context.Context, seekerID, employerID, jobID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).
		Preload("Seeker").Preload("Employer").
		Where("seeker_id = ? AND employer_id = ? AND job_id = ?", seekerID, employerID, jobID).
		First(&room).Error
	if err != nil {
		return nil, notFound("chat room", err)
	}
	return &room, nil
}

func otherMember(room *models.ChatRoom, userID uint) uint {
	if room.SeekerID == userID {
		return room.EmployerID
	}
	return room.SeekerID
}
