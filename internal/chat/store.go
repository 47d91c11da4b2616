package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-chat-server/internal/models"
)

// DefaultPageSize is used when a listing request does not specify a limit.
const DefaultPageSize = 50

// Store persists messages and the per-room summary rows. Messages are
// append-only; the only mutation ever applied to one is the seen flag going
// from false to true.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// MessagePage is one page of a conversation, oldest first.
type MessagePage struct {
	Messages    []models.Message `json:"messages"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

// GetOrCreateRoom looks a room up by the canonical id for the pair, creating
// it on first use. Participants are stored in sorted order to match the id.
func (s *Store) GetOrCreateRoom(ctx context.Context, idA, idB string) (*models.ChatRoom, error) {
	roomID := RoomID(idA, idB)
	lo, hi := idA, idB
	if hi < lo {
		lo, hi = hi, lo
	}

	var room models.ChatRoom
	err := s.DB.WithContext(ctx).
		Where(models.ChatRoom{RoomID: roomID}).
		Attrs(models.ChatRoom{ParticipantAID: lo, ParticipantBID: hi}).
		FirstOrCreate(&room).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &room, nil
}

// Append creates a new message in a room with seen=false. The body is trimmed
// and must not end up empty; the type defaults to text.
func (s *Store) Append(ctx context.Context, roomID, senderID, receiverID, body string, msgType models.MessageType) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	switch msgType {
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeFile:
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}

	message := models.Message{
		ChatRoomID: roomID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Type:       msgType,
	}
	if err := s.DB.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &message, nil
}

// RecordSent refreshes the room's last-message fields and bumps the
// receiver's unread counter. The increment is a single upsert so concurrent
// sends cannot lose updates.
func (s *Store) RecordSent(ctx context.Context, roomID, senderID, receiverID, text string, at time.Time) error {
	db := s.DB.WithContext(ctx)

	err := db.Model(&models.ChatRoom{}).Where("room_id = ?", roomID).Updates(map[string]interface{}{
		"last_message":           text,
		"last_message_time":      at,
		"last_message_sender_id": senderID,
	}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			"updated_at": at,
		}),
	}).Create(&models.RoomUnread{RoomID: roomID, UserID: receiverID, Count: 1, UpdatedAt: at}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// Send appends a message from sender to receiver and updates the room
// summary, creating the room on first contact. Caller is expected to have
// authorized the pair already.
func (s *Store) Send(ctx context.Context, senderID, receiverID, body string, msgType models.MessageType) (*models.Message, error) {
	room, err := s.GetOrCreateRoom(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	message, err := s.Append(ctx, room.RoomID, senderID, receiverID, body, msgType)
	if err != nil {
		return nil, err
	}

	if err := s.RecordSent(ctx, room.RoomID, senderID, receiverID, message.Body, message.CreatedAt); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Preload("Sender").Preload("Receiver").
		First(message, "id = ?", message.ID).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return message, nil
}

// ListPage returns one page of a conversation for a viewer, oldest first.
// As a side effect every unseen message addressed to the viewer in the room
// is flipped to seen and the viewer's unread counter is reset.
func (s *Store) ListPage(ctx context.Context, roomID, viewerID string, page, limit int) (*MessagePage, error) {
	result, err := s.listPage(ctx, roomID, page, limit)
	if err != nil {
		return nil, err
	}
	if err := s.MarkSeen(ctx, roomID, viewerID); err != nil {
		return nil, err
	}
	return result, nil
}

// ListPageRaw returns one page of a room addressed by its raw id, with no
// seen side effect. Used by superadmin room inspection.
func (s *Store) ListPageRaw(ctx context.Context, roomID string, page, limit int) (*MessagePage, error) {
	return s.listPage(ctx, roomID, page, limit)
}

func (s *Store) listPage(ctx context.Context, roomID string, page, limit int) (*MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	db := s.DB.WithContext(ctx)

	var messages []models.Message
	err := db.Preload("Sender").Preload("Receiver").
		Where("chat_room_id = ?", roomID).
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	var total int64
	if err := db.Model(&models.Message{}).Where("chat_room_id = ?", roomID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	// Fetched newest-first for pagination, reversed so callers get
	// chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &MessagePage{
		Messages:    messages,
		CurrentPage: page,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// MarkSeen flips the viewer's unseen messages in the room to seen and resets
// the viewer's unread counter. The two statements are not wrapped in a
// transaction; Reconcile repairs any divergence.
func (s *Store) MarkSeen(ctx context.Context, roomID, viewerID string) error {
	db := s.DB.WithContext(ctx)

	err := db.Model(&models.Message{}).
		Where("chat_room_id = ? AND receiver_id = ? AND seen = ?", roomID, viewerID, false).
		Update("seen", true).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	err = db.Model(&models.RoomUnread{}).
		Where("room_id = ? AND user_id = ?", roomID, viewerID).
		Update("count", 0).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// CountUnseen returns the global number of unseen messages addressed to a
// recipient, across all rooms, straight from the message rows.
func (s *Store) CountUnseen(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND seen = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return count, nil
}

// Search finds messages whose body contains the query, case-insensitively,
// newest first.
func (s *Store) Search(ctx context.Context, query string, page, limit int) (*MessagePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	db := s.DB.WithContext(ctx)
	pattern := "%" + strings.ToLower(query) + "%"

	var messages []models.Message
	err := db.Preload("Sender").Preload("Receiver").
		Where("LOWER(body) LIKE ?", pattern).
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	var total int64
	if err := db.Model(&models.Message{}).Where("LOWER(body) LIKE ?", pattern).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return &MessagePage{
		Messages:    messages,
		CurrentPage: page,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// Reconcile recomputes every room's unread counters from the unseen message
// rows. The listing and mark-seen paths update counters and seen flags as two
// independent statements, so the aggregate can drift after a crash between
// them; this is the corrective job.
func (s *Store) Reconcile(ctx context.Context) (int, error) {
	db := s.DB.WithContext(ctx)

	var rooms []models.ChatRoom
	if err := db.Find(&rooms).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}

	repaired := 0
	for _, room := range rooms {
		for _, userID := range []string{room.ParticipantAID, room.ParticipantBID} {
			var unseen int64
			err := db.Model(&models.Message{}).
				Where("chat_room_id = ? AND receiver_id = ? AND seen = ?", room.RoomID, userID, false).
				Count(&unseen).Error
			if err != nil {
				return repaired, fmt.Errorf("%w: %v", ErrStore, err)
			}

			var current models.RoomUnread
			err = db.Where("room_id = ? AND user_id = ?", room.RoomID, userID).First(&current).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if unseen == 0 {
					continue
				}
				row := models.RoomUnread{RoomID: room.RoomID, UserID: userID, Count: int(unseen), UpdatedAt: time.Now()}
				if err := db.Create(&row).Error; err != nil {
					return repaired, fmt.Errorf("%w: %v", ErrStore, err)
				}
				repaired++
				continue
			}
			if err != nil {
				return repaired, fmt.Errorf("%w: %v", ErrStore, err)
			}
			if current.Count != int(unseen) {
				err := db.Model(&models.RoomUnread{}).
					Where("room_id = ? AND user_id = ?", room.RoomID, userID).
					Update("count", unseen).Error
				if err != nil {
					return repaired, fmt.Errorf("%w: %v", ErrStore, err)
				}
				repaired++
			}
		}
	}
	return repaired, nil
}
