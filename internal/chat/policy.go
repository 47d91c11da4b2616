package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"crm-chat-server/internal/models"
)

// Policy decides who may talk to whom. The rules form a fixed table:
//
//	admin      -> only users whose managed-by reference equals the admin
//	user       -> only the admin referenced by its own managed-by field
//	superadmin -> anyone, including raw room-id access
type Policy struct {
	DB *gorm.DB
}

// NewPolicy creates a new Policy backed by the given database.
func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{DB: db}
}

// GetUser loads an identity from the directory.
func (p *Policy) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := p.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &user, nil
}

// Authorize checks whether actor may address targetID for chat purposes.
// The target must exist; beyond that the role table above applies.
func (p *Policy) Authorize(ctx context.Context, actor *models.User, targetID string) error {
	target, err := p.GetUser(ctx, targetID)
	if err != nil {
		return err
	}

	switch actor.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if target.CreatedByID != nil && *target.CreatedByID == actor.ID {
			return nil
		}
	case models.RoleUser:
		if actor.CreatedByID != nil && *actor.CreatedByID == targetID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not chat with %s", ErrAccessDenied, actor.ID, targetID)
}

// ConversationSummary is the wire form of a room for list views.
type ConversationSummary struct {
	RoomID            string                 `json:"roomId"`
	Participants      []models.UserSanitized `json:"participants"`
	LastMessage       string                 `json:"lastMessage"`
	LastMessageTime   time.Time              `json:"lastMessageTime"`
	LastMessageSender string                 `json:"lastMessageSender"`
	UnreadCount       map[string]int         `json:"unreadCount"`
}

// ListConversationsFor returns the conversation summaries actor may see,
// newest activity first. Admins see rooms shared with their own users, users
// see the single room with their admin, superadmins see everything.
func (p *Policy) ListConversationsFor(ctx context.Context, actor *models.User) ([]ConversationSummary, error) {
	db := p.DB.WithContext(ctx)
	query := db.Preload("Unreads").Order("last_message_time desc")

	var rooms []models.ChatRoom
	switch actor.Role {
	case models.RoleAdmin:
		managed := db.Model(&models.User{}).Select("id").Where("created_by_id = ?", actor.ID)
		query = query.Where(
			"(participant_a_id = ? AND participant_b_id IN (?)) OR (participant_b_id = ? AND participant_a_id IN (?))",
			actor.ID, managed, actor.ID, managed,
		)
	case models.RoleUser:
		if actor.CreatedByID == nil || *actor.CreatedByID == "" {
			return []ConversationSummary{}, nil
		}
		query = query.Where("room_id = ?", RoomID(actor.ID, *actor.CreatedByID))
	case models.RoleSuperAdmin:
		// unfiltered
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrAccessDenied, actor.Role)
	}

	if err := query.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return p.summarize(ctx, rooms)
}

// summarize loads the participants referenced by the rooms in one query and
// flattens each room into its wire form.
func (p *Policy) summarize(ctx context.Context, rooms []models.ChatRoom) ([]ConversationSummary, error) {
	ids := make([]string, 0, len(rooms)*2)
	for _, room := range rooms {
		ids = append(ids, room.ParticipantAID, room.ParticipantBID)
	}

	users := map[string]models.UserSanitized{}
	if len(ids) > 0 {
		var participants []models.User
		if err := p.DB.WithContext(ctx).Where("id IN (?)", ids).Find(&participants).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		for _, u := range participants {
			users[u.ID] = u.Sanitize()
		}
	}

	summaries := make([]ConversationSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := ConversationSummary{
			RoomID:            room.RoomID,
			Participants:      []models.UserSanitized{},
			LastMessage:       room.LastMessage,
			LastMessageTime:   room.LastMessageTime,
			LastMessageSender: room.LastMessageSenderID,
			UnreadCount:       room.UnreadMap(),
		}
		if u, ok := users[room.ParticipantAID]; ok {
			summary.Participants = append(summary.Participants, u)
		}
		if u, ok := users[room.ParticipantBID]; ok {
			summary.Participants = append(summary.Participants, u)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Contacts returns the identities actor is allowed to start a conversation
// with: an admin gets its own users, a user gets its admin, a superadmin gets
// every other account.
func (p *Policy) Contacts(ctx context.Context, actor *models.User) ([]models.UserSanitized, error) {
	db := p.DB.WithContext(ctx)

	var contacts []models.User
	switch actor.Role {
	case models.RoleAdmin:
		if err := db.Where("created_by_id = ?", actor.ID).Find(&contacts).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	case models.RoleUser:
		if actor.CreatedByID == nil || *actor.CreatedByID == "" {
			return []models.UserSanitized{}, nil
		}
		admin, err := p.GetUser(ctx, *actor.CreatedByID)
		if err != nil {
			return nil, err
		}
		contacts = []models.User{*admin}
	case models.RoleSuperAdmin:
		if err := db.Where("id <> ?", actor.ID).Find(&contacts).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrAccessDenied, actor.Role)
	}

	sanitized := make([]models.UserSanitized, 0, len(contacts))
	for _, u := range contacts {
		sanitized = append(sanitized, u.Sanitize())
	}
	return sanitized, nil
}
