package models

import (
	"time"
)

// ChatRoom is the denormalized summary row for a two-party conversation.
// RoomID is the canonical id derived from the sorted participant ids, so the
// participant columns always hold the lexicographically smaller id first.
type ChatRoom struct {
	BaseModel
	RoomID              string    `gorm:"uniqueIndex;size:110;not null" json:"roomId"`
	ParticipantAID      string    `gorm:"size:36;index" json:"-"`
	ParticipantBID      string    `gorm:"size:36;index" json:"-"`
	LastMessage         string    `gorm:"type:text" json:"lastMessage"`
	LastMessageTime     time.Time `gorm:"index" json:"lastMessageTime"`
	LastMessageSenderID string    `gorm:"size:36" json:"lastMessageSender"`

	// Relations
	Unreads []RoomUnread `gorm:"foreignKey:RoomID;references:RoomID" json:"-"`
}

// RoomUnread holds the per-recipient unread counter for one room. Kept as its
// own row so increments can be issued as a single atomic upsert instead of a
// read-modify-write on a serialized map.
type RoomUnread struct {
	RoomID    string    `gorm:"primaryKey;size:110" json:"roomId"`
	UserID    string    `gorm:"primaryKey;size:36" json:"userId"`
	Count     int       `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnreadMap flattens counter rows into the wire form: a plain id -> count
// object, present even when empty.
func (r *ChatRoom) UnreadMap() map[string]int {
	m := make(map[string]int, len(r.Unreads))
	for _, u := range r.Unreads {
		m[u.UserID] = u.Count
	}
	return m
}
