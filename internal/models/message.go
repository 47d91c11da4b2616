package models

// MessageType represents the kind of content a message carries
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Message represents a single chat message inside a room
type Message struct {
	BaseModel
	ChatRoomID string      `gorm:"size:110;index" json:"chatRoomId"`
	SenderID   string      `gorm:"size:36;index" json:"senderId"`
	ReceiverID string      `gorm:"size:36;index" json:"receiverId"`
	Body       string      `gorm:"type:text;not null" json:"message"`
	Type       MessageType `gorm:"size:10;default:'text'" json:"messageType"`
	Seen       bool        `gorm:"default:false" json:"seen"`
	FileURL    string      `gorm:"size:512" json:"fileUrl,omitempty"`
	FileName   string      `gorm:"size:255" json:"fileName,omitempty"`

	// Relations
	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}
