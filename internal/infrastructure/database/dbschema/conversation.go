package dbschema

import (
	"time"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
	database.RegisterSchemaForAutoMigrate(Message{})
	database.RegisterSchemaForAutoMigrate(Image{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        string `gorm:"type:varchar(40);primaryKey"`
	UserID    string `gorm:"type:varchar(40);index:idx_conversation_user_updated;not null"`
	Title     string `gorm:"type:varchar(256);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index:idx_conversation_user_updated"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message represents the database schema for conversation messages.
// Messages are append-only: no UpdatedAt column.
type Message struct {
	ID             string    `gorm:"type:varchar(40);primaryKey"`
	ConversationID string    `gorm:"type:varchar(40);index:idx_message_conversation_created;not null"`
	Role           string    `gorm:"type:varchar(20);not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index:idx_message_conversation_created"`

	Images []Image `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "messages"
}

// Image represents the database schema for message image attachments
type Image struct {
	ID        string `gorm:"type:varchar(40);primaryKey"`
	MessageID string `gorm:"type:varchar(40);index;not null"`
	Filename  string `gorm:"type:varchar(512);not null"`
	MimeType  string `gorm:"type:varchar(100);not null"`
	S3Key     string `gorm:"type:varchar(512);not null"`
	URL       string `gorm:"type:varchar(1024);not null"`
	Size      int64  `gorm:"not null"`
	Width     int
	Height    int
	CreatedAt time.Time
}

func (Image) TableName() string {
	return "images"
}

// NewSchemaConversation creates a database schema from a domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	conv := &conversation.Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Messages:  make([]conversation.Message, 0, len(c.Messages)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, msg := range c.Messages {
		conv.Messages = append(conv.Messages, *msg.EtoD())
	}
	return conv
}

// NewSchemaMessage creates a database schema from a domain message
func NewSchemaMessage(m *conversation.Message) *Message {
	entity := &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Images:         make([]Image, 0, len(m.Images)),
	}
	for _, img := range m.Images {
		entity.Images = append(entity.Images, *NewSchemaImage(&img))
	}
	return entity
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *conversation.Message {
	msg := &conversation.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           conversation.Role(m.Role),
		Content:        m.Content,
		Images:         make([]conversation.Image, 0, len(m.Images)),
		CreatedAt:      m.CreatedAt,
	}
	for _, img := range m.Images {
		msg.Images = append(msg.Images, *img.EtoD())
	}
	return msg
}

// NewSchemaImage creates a database schema from a domain image
func NewSchemaImage(i *conversation.Image) *Image {
	return &Image{
		ID:        i.ID,
		MessageID: i.MessageID,
		Filename:  i.Filename,
		MimeType:  i.MimeType,
		S3Key:     i.S3Key,
		URL:       i.URL,
		Size:      i.Size,
		Width:     i.Width,
		Height:    i.Height,
		CreatedAt: i.CreatedAt,
	}
}

// EtoD converts database schema to domain image (Entity to Domain)
func (i *Image) EtoD() *conversation.Image {
	return &conversation.Image{
		ID:        i.ID,
		MessageID: i.MessageID,
		Filename:  i.Filename,
		MimeType:  i.MimeType,
		S3Key:     i.S3Key,
		URL:       i.URL,
		Size:      i.Size,
		Width:     i.Width,
		Height:    i.Height,
		CreatedAt: i.CreatedAt,
	}
}
