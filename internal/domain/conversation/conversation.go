// Package conversation provides the chat-thread domain: conversations,
// messages, and their image attachments.
package conversation

import (
	"context"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DefaultTitle is assigned when a conversation is created without one.
const DefaultTitle = "New Recipe Chat"

// Image is a stored media attachment owned by exactly one message. The
// underlying blob belongs to the record: deleting the image must release
// the blob as well.
type Image struct {
	ID        string    `json:"id"`
	MessageID string    `json:"messageId"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	S3Key     string    `json:"s3Key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one turn in a conversation. Messages are immutable once
// created: role and content are never edited and messages are never
// reordered.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Images         []Image   `json:"images"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation is a chat thread owned by exactly one user. Messages are
// ordered by creation time, oldest first.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is a list-view projection of a conversation: the most recent
// message plus a total message count.
type Summary struct {
	Conversation
	LastMessage  *Message `json:"lastMessage,omitempty"`
	MessageCount int64    `json:"messageCount"`
}

// Repository defines storage operations for conversations and their
// messages. Lookups return (nil, nil) when no row matches; classification
// into not-found errors happens in the service layer.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	// FindByIDAndUser returns the conversation with messages (and their
	// images) preloaded oldest-first, only when owned by userID.
	FindByIDAndUser(ctx context.Context, id, userID string) (*Conversation, error)
	FindSummariesByUser(ctx context.Context, userID string, limit, offset int) ([]*Summary, error)
	UpdateTitle(ctx context.Context, id, title string) error
	// Delete removes the conversation and cascades to its messages and
	// image rows inside one transaction.
	Delete(ctx context.Context, id string) error
	// ImageKeys returns the storage keys of every image attached to any
	// message of the conversation.
	ImageKeys(ctx context.Context, conversationID string) ([]string, error)
	AddMessage(ctx context.Context, msg *Message) error
	MessagesByConversation(ctx context.Context, conversationID string) ([]Message, error)
	Touch(ctx context.Context, id string, at time.Time) error
	CountMessages(ctx context.Context, conversationID string) (int64, error)
}
