// Package responses defines the JSON shapes returned to the web client.
package responses

import (
	"time"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/domain/user"
)

// UserProfile is the owner projection embedded in conversation responses.
type UserProfile struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// ConversationDetail is a conversation with its full message history and
// owner profile.
type ConversationDetail struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Title     string                 `json:"title"`
	Messages  []conversation.Message `json:"messages"`
	User      *UserProfile           `json:"user,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// ConversationSummary is a list item: last message plus message count.
type ConversationSummary struct {
	ID           string                `json:"id"`
	UserID       string                `json:"userId"`
	Title        string                `json:"title"`
	LastMessage  *conversation.Message `json:"lastMessage,omitempty"`
	MessageCount int64                 `json:"messageCount"`
	User         *UserProfile          `json:"user,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// TurnResponse is the result of a chat turn.
type TurnResponse struct {
	UserMessage      conversation.Message `json:"userMessage"`
	AssistantMessage conversation.Message `json:"assistantMessage"`
	Conversation     TurnConversation     `json:"conversation"`
}

// TurnConversation is the conversation stamp attached to a turn response.
type TurnConversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessagesResponse wraps the message history of a conversation.
type MessagesResponse struct {
	Messages []conversation.Message `json:"messages"`
}

// SuccessResponse acknowledges a delete.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse reports service and database health.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	Environment string `json:"environment,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewUserProfile projects a domain user into the embedded owner shape.
func NewUserProfile(u *user.User) *UserProfile {
	if u == nil {
		return nil
	}
	return &UserProfile{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

// NewConversationDetail projects a domain conversation with its owner.
func NewConversationDetail(conv *conversation.Conversation, owner *user.User) ConversationDetail {
	messages := conv.Messages
	if messages == nil {
		messages = []conversation.Message{}
	}
	return ConversationDetail{
		ID:        conv.ID,
		UserID:    conv.UserID,
		Title:     conv.Title,
		Messages:  messages,
		User:      NewUserProfile(owner),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

// NewConversationSummary projects a domain summary with its owner.
func NewConversationSummary(s *conversation.Summary, owner *user.User) ConversationSummary {
	return ConversationSummary{
		ID:           s.ID,
		UserID:       s.UserID,
		Title:        s.Title,
		LastMessage:  s.LastMessage,
		MessageCount: s.MessageCount,
		User:         NewUserProfile(owner),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
