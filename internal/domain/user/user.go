// Package user provides the identity domain: local user records mirrored
// from the Clerk identity provider.
package user

import (
	"context"
	"time"
)

// User is a local mirror of a Clerk account. The Clerk user id is the
// stable external key; ID is the internal prefixed identifier everything
// else references.
type User struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerkId"`
	Email     *string   `json:"email"`
	Name      *string   `json:"name"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the provider-side view of an account, as fetched from the
// Clerk Backend API or carried in a webhook payload.
type Profile struct {
	ClerkID string
	Email   *string
	Name    *string
	Avatar  *string
}

// EventType identifies a Clerk webhook event.
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"
)

// SyncEvent is a parsed identity webhook event.
type SyncEvent struct {
	Type    EventType
	Profile Profile
}

// Repository defines storage operations for users. FindByClerkID returns
// (nil, nil) when no row matches.
type Repository interface {
	FindByClerkID(ctx context.Context, clerkID string) (*User, error)
	// Upsert inserts or updates by Clerk id and returns the stored record.
	// newID is used only on insert.
	Upsert(ctx context.Context, newID string, profile Profile) (*User, error)
	DeleteByClerkID(ctx context.Context, clerkID string) error
}

// ProfileFetcher retrieves an account profile from the identity provider.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, clerkID string) (*Profile, error)
}
