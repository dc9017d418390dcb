package dbschema

import (
	"time"

	"fridgewiz/server/internal/domain/user"
	"fridgewiz/server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(User{})
}

// User represents the database schema for users
type User struct {
	ID        string  `gorm:"type:varchar(40);primaryKey"`
	ClerkID   string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     *string `gorm:"type:varchar(256)"`
	Name      *string `gorm:"type:varchar(256)"`
	Avatar    *string `gorm:"type:varchar(512)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

// NewSchemaUser creates a database schema from a domain user
func NewSchemaUser(u *user.User) *User {
	return &User{
		ID:        u.ID,
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// EtoD converts database schema to domain user (Entity to Domain)
func (u *User) EtoD() *user.User {
	return &user.User{
		ID:        u.ID,
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
