package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pixcheckout/pkg/enums"
)

// UserRole grants an application role to a user. (user_id, role) is unique.
type UserRole struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID     `gorm:"column:user_id;type:uuid;not null"`
	Role      enums.AppRole `gorm:"column:role;type:text;not null"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
