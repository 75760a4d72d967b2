package model

import (
	"time"

	"gorm.io/gorm"
)

// Operator roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User represents an operator account on the access-control dashboard
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'operator'" json:"role"` // operator, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                              // Increment to invalidate all user tokens

	AuditLogs []AdminAuditLog `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the operator holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
