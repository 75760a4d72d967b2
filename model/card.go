package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SubjectType identifies which person family a card belongs to
type SubjectType string

const (
	SubjectTypeStudent SubjectType = "student"
	SubjectTypeStaff   SubjectType = "staff"
)

// IsValid reports whether the subject type is one of the known values
func (t SubjectType) IsValid() bool {
	return t == SubjectTypeStudent || t == SubjectTypeStaff
}

// SubjectRef points at exactly one student or staff member
type SubjectRef struct {
	Type SubjectType `json:"subject_type" validate:"required,oneof=student staff"`
	ID   uint        `json:"subject_id" validate:"required,gt=0"`
}

// Key returns the uniqueness-index key for the subject, e.g. "student:41"
func (r SubjectRef) Key() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

func (r SubjectRef) String() string {
	return r.Key()
}

// Card is an RFID access credential issued to exactly one subject.
// At most one live (non-deleted) card exists per subject at any time; the
// uniqueness index is the arbiter, since soft-deleted cards must not block
// reissuance. Lifecycle fields are mutated only through the card service.
type Card struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	RFIDNumber string         `gorm:"type:varchar(64);not null;index" json:"rfid_number"`

	// Exactly one of StudentID / StaffID is set.
	StudentID *uint `gorm:"index" json:"student_id,omitempty"`
	StaffID   *uint `gorm:"index" json:"staff_id,omitempty"`

	IsActive   bool       `gorm:"default:true" json:"is_active"`
	IssuedDate time.Time  `gorm:"not null" json:"issued_date"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	PhotoURL   string     `gorm:"type:varchar(500)" json:"photo_url,omitempty"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Staff   *Staff   `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
}

// TableName specifies the table name for Card
func (Card) TableName() string {
	return "cards"
}

// SubjectRef returns the subject this card was issued to
func (c *Card) SubjectRef() SubjectRef {
	if c.StudentID != nil {
		return SubjectRef{Type: SubjectTypeStudent, ID: *c.StudentID}
	}
	if c.StaffID != nil {
		return SubjectRef{Type: SubjectTypeStaff, ID: *c.StaffID}
	}
	return SubjectRef{}
}

// IsExpired reports whether the card's expiry date has passed at t.
// Expiry is evaluated lazily at read time; it never flips stored state.
func (c *Card) IsExpired(t time.Time) bool {
	return c.ExpiryDate != nil && t.After(*c.ExpiryDate)
}

// IsLive reports whether the card is active, not deleted and not expired
func (c *Card) IsLive(t time.Time) bool {
	return !c.DeletedAt.Valid && c.IsActive && !c.IsExpired(t)
}
