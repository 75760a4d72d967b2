package model

import (
	"time"

	"gorm.io/gorm"
)

// Student represents an enrolled student a card can be issued to
type Student struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	RegNumber    string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"reg_number"`
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email        string         `gorm:"type:varchar(255)" json:"email"`
	Department   string         `gorm:"type:varchar(100);index" json:"department"`
	Programme    string         `gorm:"type:varchar(100)" json:"programme"`
	YearOfStudy  int            `gorm:"default:1" json:"year_of_study"`
	PhotoURL     string         `gorm:"type:varchar(500)" json:"photo_url,omitempty"`

	Cards []Card `gorm:"foreignKey:StudentID" json:"-"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}

// FullName returns the student's display name
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Staff represents a staff member a card can be issued to
type Staff struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	StaffNumber string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"staff_number"`
	FirstName   string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	Department  string         `gorm:"type:varchar(100);index" json:"department"`
	Position    string         `gorm:"type:varchar(100)" json:"position"`
	PhotoURL    string         `gorm:"type:varchar(500)" json:"photo_url,omitempty"`

	Cards []Card `gorm:"foreignKey:StaffID" json:"-"`
}

// TableName specifies the table name for Staff
func (Staff) TableName() string {
	return "staff_members"
}

// FullName returns the staff member's display name
func (s *Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// SubjectSnapshot is the read-only view of a subject returned by the
// kiosk verify endpoint
type SubjectSnapshot struct {
	SubjectType SubjectType `json:"subject_type"`
	SubjectID   uint        `json:"subject_id"`
	Number      string      `json:"number"`
	FullName    string      `json:"full_name"`
	Department  string      `json:"department"`
	PhotoURL    string      `json:"photo_url,omitempty"`
}
