package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProvisionJobStatus summarizes the outcome of a bulk issue run
type ProvisionJobStatus string

const (
	ProvisionJobStatusCompleted ProvisionJobStatus = "completed"
	ProvisionJobStatusPartial   ProvisionJobStatus = "partially_completed"
	ProvisionJobStatusFailed    ProvisionJobStatus = "failed"
)

// ProvisionJob records one bulk card-issue run for audit. Per-item failures
// live in the Errors JSON payload; successes are never rolled back, so the
// row is written once, after the whole batch has run to completion.
type ProvisionJob struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"-"`
	RequestedBy    *uint              `gorm:"index" json:"requested_by,omitempty"`
	TotalRequested int                `gorm:"not null" json:"total_requested"`
	Successful     int                `gorm:"not null" json:"successful"`
	Failed         int                `gorm:"not null" json:"failed"`
	Status         ProvisionJobStatus `gorm:"type:varchar(25);not null" json:"status"`
	Errors         datatypes.JSON     `json:"errors,omitempty"`

	Requester *User `gorm:"foreignKey:RequestedBy" json:"-"`
}

// TableName specifies the table name for ProvisionJob
func (ProvisionJob) TableName() string {
	return "provision_jobs"
}
