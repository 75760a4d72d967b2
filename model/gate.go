package model

import (
	"time"

	"gorm.io/gorm"
)

// GateDirection describes which way traffic flows through a gate
type GateDirection string

const (
	GateDirectionEntry         GateDirection = "entry"
	GateDirectionExit          GateDirection = "exit"
	GateDirectionBidirectional GateDirection = "bidirectional"
)

// IsValid reports whether the direction is one of the known values
func (d GateDirection) IsValid() bool {
	switch d {
	case GateDirectionEntry, GateDirectionExit, GateDirectionBidirectional:
		return true
	}
	return false
}

// GateStatus captures the operational state of the gate hardware
type GateStatus string

const (
	GateStatusActive      GateStatus = "active"
	GateStatusInactive    GateStatus = "inactive"
	GateStatusMaintenance GateStatus = "maintenance"
	GateStatusError       GateStatus = "error"
)

// IsValid reports whether the status is one of the known values
func (s GateStatus) IsValid() bool {
	switch s {
	case GateStatusActive, GateStatusInactive, GateStatusMaintenance, GateStatusError:
		return true
	}
	return false
}

// AccessGate represents a physical access gate bound to reader hardware.
// GateCode and HardwareID are unique among live (non-deleted) rows; the
// uniqueness index enforces that scope, the DB index is a backstop.
type AccessGate struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	GateCode   string         `gorm:"type:varchar(50);not null;index" json:"gate_code"`
	HardwareID string         `gorm:"type:varchar(100);not null;index" json:"hardware_id"`
	Name       string         `gorm:"not null" json:"name"`

	// LocationID must reference a live location at creation time. It is a
	// weak reference afterwards: the location may be soft-deleted later and
	// the gate keeps pointing at it.
	LocationID uint `gorm:"not null;index" json:"location_id"`

	Direction  GateDirection `gorm:"type:varchar(20);not null;default:'bidirectional'" json:"direction"`
	IPAddress  string        `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	MACAddress string        `gorm:"type:varchar(17)" json:"mac_address,omitempty"`
	Status     GateStatus    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	EmergencyOverrideEnabled bool `gorm:"default:false" json:"emergency_override_enabled"`
	BackupPowerAvailable     bool `gorm:"default:false" json:"backup_power_available"`

	Location PhysicalLocation `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

// TableName specifies the table name for AccessGate
func (AccessGate) TableName() string {
	return "access_gates"
}

// IsDeleted reports whether the gate has been soft-deleted
func (g *AccessGate) IsDeleted() bool {
	return g.DeletedAt.Valid
}
