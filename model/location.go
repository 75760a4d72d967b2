package model

import (
	"time"

	"gorm.io/gorm"
)

// LocationType classifies a physical location in the campus hierarchy
type LocationType string

const (
	LocationTypeCampus   LocationType = "campus"
	LocationTypeBuilding LocationType = "building"
	LocationTypeFloor    LocationType = "floor"
	LocationTypeRoom     LocationType = "room"
	LocationTypeGate     LocationType = "gate"
	LocationTypeArea     LocationType = "area"
)

// ValidLocationTypes lists every accepted location type value
var ValidLocationTypes = []LocationType{
	LocationTypeCampus,
	LocationTypeBuilding,
	LocationTypeFloor,
	LocationTypeRoom,
	LocationTypeGate,
	LocationTypeArea,
}

// IsValid reports whether the location type is one of the known values
func (t LocationType) IsValid() bool {
	for _, v := range ValidLocationTypes {
		if t == v {
			return true
		}
	}
	return false
}

// PhysicalLocation represents a campus, building, floor, room, gate or area
// that access gates are attached to. Rows are soft-deleted only; a deleted
// location disappears from default listings but stays retrievable by id.
type PhysicalLocation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name         string         `gorm:"not null;index" json:"name"`
	LocationType LocationType   `gorm:"type:varchar(20);not null" json:"location_type"`
	Description  string         `gorm:"type:text" json:"description"`
	IsRestricted bool           `gorm:"default:false" json:"is_restricted"`

	// Back-reference only. Deleting the location never cascades to gates;
	// their location_id is allowed to dangle.
	Gates []AccessGate `gorm:"foreignKey:LocationID" json:"gates,omitempty"`
}

// TableName specifies the table name for PhysicalLocation
func (PhysicalLocation) TableName() string {
	return "physical_locations"
}

// IsDeleted reports whether the location has been soft-deleted
func (l *PhysicalLocation) IsDeleted() bool {
	return l.DeletedAt.Valid
}
