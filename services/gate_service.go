package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/database"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/validation"
	"gorm.io/gorm"
)

// GateService manages access gates. Gate codes and hardware ids are unique
// among live rows. A gate must be created against a live location, but the
// reference is weak afterwards: deleting the location leaves the gate
// readable and listable with its location_id intact.
type GateService struct {
	db    *gorm.DB
	gates *database.Repository[model.AccessGate]
	index *UniquenessIndex
}

// NewGateService creates a new gate service
func NewGateService(db *gorm.DB, index *UniquenessIndex) *GateService {
	return &GateService{
		db:    db,
		gates: database.NewRepository[model.AccessGate](db),
		index: index,
	}
}

// ListConfig is the filter-gateway whitelist for gate listings
func (s *GateService) ListConfig() query.Config {
	return query.Config{
		SearchFields: []string{"name", "gate_code", "hardware_id"},
		FilterFields: map[string]string{
			"status":      "status",
			"direction":   "direction",
			"location_id": "location_id",
		},
		OrderFields: map[string]string{
			"name":       "name",
			"gate_code":  "gate_code",
			"created_at": "created_at",
			"updated_at": "updated_at",
		},
		DefaultOrder: "created_at DESC",
	}
}

// CreateGateInput carries the validated fields for a new gate
type CreateGateInput struct {
	GateCode                 string
	HardwareID               string
	Name                     string
	LocationID               uint
	Direction                model.GateDirection
	IPAddress                string
	MACAddress               string
	Status                   model.GateStatus
	EmergencyOverrideEnabled bool
	BackupPowerAvailable     bool
}

// validate checks every field before any reservation or store mutation,
// so a malformed request leaves no partial record behind
func (input *CreateGateInput) validate() error {
	input.GateCode = strings.TrimSpace(input.GateCode)
	input.HardwareID = strings.TrimSpace(input.HardwareID)
	input.Name = strings.TrimSpace(input.Name)

	if input.GateCode == "" {
		return ErrValidation("gate_code", "gate code is required")
	}
	if input.HardwareID == "" {
		return ErrValidation("hardware_id", "hardware id is required")
	}
	if input.Name == "" {
		return ErrValidation("name", "name is required")
	}
	if input.LocationID == 0 {
		return ErrValidation("location_id", "location id is required")
	}
	if input.Direction == "" {
		input.Direction = model.GateDirectionBidirectional
	}
	if !input.Direction.IsValid() {
		return ErrValidation("direction", "direction must be entry, exit or bidirectional")
	}
	if input.Status == "" {
		input.Status = model.GateStatusActive
	}
	if !input.Status.IsValid() {
		return ErrValidation("status", "unknown gate status")
	}
	if input.IPAddress != "" && !validation.ValidateIPv4(input.IPAddress) {
		return ErrValidation("ip_address", "ip address must be a valid dotted-quad IPv4 address")
	}
	if input.MACAddress != "" && !validation.ValidateMAC(input.MACAddress) {
		return ErrValidation("mac_address", "mac address must be six colon- or hyphen-separated octets")
	}
	return nil
}

// Create registers a new gate after validating the input, checking the
// owning location is live and claiming both hardware keys
func (s *GateService) Create(ctx context.Context, input CreateGateInput) (*model.AccessGate, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	// The owning location must be live at creation time only.
	var location model.PhysicalLocation
	if err := s.db.WithContext(ctx).First(&location, input.LocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewFieldError(KindValidation, "location_id", "location does not exist or is deleted")
		}
		return nil, err
	}

	if err := s.index.Reserve(NamespaceGateCode, input.GateCode, 0); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, NewFieldError(KindDuplicateKey, "gate_code", "gate code is already in use")
		}
		return nil, err
	}
	if err := s.index.Reserve(NamespaceHardwareID, input.HardwareID, 0); err != nil {
		s.index.Release(NamespaceGateCode, input.GateCode)
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, NewFieldError(KindDuplicateKey, "hardware_id", "hardware id is already in use")
		}
		return nil, err
	}

	gate := model.AccessGate{
		GateCode:                 input.GateCode,
		HardwareID:               input.HardwareID,
		Name:                     input.Name,
		LocationID:               input.LocationID,
		Direction:                input.Direction,
		IPAddress:                input.IPAddress,
		MACAddress:               input.MACAddress,
		Status:                   input.Status,
		EmergencyOverrideEnabled: input.EmergencyOverrideEnabled,
		BackupPowerAvailable:     input.BackupPowerAvailable,
	}
	if err := s.gates.Create(ctx, &gate); err != nil {
		s.index.Release(NamespaceGateCode, input.GateCode)
		s.index.Release(NamespaceHardwareID, input.HardwareID)
		return nil, err
	}
	s.index.SetOwner(NamespaceGateCode, input.GateCode, gate.ID)
	s.index.SetOwner(NamespaceHardwareID, input.HardwareID, gate.ID)

	return &gate, nil
}

// Get fetches a gate by id, including soft-deleted rows
func (s *GateService) Get(ctx context.Context, id uint) (*model.AccessGate, error) {
	gate, err := s.gates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("gate")
		}
		return nil, err
	}
	return gate, nil
}

// List returns a page of gates through the filter gateway
func (s *GateService) List(ctx context.Context, params query.Params) ([]model.AccessGate, int64, error) {
	return s.gates.List(ctx, params, s.ListConfig())
}

// UpdateGateInput carries the optional fields of a partial update.
// Gate code and hardware id are immutable once assigned; re-keying the
// hardware means registering a new gate.
type UpdateGateInput struct {
	Name                     *string
	Direction                *model.GateDirection
	IPAddress                *string
	MACAddress               *string
	Status                   *model.GateStatus
	EmergencyOverrideEnabled *bool
	BackupPowerAvailable     *bool
}

// Update applies a partial update to a live gate
func (s *GateService) Update(ctx context.Context, id uint, input UpdateGateInput) (*model.AccessGate, error) {
	gate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if gate.IsDeleted() {
		return nil, NewError(KindInvalidTransition, "gate is deleted; restore it before editing")
	}

	fields := map[string]interface{}{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrValidation("name", "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Direction != nil {
		if !input.Direction.IsValid() {
			return nil, ErrValidation("direction", "direction must be entry, exit or bidirectional")
		}
		fields["direction"] = *input.Direction
	}
	if input.IPAddress != nil {
		if *input.IPAddress != "" && !validation.ValidateIPv4(*input.IPAddress) {
			return nil, ErrValidation("ip_address", "ip address must be a valid dotted-quad IPv4 address")
		}
		fields["ip_address"] = *input.IPAddress
	}
	if input.MACAddress != nil {
		if *input.MACAddress != "" && !validation.ValidateMAC(*input.MACAddress) {
			return nil, ErrValidation("mac_address", "mac address must be six colon- or hyphen-separated octets")
		}
		fields["mac_address"] = *input.MACAddress
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrValidation("status", "unknown gate status")
		}
		fields["status"] = *input.Status
	}
	if input.EmergencyOverrideEnabled != nil {
		fields["emergency_override_enabled"] = *input.EmergencyOverrideEnabled
	}
	if input.BackupPowerAvailable != nil {
		fields["backup_power_available"] = *input.BackupPowerAvailable
	}

	if len(fields) == 0 {
		return gate, nil
	}
	return s.gates.Update(ctx, id, fields)
}

// Delete soft-deletes a gate and frees its gate code and hardware id
func (s *GateService) Delete(ctx context.Context, id uint) (time.Time, error) {
	gate, err := s.Get(ctx, id)
	if err != nil {
		return time.Time{}, err
	}

	deletedAt, err := s.gates.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyDeleted) {
			return time.Time{}, ErrAlreadyDeleted("gate")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, ErrNotFound("gate")
		}
		return time.Time{}, err
	}

	s.index.Release(NamespaceGateCode, gate.GateCode)
	s.index.Release(NamespaceHardwareID, gate.HardwareID)
	return deletedAt, nil
}

// Restore revives a soft-deleted gate, reacquiring both hardware keys.
// Either key may have been reused while the gate was deleted; the restore
// then fails with a conflict naming the field.
func (s *GateService) Restore(ctx context.Context, id uint) (*model.AccessGate, error) {
	gate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gate.IsDeleted() {
		return nil, ErrNotDeleted("gate")
	}

	if err := s.index.Reacquire(NamespaceGateCode, gate.GateCode, id); err != nil {
		return nil, NewFieldError(KindDuplicateKey, "gate_code",
			"gate code was reused while this gate was deleted")
	}
	if err := s.index.Reacquire(NamespaceHardwareID, gate.HardwareID, id); err != nil {
		s.index.Release(NamespaceGateCode, gate.GateCode)
		return nil, NewFieldError(KindDuplicateKey, "hardware_id",
			"hardware id was reused while this gate was deleted")
	}

	restored, err := s.gates.Restore(ctx, id)
	if err != nil {
		s.index.Release(NamespaceGateCode, gate.GateCode)
		s.index.Release(NamespaceHardwareID, gate.HardwareID)
		if errors.Is(err, database.ErrNotDeleted) {
			return nil, ErrNotDeleted("gate")
		}
		return nil, err
	}
	return restored, nil
}
