package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/database"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"gorm.io/gorm"
)

// LocationService manages physical locations. Names are unique among live
// rows; a soft-deleted location frees its name for reuse, and restoring it
// after a reuse fails with a conflict.
type LocationService struct {
	db        *gorm.DB
	locations *database.Repository[model.PhysicalLocation]
	index     *UniquenessIndex
}

// NewLocationService creates a new location service
func NewLocationService(db *gorm.DB, index *UniquenessIndex) *LocationService {
	return &LocationService{
		db:        db,
		locations: database.NewRepository[model.PhysicalLocation](db),
		index:     index,
	}
}

// ListConfig is the filter-gateway whitelist for location listings
func (s *LocationService) ListConfig() query.Config {
	return query.Config{
		SearchFields: []string{"name", "description"},
		FilterFields: map[string]string{
			"location_type": "location_type",
			"is_restricted": "is_restricted",
		},
		OrderFields: map[string]string{
			"name":       "name",
			"created_at": "created_at",
			"updated_at": "updated_at",
		},
		DefaultOrder: "created_at DESC",
	}
}

// CreateLocationInput carries the validated fields for a new location
type CreateLocationInput struct {
	Name         string
	LocationType model.LocationType
	Description  string
	IsRestricted bool
}

// Create registers a new location after claiming its name
func (s *LocationService) Create(ctx context.Context, input CreateLocationInput) (*model.PhysicalLocation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrValidation("name", "name is required")
	}
	if !input.LocationType.IsValid() {
		return nil, ErrValidation("location_type", "unknown location type")
	}

	if err := s.index.Reserve(NamespaceLocationName, name, 0); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, NewFieldError(KindDuplicateKey, "name", "a live location with this name already exists")
		}
		return nil, err
	}

	location := model.PhysicalLocation{
		Name:         name,
		LocationType: input.LocationType,
		Description:  input.Description,
		IsRestricted: input.IsRestricted,
	}
	if err := s.locations.Create(ctx, &location); err != nil {
		s.index.Release(NamespaceLocationName, name)
		return nil, err
	}
	s.index.SetOwner(NamespaceLocationName, name, location.ID)

	return &location, nil
}

// Get fetches a location by id, including soft-deleted rows
func (s *LocationService) Get(ctx context.Context, id uint) (*model.PhysicalLocation, error) {
	location, err := s.locations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("location")
		}
		return nil, err
	}
	return location, nil
}

// List returns a page of locations through the filter gateway
func (s *LocationService) List(ctx context.Context, params query.Params) ([]model.PhysicalLocation, int64, error) {
	return s.locations.List(ctx, params, s.ListConfig())
}

// UpdateLocationInput carries the optional fields of a partial update
type UpdateLocationInput struct {
	Name         *string
	LocationType *model.LocationType
	Description  *string
	IsRestricted *bool
}

// Update applies a partial update. A name change re-runs the uniqueness
// claim before the row is touched.
func (s *LocationService) Update(ctx context.Context, id uint, input UpdateLocationInput) (*model.PhysicalLocation, error) {
	location, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if location.IsDeleted() {
		return nil, NewError(KindInvalidTransition, "location is deleted; restore it before editing")
	}

	fields := map[string]interface{}{}
	renamedFrom := ""

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrValidation("name", "name cannot be empty")
		}
		if name != location.Name {
			if err := s.index.Reserve(NamespaceLocationName, name, id); err != nil {
				return nil, NewFieldError(KindDuplicateKey, "name", "a live location with this name already exists")
			}
			renamedFrom = location.Name
			fields["name"] = name
		}
	}
	if input.LocationType != nil {
		if !input.LocationType.IsValid() {
			return nil, ErrValidation("location_type", "unknown location type")
		}
		fields["location_type"] = *input.LocationType
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.IsRestricted != nil {
		fields["is_restricted"] = *input.IsRestricted
	}

	if len(fields) == 0 {
		return location, nil
	}

	updated, err := s.locations.Update(ctx, id, fields)
	if err != nil {
		if newName, ok := fields["name"].(string); ok {
			s.index.Release(NamespaceLocationName, newName)
		}
		return nil, err
	}
	if renamedFrom != "" {
		s.index.Release(NamespaceLocationName, renamedFrom)
	}
	return updated, nil
}

// Delete soft-deletes a location and frees its name. Gates referencing it
// keep their location_id; the reference is allowed to dangle.
func (s *LocationService) Delete(ctx context.Context, id uint) (time.Time, error) {
	location, err := s.Get(ctx, id)
	if err != nil {
		return time.Time{}, err
	}

	deletedAt, err := s.locations.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyDeleted) {
			return time.Time{}, ErrAlreadyDeleted("location")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, ErrNotFound("location")
		}
		return time.Time{}, err
	}

	s.index.Release(NamespaceLocationName, location.Name)
	return deletedAt, nil
}

// Restore revives a soft-deleted location. The name must be reacquired:
// if it was reused while the row was deleted the restore fails with a
// descriptive conflict rather than silently colliding.
func (s *LocationService) Restore(ctx context.Context, id uint) (*model.PhysicalLocation, error) {
	location, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !location.IsDeleted() {
		return nil, ErrNotDeleted("location")
	}

	if err := s.index.Reacquire(NamespaceLocationName, location.Name, id); err != nil {
		return nil, NewFieldError(KindDuplicateKey, "name",
			"location name was reused while this location was deleted")
	}

	restored, err := s.locations.Restore(ctx, id)
	if err != nil {
		s.index.Release(NamespaceLocationName, location.Name)
		if errors.Is(err, database.ErrNotDeleted) {
			return nil, ErrNotDeleted("location")
		}
		return nil, err
	}
	return restored, nil
}
