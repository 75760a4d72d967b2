package location

import (
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/response"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/validation"
	"github.com/gofiber/fiber/v2"
)

var validate = validation.NewValidator()

// LocationHandler handles physical location endpoints
type LocationHandler struct {
	locations *services.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// CreateLocationRequest represents a location creation request
type CreateLocationRequest struct {
	Name         string `json:"name" validate:"required"`
	LocationType string `json:"location_type" validate:"required"`
	Description  string `json:"description,omitempty"`
	IsRestricted bool   `json:"is_restricted,omitempty"`
}

// Create handles POST /locations
func (h *LocationHandler) Create(c *fiber.Ctx) error {
	var req CreateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	location, err := h.locations.Create(c.Context(), services.CreateLocationInput{
		Name:         req.Name,
		LocationType: model.LocationType(req.LocationType),
		Description:  req.Description,
		IsRestricted: req.IsRestricted,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Created(c, location)
}

// List handles GET /locations
func (h *LocationHandler) List(c *fiber.Ctx) error {
	params := query.FromRequest(c, "location_type", "is_restricted")

	locations, total, err := h.locations.List(c.Context(), params)
	if err != nil {
		return response.ServiceError(c, err)
	}

	params.Normalize()
	return response.Paginated(c, query.NewPage(locations, total, params))
}

// Get handles GET /locations/:id
func (h *LocationHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid location ID")
	}

	location, err := h.locations.Get(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, location)
}

// UpdateLocationRequest represents a partial location update
type UpdateLocationRequest struct {
	Name         *string `json:"name,omitempty"`
	LocationType *string `json:"location_type,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsRestricted *bool   `json:"is_restricted,omitempty"`
}

// Update handles PATCH /locations/:id
func (h *LocationHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid location ID")
	}

	var req UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := services.UpdateLocationInput{
		Name:         req.Name,
		Description:  req.Description,
		IsRestricted: req.IsRestricted,
	}
	if req.LocationType != nil {
		lt := model.LocationType(*req.LocationType)
		input.LocationType = &lt
	}

	location, err := h.locations.Update(c.Context(), uint(id), input)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, location)
}

// Delete handles DELETE /locations/:id
func (h *LocationHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid location ID")
	}

	deletedAt, err := h.locations.Delete(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Location deleted", fiber.Map{
		"deleted_at": deletedAt,
	})
}

// Restore handles POST /locations/:id/restore
func (h *LocationHandler) Restore(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid location ID")
	}

	location, err := h.locations.Restore(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Location restored", location)
}
