package gate

import (
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/response"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/validation"
	"github.com/gofiber/fiber/v2"
)

var validate = validation.NewValidator()

// GateHandler handles access gate endpoints
type GateHandler struct {
	gates *services.GateService
}

// NewGateHandler creates a new gate handler
func NewGateHandler(gates *services.GateService) *GateHandler {
	return &GateHandler{gates: gates}
}

// CreateGateRequest represents a gate registration request
type CreateGateRequest struct {
	GateCode                 string `json:"gate_code" validate:"required"`
	HardwareID               string `json:"hardware_id" validate:"required"`
	Name                     string `json:"name" validate:"required"`
	LocationID               uint   `json:"location_id" validate:"required"`
	Direction                string `json:"direction,omitempty"`
	IPAddress                string `json:"ip_address,omitempty"`
	MACAddress               string `json:"mac_address,omitempty"`
	Status                   string `json:"status,omitempty"`
	EmergencyOverrideEnabled bool   `json:"emergency_override_enabled,omitempty"`
	BackupPowerAvailable     bool   `json:"backup_power_available,omitempty"`
}

// Create handles POST /gates
func (h *GateHandler) Create(c *fiber.Ctx) error {
	var req CreateGateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	gate, err := h.gates.Create(c.Context(), services.CreateGateInput{
		GateCode:                 req.GateCode,
		HardwareID:               req.HardwareID,
		Name:                     req.Name,
		LocationID:               req.LocationID,
		Direction:                model.GateDirection(req.Direction),
		IPAddress:                req.IPAddress,
		MACAddress:               req.MACAddress,
		Status:                   model.GateStatus(req.Status),
		EmergencyOverrideEnabled: req.EmergencyOverrideEnabled,
		BackupPowerAvailable:     req.BackupPowerAvailable,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Created(c, gate)
}

// List handles GET /gates
func (h *GateHandler) List(c *fiber.Ctx) error {
	params := query.FromRequest(c, "status", "direction", "location_id")

	gates, total, err := h.gates.List(c.Context(), params)
	if err != nil {
		return response.ServiceError(c, err)
	}

	params.Normalize()
	return response.Paginated(c, query.NewPage(gates, total, params))
}

// Get handles GET /gates/:id
func (h *GateHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid gate ID")
	}

	gate, err := h.gates.Get(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, gate)
}

// UpdateGateRequest represents a partial gate update. Gate code and
// hardware ID are immutable after registration and are not accepted here.
type UpdateGateRequest struct {
	Name                     *string `json:"name,omitempty"`
	Direction                *string `json:"direction,omitempty"`
	IPAddress                *string `json:"ip_address,omitempty"`
	MACAddress               *string `json:"mac_address,omitempty"`
	Status                   *string `json:"status,omitempty"`
	EmergencyOverrideEnabled *bool   `json:"emergency_override_enabled,omitempty"`
	BackupPowerAvailable     *bool   `json:"backup_power_available,omitempty"`
}

// Update handles PATCH /gates/:id
func (h *GateHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid gate ID")
	}

	var req UpdateGateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := services.UpdateGateInput{
		Name:                     req.Name,
		IPAddress:                req.IPAddress,
		MACAddress:               req.MACAddress,
		EmergencyOverrideEnabled: req.EmergencyOverrideEnabled,
		BackupPowerAvailable:     req.BackupPowerAvailable,
	}
	if req.Direction != nil {
		d := model.GateDirection(*req.Direction)
		input.Direction = &d
	}
	if req.Status != nil {
		s := model.GateStatus(*req.Status)
		input.Status = &s
	}

	gate, err := h.gates.Update(c.Context(), uint(id), input)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, gate)
}

// Delete handles DELETE /gates/:id
func (h *GateHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid gate ID")
	}

	deletedAt, err := h.gates.Delete(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Gate deleted", fiber.Map{
		"deleted_at": deletedAt,
	})
}

// Restore handles POST /gates/:id/restore
func (h *GateHandler) Restore(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid gate ID")
	}

	gate, err := h.gates.Restore(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Gate restored", gate)
}
