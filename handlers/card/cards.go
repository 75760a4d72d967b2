package card

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services/storage"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/middleware"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/response"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validation.NewValidator()

const (
	maxBulkSubjects = 500
	maxPhotoSize    = 5 * 1024 * 1024 // 5MB
)

// CardHandler handles access card endpoints
type CardHandler struct {
	cards   *services.CardService
	bulk    *services.BulkProvisionService
	storage *storage.Client
}

// NewCardHandler creates a new card handler. The storage client may be
// nil when object storage is not configured; photo uploads then return
// 503 instead of failing at startup.
func NewCardHandler(cards *services.CardService, bulk *services.BulkProvisionService, storageClient *storage.Client) *CardHandler {
	return &CardHandler{
		cards:   cards,
		bulk:    bulk,
		storage: storageClient,
	}
}

// SubjectRefRequest identifies a card holder in requests
type SubjectRefRequest struct {
	SubjectType string `json:"subject_type" validate:"required"`
	SubjectID   uint   `json:"subject_id" validate:"required"`
}

func (r SubjectRefRequest) toRef() model.SubjectRef {
	return model.SubjectRef{
		Type: model.SubjectType(r.SubjectType),
		ID:   r.SubjectID,
	}
}

// IssueCardRequest represents a single card issuance request
type IssueCardRequest struct {
	SubjectRefRequest
	GenerateRFID bool       `json:"generate_rfid,omitempty"`
	RFIDNumber   string     `json:"rfid_number,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
}

// Issue handles POST /cards/issue
func (h *CardHandler) Issue(c *fiber.Ctx) error {
	var req IssueCardRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	card, err := h.cards.Issue(c.Context(), services.IssueRequest{
		Subject:      req.toRef(),
		GenerateRFID: req.GenerateRFID,
		ExplicitRFID: req.RFIDNumber,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Created(c, card)
}

// BulkIssueRequest represents a batch card issuance request. An empty
// subject list is a valid batch and yields an all-zero summary.
type BulkIssueRequest struct {
	Subjects     []SubjectRefRequest `json:"subjects"`
	GenerateRFID bool                `json:"generate_rfid,omitempty"`
}

// BulkIssue handles POST /cards/bulk-issue
func (h *CardHandler) BulkIssue(c *fiber.Ctx) error {
	var req BulkIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if len(req.Subjects) > maxBulkSubjects {
		return response.BadRequest(c, fmt.Sprintf("Maximum %d subjects per batch", maxBulkSubjects))
	}

	subjects := make([]model.SubjectRef, len(req.Subjects))
	for i, s := range req.Subjects {
		subjects[i] = s.toRef()
	}

	var requestedBy *uint
	if userID, ok := middleware.GetUserID(c); ok {
		requestedBy = &userID
	}

	result, err := h.bulk.BulkIssue(c.Context(), subjects, req.GenerateRFID, requestedBy)
	if err != nil {
		return response.ServiceError(c, err)
	}

	// The batch as a whole succeeds even when individual items fail;
	// per-item outcomes are in the payload.
	return response.Success(c, result)
}

// ListJobs handles GET /cards/bulk-issue/jobs
func (h *CardHandler) ListJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	jobs, err := h.bulk.ListJobs(c.Context(), limit)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, jobs)
}

// List handles GET /cards
func (h *CardHandler) List(c *fiber.Ctx) error {
	params := query.FromRequest(c, "is_active", "student_id", "staff_id")

	cards, total, err := h.cards.List(c.Context(), params)
	if err != nil {
		return response.ServiceError(c, err)
	}

	params.Normalize()
	return response.Paginated(c, query.NewPage(cards, total, params))
}

// Get handles GET /cards/:id
func (h *CardHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	card, err := h.cards.Get(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, card)
}

// Activate handles POST /cards/:id/activate
func (h *CardHandler) Activate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	card, err := h.cards.Activate(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Card activated", card)
}

// Deactivate handles POST /cards/:id/deactivate
func (h *CardHandler) Deactivate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	card, err := h.cards.Deactivate(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Card deactivated", card)
}

// Delete handles DELETE /cards/:id
func (h *CardHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	deletedAt, err := h.cards.Delete(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Card deleted", fiber.Map{
		"deleted_at": deletedAt,
	})
}

// Restore handles POST /cards/:id/restore
func (h *CardHandler) Restore(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	card, err := h.cards.Restore(c.Context(), uint(id))
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Card restored", card)
}

// ExtendExpiryRequest represents an expiry extension request
type ExtendExpiryRequest struct {
	ExpiryDate time.Time `json:"expiry_date" validate:"required"`
}

// ExtendExpiry handles PATCH /cards/:id/expiry
func (h *CardHandler) ExtendExpiry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	var req ExtendExpiryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ExpiryDate.IsZero() {
		return response.BadRequest(c, "Expiry date is required")
	}

	card, err := h.cards.ExtendExpiry(c.Context(), uint(id), req.ExpiryDate)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Card expiry extended", card)
}

// UploadPhoto handles POST /cards/:id/photo
func (h *CardHandler) UploadPhoto(c *fiber.Ctx) error {
	if h.storage == nil {
		return response.Error(c, fiber.StatusServiceUnavailable,
			"Photo storage is not configured", "STORAGE_UNAVAILABLE")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid card ID")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return response.BadRequest(c, "A photo file is required")
	}
	if fileHeader.Size > maxPhotoSize {
		return response.BadRequest(c, "Photo exceeds maximum size of 5MB")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := photoContentTypes[ext]
	if !ok {
		return response.BadRequest(c, "Photo must be a JPEG or PNG image")
	}

	// Card must exist and be live before paying for the upload.
	if _, err := h.cards.Get(c.Context(), uint(id)); err != nil {
		return response.ServiceError(c, err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded photo")
	}
	defer file.Close()

	key := fmt.Sprintf("cards/%d/%s%s", id, uuid.New().String(), ext)
	url, err := h.storage.UploadFile(c.Context(), key, file, contentType)
	if err != nil {
		return response.InternalServerError(c, "Failed to store photo")
	}

	card, err := h.cards.SetPhotoURL(c.Context(), uint(id), url)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.SuccessWithMessage(c, "Photo uploaded", card)
}

var photoContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Verify handles GET /verify/:subject_type/:subject_id. It is the
// unauthenticated kiosk endpoint: an unknown subject or missing card
// answers verified=false with 200, never 404.
func (h *CardHandler) Verify(c *fiber.Ctx) error {
	subjectID, err := c.ParamsInt("subject_id")
	if err != nil || subjectID < 1 {
		return response.BadRequest(c, "Invalid subject ID")
	}

	ref := model.SubjectRef{
		Type: model.SubjectType(c.Params("subject_type")),
		ID:   uint(subjectID),
	}

	result, err := h.cards.Verify(c.Context(), ref)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, result)
}
