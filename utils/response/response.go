package response

import (
	"errors"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/services"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"github.com/gofiber/fiber/v2"
)

// Response represents a standardized API response
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created returns a 201 Created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// Paginated returns one page of a collection in the standard envelope
func Paginated(c *fiber.Ctx, page query.Page) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    page,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message, "FORBIDDEN")
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message, "NOT_FOUND")
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message, "CONFLICT")
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message, "TOO_MANY_REQUESTS")
}

// ValidationFailed returns a 422 response carrying field-level details
func ValidationFailed(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Response{
		Success: false,
		Data:    fields,
		Error: &ErrorDetail{
			Code:    string(services.KindValidation),
			Message: "Validation failed",
		},
	})
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// ServiceError decodes a typed service error into the envelope exactly
// once. The error kind maps to the HTTP status here and nowhere else;
// call sites never branch on response field names.
func ServiceError(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)

	status := fiber.StatusInternalServerError
	switch kind {
	case services.KindValidation:
		status = fiber.StatusUnprocessableEntity
	case services.KindDuplicateKey, services.KindDuplicateRfid,
		services.KindSubjectHasCredential, services.KindAlreadyDeleted,
		services.KindNotDeleted, services.KindInvalidTransition:
		status = fiber.StatusConflict
	case services.KindCredentialExpired:
		status = fiber.StatusUnprocessableEntity
	case services.KindNotFound:
		status = fiber.StatusNotFound
	case services.KindForbidden:
		status = fiber.StatusForbidden
	}

	detail := &ErrorDetail{
		Code:    string(kind),
		Message: err.Error(),
	}
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		detail.Field = svcErr.Field
		detail.Message = svcErr.Message
	}

	return c.Status(status).JSON(Response{
		Success: false,
		Error:   detail,
	})
}
