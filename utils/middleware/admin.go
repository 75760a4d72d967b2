package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireAdmin ensures the authenticated operator holds the admin role.
// Runs after AuthMiddleware.Required.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok || user == nil {
			return response.Unauthorized(c, "Authentication required")
		}

		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}

		return c.Next()
	}
}

// AuditTrail writes an audit row for a mutating operation after the
// handler completes. Failed requests are recorded too: a rejected delete
// attempt is as interesting to an auditor as a successful one.
func AuditTrail(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, hasUser := GetUser(c)

		// Parse resource id from route params if available
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		// Capture the request body for the audit payload
		var newValue interface{}
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPatch || c.Method() == fiber.MethodPut {
			body := c.Body()
			if len(body) > 0 {
				json.Unmarshal(body, &newValue)
			}
		}

		err := c.Next()

		if !hasUser || user == nil {
			return err
		}

		newValueJSON, _ := json.Marshal(newValue)
		entry := model.AdminAuditLog{
			AdminID:     user.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    string(newValueJSON),
			IPAddress:   c.IP(),
			UserAgent:   c.Get("User-Agent"),
			Description: c.Method() + " " + c.Path(),
		}

		go func() {
			db.Create(&entry)
		}()

		return err
	}
}
