package query

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// FromRequest extracts list parameters from the request query string.
// filterKeys names the parameters forwarded as exact-match filters; the
// per-collection Config still decides which of them reach the database.
func FromRequest(c *fiber.Ctx, filterKeys ...string) Params {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", strconv.Itoa(DefaultPageSize)))

	filters := make(map[string]string, len(filterKeys))
	for _, key := range filterKeys {
		if value := c.Query(key); value != "" {
			filters[key] = value
		}
	}

	return Params{
		Page:           page,
		PageSize:       pageSize,
		Search:         c.Query("search"),
		Ordering:       c.Query("ordering"),
		Filters:        filters,
		IncludeDeleted: c.QueryBool("include_deleted"),
	}
}
