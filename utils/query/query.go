package query

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Params is the uniform list contract consumed by every collection
// endpoint: 1-based page, capped page size, free-text search, exact-match
// field filters (ANDed), and an ordering key with an optional leading '-'
// for descending.
type Params struct {
	Page           int
	PageSize       int
	Search         string
	Ordering       string
	Filters        map[string]string
	IncludeDeleted bool
}

// Config declares, per collection, which columns the gateway may touch.
// Search, filter and ordering columns are whitelisted here so a caller can
// never smuggle arbitrary SQL identifiers through query parameters.
type Config struct {
	SearchFields []string          // columns matched by free-text search
	FilterFields map[string]string // query param -> column
	OrderFields  map[string]string // ordering key -> column
	DefaultOrder string            // applied when no ordering is given
}

// Normalize clamps page and page size into their valid ranges
func (p *Params) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the row offset for the current page
func (p *Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Apply composes the search, filter and ordering clauses onto tx.
// An empty or absent filter value means "no constraint on that field",
// never "match empty string".
func (p *Params) Apply(tx *gorm.DB, cfg Config) *gorm.DB {
	if p.Search != "" && len(cfg.SearchFields) > 0 {
		clauses := make([]string, 0, len(cfg.SearchFields))
		args := make([]interface{}, 0, len(cfg.SearchFields))
		for _, field := range cfg.SearchFields {
			clauses = append(clauses, "LOWER("+field+") LIKE ?")
			args = append(args, "%"+strings.ToLower(p.Search)+"%")
		}
		tx = tx.Where(strings.Join(clauses, " OR "), args...)
	}

	for param, value := range p.Filters {
		if value == "" {
			continue
		}
		column, allowed := cfg.FilterFields[param]
		if !allowed {
			continue
		}
		tx = tx.Where(column+" = ?", value)
	}

	if order, ok := OrderClause(p.Ordering, cfg); ok {
		tx = tx.Order(order)
	} else if cfg.DefaultOrder != "" {
		tx = tx.Order(cfg.DefaultOrder)
	}

	return tx
}

// OrderClause resolves an ordering key against the whitelist. A leading '-'
// selects descending order. Unknown keys are ignored so the default order
// applies.
func OrderClause(ordering string, cfg Config) (string, bool) {
	if ordering == "" {
		return "", false
	}

	desc := strings.HasPrefix(ordering, "-")
	key := strings.TrimPrefix(ordering, "-")

	column, ok := cfg.OrderFields[key]
	if !ok {
		return "", false
	}
	if desc {
		return column + " DESC", true
	}
	return column + " ASC", true
}

// Page is the paginated envelope returned by list operations. Count is the
// total number of matching rows before pagination; Next and Previous carry
// adjacent page numbers, nil at either end.
type Page struct {
	Count    int64       `json:"count"`
	Next     *int        `json:"next"`
	Previous *int        `json:"previous"`
	Results  interface{} `json:"results"`
}

// NewPage builds the envelope for the given page of results
func NewPage(results interface{}, total int64, p Params) Page {
	page := Page{
		Count:   total,
		Results: results,
	}

	if int64(p.Offset()+p.PageSize) < total {
		next := p.Page + 1
		page.Next = &next
	}
	if p.Page > 1 {
		prev := p.Page - 1
		page.Previous = &prev
	}

	return page
}
