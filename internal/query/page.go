package query

import (
	"strconv"
	"strings"

	"paperapi/internal/apperr"
)

const (
	// DefaultPublicLimit is the page size of the public catalog.
	DefaultPublicLimit = 20
	// DefaultAdminLimit is the page size of the admin listing.
	DefaultAdminLimit = 10
	// MaxPageSize caps any requested page size.
	MaxPageSize = 100
)

// PageRequest selects one page of a listing. Page and Size are both >= 1.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows skipped before this page.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Size
}

// Pagination describes a page within a listing of Total rows.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Paginate derives the pagination envelope. Pages is ceil(total/size) and 0 when
// total is 0. The page number is not checked against Pages.
func Paginate(total int, req PageRequest) Pagination {
	pages := 0
	if total > 0 && req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}
	return Pagination{
		Page:  req.Page,
		Limit: req.Size,
		Total: total,
		Pages: pages,
	}
}

// ParsePageRequest parses page and limit query values. Empty values fall back
// to page 1 and defaultLimit; limits above MaxPageSize are capped.
func ParsePageRequest(pageStr, limitStr string, defaultLimit int) (PageRequest, error) {
	page, err := parsePositive("page", pageStr, 1)
	if err != nil {
		return PageRequest{}, err
	}
	size, err := parsePositive("limit", limitStr, defaultLimit)
	if err != nil {
		return PageRequest{}, err
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}, nil
}

func parsePositive(field, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperr.ValidationError{Field: field, Message: "must be an integer"}
	}
	if n < 1 {
		return 0, &apperr.ValidationError{Field: field, Message: "must be at least 1"}
	}
	return n, nil
}
