package utils

import (
	"math"
	"strconv"
	"strings"
)

// ToUint parses a positive decimal id as found in URL params. Ids are
// bounded to the INTEGER column range.
func ToUint(id string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 31)
	return uint(n), err
}

// ClampPage normalizes limit/page pagination input. Page is capped so the
// derived offset (page-1)*limit cannot overflow.
func ClampPage(limit, page, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if page <= 0 {
		page = 1
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return limit, page
}
