package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

func parseOptionalInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}

func queryLimit(c *gin.Context) (int, error) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil || limit < 0 {
		return 0, newValidationError("limit", "invalid_limit", "limit must be a positive integer")
	}
	return limit, nil
}

// siteIDParam parses the :id path segment. Malformed ids are reported as
// not found so callers cannot probe the id space.
func siteIDParam(c *gin.Context) (oid.ID, error) {
	id, err := oid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil || id.IsZero() {
		return oid.Nil, ErrNotFound
	}
	return id, nil
}
