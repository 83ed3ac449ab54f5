package api

import (
	"strconv"
	"strings"

	"blocks/internal/domain"

	"github.com/gin-gonic/gin"
)

// queryBool returns nil when name is absent.
func queryBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	v := domain.ParseLooseBool(raw)
	return &v
}

// queryString returns nil when name is absent.
func queryString(c *gin.Context, name string) *string {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	return &raw
}

// queryID parses an identifier. ok is false when the parameter is present
// but not an integer, in which case no record can match.
func queryID(c *gin.Context, name string) (id *int64, ok bool) {
	raw, present := c.GetQuery(name)
	if !present {
		return nil, true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// queryCount parses limit/offset. Malformed or negative values are ignored.
func queryCount(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
