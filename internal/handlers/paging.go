package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avilacode/bloomtrack-backend/internal/data/store"
)

// pageParams reads the cursor/limit query params. Limits are clamped again
// inside the store; this only picks the default.
func pageParams(c *gin.Context) (limit int, cursor string) {
	limit = store.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return limit, c.Query("cursor")
}

func respondPage[T any](c *gin.Context, page store.Page[T]) {
	items := page.Items
	if items == nil {
		items = []*T{}
	}
	RespondOK(c, gin.H{
		"items":       items,
		"next_cursor": page.NextCursor,
	})
}
