package bookmarks

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers bookmark routes on a pre-configured
// group. The group is expected to require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cache Cache) {
	h := &handler{
		bookmarkService: NewService(db),
		cache:           cache,
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/exists", h.exists)
	g.GET("/nearest", h.nearest)
	g.GET("/book/:bookId", h.listForBook)
	g.DELETE("/book/:bookId", h.deleteForBook)
	g.GET("/book/:bookId/count", h.count)
	g.GET("/:id", h.retrieve)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}
