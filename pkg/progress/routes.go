package progress

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers progress routes on the books group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, books BookRetriever, parser BookParser) {
	h := &handler{
		progressService: NewService(db),
		books:           books,
		parser:          parser,
	}

	g.GET("/:id/progress", h.retrieve)
	g.POST("/:id/progress", h.save)
	g.GET("/:id/resume", h.resume)
}
