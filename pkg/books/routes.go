package books

import (
	"github.com/labstack/echo/v4"
	"github.com/novelreader/novelreader/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// The group is expected to require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, store Store, cache Cache) *Service {
	bookService := NewService(db, store, cache)

	h := &handler{
		bookService: bookService,
		config:      cfg,
	}

	g.GET("", h.list)
	g.POST("/parse-metadata", h.parseMetadata)
	g.POST("/upload", h.upload)
	g.GET("/:id/content", h.content)
	g.GET("/:id/preview", h.preview)
	g.DELETE("/:id", h.delete)

	return bookService
}
