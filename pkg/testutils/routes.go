// Package testutils provides test-only API endpoints.
// These routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// Cache is the part of the parse cache the reset endpoint clears.
type Cache interface {
	Invalidate(bookID int) error
}

// Store removes uploaded files.
type Store interface {
	Remove(path string) error
}

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, db *bun.DB, store Store, cache Cache) {
	h := &handler{db: db, store: store, cache: cache}

	test := e.Group("/test")
	test.POST("/users", h.createUser)
	test.DELETE("/users", h.deleteAllUsers)
	test.DELETE("/data", h.deleteAllData)
}
