package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/novelreader/novelreader/pkg/auth"
	"github.com/novelreader/novelreader/pkg/binder"
	"github.com/novelreader/novelreader/pkg/bookmarks"
	"github.com/novelreader/novelreader/pkg/books"
	"github.com/novelreader/novelreader/pkg/config"
	"github.com/novelreader/novelreader/pkg/errcodes"
	"github.com/novelreader/novelreader/pkg/parsecache"
	"github.com/novelreader/novelreader/pkg/progress"
	"github.com/novelreader/novelreader/pkg/storage"
	"github.com/novelreader/novelreader/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(cfg, db)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	store := storage.New(cfg.StorageDir)
	cache := parsecache.NewCache(cfg.CacheDir)

	booksGroup := e.Group("/books")
	booksGroup.Use(authMiddleware.Authenticate)
	bookService := books.RegisterRoutesWithGroup(booksGroup, db, cfg, store, cache)
	progress.RegisterRoutesWithGroup(booksGroup, db, bookService, cache)

	bookmarksGroup := e.Group("/bookmarks")
	bookmarksGroup.Use(authMiddleware.Authenticate)
	bookmarks.RegisterRoutesWithGroup(bookmarksGroup, db, cache)

	configGroup := e.Group("/config")
	configGroup.Use(authMiddleware.Authenticate)
	config.RegisterRoutesWithGroup(configGroup, cfg)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db, store, cache)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
