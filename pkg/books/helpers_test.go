package books

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/novelreader/novelreader/pkg/binder"
	"github.com/novelreader/novelreader/pkg/config"
	"github.com/novelreader/novelreader/pkg/errcodes"
	"github.com/novelreader/novelreader/pkg/migrations"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/novelreader/novelreader/pkg/parsecache"
	"github.com/novelreader/novelreader/pkg/storage"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testEnv struct {
	db       *bun.DB
	cfg      *config.Config
	store    *storage.Store
	cache    *parsecache.Cache
	service  *Service
	cacheDir string
}

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.NewForTest()
	cfg.StorageDir = t.TempDir()
	cfg.CacheDir = t.TempDir()

	db := setupTestDB(t)
	store := storage.New(cfg.StorageDir)
	cache := parsecache.NewCache(cfg.CacheDir)

	return &testEnv{
		db:       db,
		cfg:      cfg,
		store:    store,
		cache:    cache,
		service:  NewService(db, store, cache),
		cacheDir: cfg.CacheDir,
	}
}

func createUser(t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func newTestEcho(t *testing.T, env *testEnv) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	RegisterRoutesWithGroup(e.Group("/books"), env.db, env.cfg, env.store, env.cache)

	return e
}

// executeRequestWithUser runs the request through the router with the user
// already set on the context.
func executeRequestWithUser(t *testing.T, e *echo.Echo, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	if user != nil {
		c.Set("user", user)
	}

	e.Router().Find(req.Method, req.URL.Path, c)
	if err := c.Handler()(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	return rr
}

func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}
