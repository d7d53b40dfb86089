package testutils

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/novelreader/novelreader/pkg/auth"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type handler struct {
	db    *bun.DB
	store Store
	cache Cache
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// createUser creates a user without going through registration validation.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	email := req.Email
	if email == "" {
		email = req.Username + "@example.com"
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     req.Username,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	_, err = h.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
	})
}

// deleteResponse is the response body for the delete endpoints.
type deleteResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAllUsers deletes every user along with everything they own.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := h.deleteBooks(ctx); err != nil {
		return err
	}

	result, err := h.db.NewDelete().
		Model((*models.User)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete users")
	}

	deleted, _ := result.RowsAffected()

	return c.JSON(http.StatusOK, deleteResponse{
		Deleted: int(deleted),
	})
}

// deleteAllData deletes every book, bookmark and progress row but keeps
// users.
// DELETE /test/data.
func (h *handler) deleteAllData(c echo.Context) error {
	deleted, err := h.deleteBooks(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deleteResponse{
		Deleted: deleted,
	})
}

func (h *handler) deleteBooks(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var books []*models.Book
	err := h.db.NewSelect().Model(&books).Scan(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list books")
	}

	err = h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{(*models.Bookmark)(nil), (*models.Progress)(nil), (*models.Book)(nil)} {
			_, err := tx.NewDelete().Model(model).Where("1=1").Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete books")
	}

	for _, book := range books {
		if err := h.cache.Invalidate(book.ID); err != nil {
			log.Err(err).Warn("failed to invalidate parse cache", logger.Data{"book_id": book.ID})
		}
		if err := h.store.Remove(book.Filepath); err != nil {
			log.Err(err).Warn("failed to remove book file", logger.Data{"book_id": book.ID})
		}
	}

	return len(books), nil
}
