package bookmarks

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/novelreader/novelreader/pkg/epub"
	"github.com/novelreader/novelreader/pkg/errcodes"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Cache loads the parsed form of a book.
type Cache interface {
	GetOrParse(ctx context.Context, book *models.Book) (*epub.ParsedBook, error)
}

type handler struct {
	bookmarkService *Service
	cache           Cache
}

// bookmarkResponse is a bookmark with the titles a reader needs to display
// it. ChapterTitle is left out when the chapter can't be resolved.
type bookmarkResponse struct {
	*models.Bookmark
	// Label repeats Title for clients that still read the old name.
	Label        string  `json:"label"`
	BookTitle    string  `json:"book_title"`
	ChapterTitle *string `json:"chapter_title,omitempty"`
}

func getUserFromContext(c echo.Context) (*models.User, error) {
	user, ok := c.Get("user").(*models.User)
	if !ok || user == nil {
		return nil, errcodes.Unauthorized("Authentication required")
	}
	return user, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}

	params := CreateBookmarkPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	bm, err := h.bookmarkService.Create(ctx, user.ID, params.BookID, params.fields())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, h.enrichOne(ctx, bm)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookmark")
	}

	bm, err := h.bookmarkService.Retrieve(ctx, user.ID, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.enrichOne(ctx, bm)))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookmark")
	}

	params := UpdateBookmarkPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	bm, err := h.bookmarkService.Update(ctx, user.ID, id, params.fields())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.enrichOne(ctx, bm)))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Bookmark")
	}

	if err := h.bookmarkService.Delete(ctx, user.ID, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}

	bookmarks, err := h.bookmarkService.ListAll(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.enrich(ctx, bookmarks)))
}

func (h *handler) listForBook(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	_, bookmarks, err := h.bookmarkService.ListForBook(ctx, user.ID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.enrich(ctx, bookmarks)))
}

func (h *handler) deleteForBook(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	deleted, err := h.bookmarkService.DeleteAllForBook(ctx, user.ID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}

func (h *handler) count(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	count, err := h.bookmarkService.Count(ctx, user.ID, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"count": count}))
}

func (h *handler) exists(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}

	params := ExistsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	exists, err := h.bookmarkService.Exists(ctx, user.ID, params.BookID, *params.ChapterIndex, *params.CharacterOffset)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]bool{"exists": exists}))
}

func (h *handler) nearest(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}

	params := NearestQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	bookmarks, err := h.bookmarkService.NearestInChapter(ctx, user.ID, params.BookID, *params.ChapterIndex, *params.Offset)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(bookmarks) > params.Limit {
		bookmarks = bookmarks[:params.Limit]
	}

	return errors.WithStack(c.JSON(http.StatusOK, h.enrich(ctx, bookmarks)))
}

func (h *handler) enrichOne(ctx context.Context, bm *models.Bookmark) bookmarkResponse {
	return h.enrich(ctx, []*models.Bookmark{bm})[0]
}

// enrich attaches book and chapter titles. Each book is loaded from the
// parse cache at most once. A chapter that can't be resolved only drops the
// chapter title.
func (h *handler) enrich(ctx context.Context, bookmarks []*models.Bookmark) []bookmarkResponse {
	log := logger.FromContext(ctx)
	parsed := map[int]*epub.ParsedBook{}
	failed := map[int]bool{}

	resp := make([]bookmarkResponse, 0, len(bookmarks))
	for _, bm := range bookmarks {
		r := bookmarkResponse{Bookmark: bm, Label: bm.Title}
		if bm.Book == nil {
			resp = append(resp, r)
			continue
		}
		r.BookTitle = bm.Book.Title

		pb, ok := parsed[bm.BookID]
		if !ok && !failed[bm.BookID] {
			var err error
			pb, err = h.cache.GetOrParse(ctx, bm.Book)
			if err != nil {
				log.Err(err).Warn("failed to load book for bookmark titles", logger.Data{"book_id": bm.BookID})
				failed[bm.BookID] = true
			} else {
				parsed[bm.BookID] = pb
			}
		}

		if pb != nil {
			if title, ok := pb.ChapterTitle(bm.ChapterIndex); ok {
				r.ChapterTitle = &title
			} else {
				log.Warn("bookmark points past the last chapter", logger.Data{
					"bookmark_id":   bm.ID,
					"book_id":       bm.BookID,
					"chapter_index": bm.ChapterIndex,
				})
			}
		}

		resp = append(resp, r)
	}

	return resp
}
