package progress

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

// BookRetriever looks up a book owned by a user.
type BookRetriever interface {
	Retrieve(ctx context.Context, userID, bookID int) (*models.Book, error)
}

// BookParser returns the current parse of a book.
type BookParser interface {
	GetOrParse(ctx context.Context, book *models.Book) (*epub.ParsedBook, error)
}

type handler struct {
	progressService *Service
	books           BookRetriever
	parser          BookParser
}

type resumeResponse struct {
	BookID          int     `json:"book_id"`
	ChapterIndex    int     `json:"chapter_index"`
	OffsetInChapter int     `json:"offset_in_chapter"`
	ChapterCount    int     `json:"chapter_count"`
	ChapterTitle    *string `json:"chapter_title,omitempty"`
	Reset           bool    `json:"reset"`
}

func getUserFromContext(c echo.Context) (*models.User, error) {
	user, ok := c.Get("user").(*models.User)
	if !ok || user == nil {
		return nil, errcodes.Unauthorized("Authentication required")
	}
	return user, nil
}

// ownedBook resolves the :id param to a book the current user owns.
func (h *handler) ownedBook(c echo.Context) (*models.User, *models.Book, error) {
	user, err := getUserFromContext(c)
	if err != nil {
		return nil, nil, err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, nil, errcodes.NotFound("Book")
	}
	book, err := h.books.Retrieve(c.Request().Context(), user.ID, id)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return user, book, nil
}

func (h *handler) retrieve(c echo.Context) error {
	user, book, err := h.ownedBook(c)
	if err != nil {
		return err
	}

	p, err := h.progressService.Get(c.Request().Context(), user.ID, book.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}

func (h *handler) save(c echo.Context) error {
	user, book, err := h.ownedBook(c)
	if err != nil {
		return err
	}

	params := SaveProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	p, err := h.progressService.Save(c.Request().Context(), user.ID, book.ID, *params.ChapterIndex, *params.OffsetInChapter)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}

func (h *handler) resume(c echo.Context) error {
	ctx := c.Request().Context()
	user, book, err := h.ownedBook(c)
	if err != nil {
		return err
	}

	saved, err := h.progressService.Get(ctx, user.ID, book.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	// Clamp against the chapters the book has now. If it can't be parsed,
	// the count recorded at upload is the best we have.
	chapterCount := book.ChapterCount
	parsed, err := h.parser.GetOrParse(ctx, book)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to load parsed book for resume", logger.Data{"book_id": book.ID})
		parsed = nil
	} else {
		chapterCount = len(parsed.Chapters)
	}

	p, reset := Clamp(*saved, chapterCount)
	resp := resumeResponse{
		BookID:          book.ID,
		ChapterIndex:    p.ChapterIndex,
		OffsetInChapter: p.OffsetInChapter,
		ChapterCount:    chapterCount,
		Reset:           reset,
	}
	if title, ok := parsed.ChapterTitle(p.ChapterIndex); ok {
		resp.ChapterTitle = &title
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
