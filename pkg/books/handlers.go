package books

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/novelreader/novelreader/pkg/config"
	"github.com/novelreader/novelreader/pkg/epub"
	"github.com/novelreader/novelreader/pkg/errcodes"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/pkg/errors"
)

const fileField = "file"

type handler struct {
	bookService *Service
	config      *config.Config
}

type contentResponse struct {
	BookID   int            `json:"book_id"`
	Title    string         `json:"title"`
	Metadata epub.Metadata  `json:"metadata"`
	Chapters []epub.Chapter `json:"chapters"`
}

type previewResponse struct {
	BookID  int    `json:"book_id"`
	Preview string `json:"preview"`
}

func getUserFromContext(c echo.Context) (*models.User, error) {
	user, ok := c.Get("user").(*models.User)
	if !ok || user == nil {
		return nil, errcodes.Unauthorized("Authentication required")
	}
	return user, nil
}

func (h *handler) parseMetadata(c echo.Context) error {
	params := ParseMetadataPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fh, err := h.uploadedFile(params.FormFiles)
	if err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.WithStack(err)
	}

	md, err := h.bookService.ParseMetadata(data)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, md))
}

func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}

	params := UploadBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fh, err := h.uploadedFile(params.FormFiles)
	if err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	book, err := h.bookService.Upload(ctx, UploadOptions{
		UserID:      user.ID,
		Filename:    fh.Filename,
		File:        f,
		Title:       params.Title,
		Author:      optional(params.Author),
		Description: optional(params.Description),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}

	books, err := h.bookService.List(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, len(books)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) content(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, parsed, err := h.bookService.Content(ctx, user.ID, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, contentResponse{
		BookID:   book.ID,
		Title:    book.Title,
		Metadata: parsed.Metadata,
		Chapters: parsed.Chapters,
	}))
}

func (h *handler) preview(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	preview, err := h.bookService.Preview(ctx, user.ID, id, h.config.PreviewMaxChars)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, previewResponse{BookID: id, Preview: preview}))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := getUserFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.Delete(ctx, user.ID, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// uploadedFile returns the "file" part of a multipart upload, enforcing the
// configured size limit.
func (h *handler) uploadedFile(files map[string]*multipart.FileHeader) (*multipart.FileHeader, error) {
	fh, ok := files[fileField]
	if !ok || fh == nil {
		return nil, errcodes.ValidationError("file is required")
	}
	if fh.Size > h.config.MaxUploadSizeBytes() {
		return nil, errcodes.PayloadTooLarge(fmt.Sprintf("%d MB", h.config.MaxUploadSizeMB))
	}
	return fh, nil
}

// optional trims s and turns blank values into nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
