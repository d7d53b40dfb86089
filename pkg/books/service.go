package books

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/novelreader/novelreader/pkg/epub"
	"github.com/novelreader/novelreader/pkg/errcodes"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/novelreader/novelreader/pkg/storage"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Cache is the subset of the parse cache the book service needs.
type Cache interface {
	GetOrParse(ctx context.Context, book *models.Book) (*epub.ParsedBook, error)
	Put(book *models.Book, parsed *epub.ParsedBook) error
	Invalidate(bookID int) error
}

// Store is where raw uploads are kept.
type Store interface {
	Save(ctx context.Context, ownerID int, original string, r io.Reader) (*storage.Stored, error)
	Remove(path string) error
}

type UploadOptions struct {
	UserID      int
	Filename    string
	File        io.Reader
	Title       string
	Author      *string
	Description *string
}

type Service struct {
	db    *bun.DB
	store Store
	cache Cache
}

func NewService(db *bun.DB, store Store, cache Cache) *Service {
	return &Service{db, store, cache}
}

// ParseMetadata reads the metadata of an EPUB without storing it.
func (svc *Service) ParseMetadata(data []byte) (*epub.Metadata, error) {
	md, err := epub.ParseMetadata(data)
	if err != nil {
		return nil, containerError(err)
	}
	return md, nil
}

// Upload stores the file, parses it and records the book. If the file
// can't be parsed, nothing is kept: the stored file is removed and no row
// is written. The row and the parse cache entry are written in the same
// transaction.
func (svc *Service) Upload(ctx context.Context, opts UploadOptions) (*models.Book, error) {
	log := logger.FromContext(ctx)

	stored, err := svc.store.Save(ctx, opts.UserID, opts.Filename, opts.File)
	if err != nil {
		if errors.Is(err, storage.ErrNotZip) {
			return nil, errcodes.MalformedContainer("")
		}
		log.Err(err).Error("failed to store upload", logger.Data{"user_id": opts.UserID})
		return nil, errcodes.StorageFailure()
	}

	discard := func() {
		if err := svc.store.Remove(stored.Path); err != nil {
			log.Err(err).Error("failed to remove rejected upload", logger.Data{"path": stored.Path})
		}
	}

	parsed, err := epub.ParseFile(ctx, stored.Path)
	if err != nil {
		discard()
		if errors.Is(err, epub.ErrMalformedContainer) {
			log.Info("rejected malformed upload", logger.Data{"user_id": opts.UserID, "reason": err.Error()})
			return nil, containerError(err)
		}
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	book := &models.Book{
		CreatedAt:    now,
		UpdatedAt:    now,
		UserID:       opts.UserID,
		Title:        opts.Title,
		Author:       opts.Author,
		Description:  opts.Description,
		Filepath:     stored.Path,
		FileSize:     stored.Size,
		ChapterCount: len(parsed.Chapters),
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := svc.cache.Put(book, parsed); err != nil {
			log.Err(err).Error("failed to write parse cache entry", logger.Data{"path": stored.Path})
			return errcodes.StorageFailure()
		}
		return nil
	})
	if err != nil {
		discard()
		if book.ID != 0 {
			_ = svc.cache.Invalidate(book.ID)
		}
		return nil, errors.WithStack(err)
	}

	log.Info("book uploaded", logger.Data{"book_id": book.ID, "user_id": book.UserID, "chapters": book.ChapterCount})

	return book, nil
}

// List returns the user's books, newest first.
func (svc *Service) List(ctx context.Context, userID int) ([]*models.Book, error) {
	books := []*models.Book{}

	err := svc.db.
		NewSelect().
		Model(&books).
		Where("b.user_id = ?", userID).
		Order("b.created_at DESC", "b.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}

// Retrieve returns a book owned by userID. Books owned by someone else are
// reported as not found.
func (svc *Service) Retrieve(ctx context.Context, userID, bookID int) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", bookID).
		Where("b.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// Content returns the parsed chapters of a book, parsing it again if the
// cache entry is missing or stale.
func (svc *Service) Content(ctx context.Context, userID, bookID int) (*models.Book, *epub.ParsedBook, error) {
	book, err := svc.Retrieve(ctx, userID, bookID)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := svc.cache.GetOrParse(ctx, book)
	if err != nil {
		if errors.Is(err, epub.ErrMalformedContainer) {
			return nil, nil, containerError(err)
		}
		logger.FromContext(ctx).Err(err).Error("failed to load book content", logger.Data{"book_id": book.ID})
		return nil, nil, errcodes.StorageFailure()
	}

	return book, parsed, nil
}

// Preview returns the opening text of a book, at most maxChars characters.
func (svc *Service) Preview(ctx context.Context, userID, bookID, maxChars int) (string, error) {
	_, parsed, err := svc.Content(ctx, userID, bookID)
	if err != nil {
		return "", err
	}
	return epub.GeneratePreview(parsed, maxChars), nil
}

// Delete removes a book together with its progress, bookmarks, cached parse
// and stored file. The rows go first; leftover files are only logged.
func (svc *Service) Delete(ctx context.Context, userID, bookID int) error {
	book, err := svc.Retrieve(ctx, userID, bookID)
	if err != nil {
		return err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewDelete().
			Model((*models.Bookmark)(nil)).
			Where("book_id = ?", book.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model((*models.Progress)(nil)).
			Where("book_id = ?", book.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model(book).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	log := logger.FromContext(ctx)
	if err := svc.cache.Invalidate(book.ID); err != nil {
		log.Err(err).Warn("failed to remove parse cache entry", logger.Data{"book_id": book.ID})
	}
	if err := svc.store.Remove(book.Filepath); err != nil {
		log.Err(err).Warn("failed to remove book file", logger.Data{"book_id": book.ID, "path": book.Filepath})
	}

	return nil
}

func containerError(err error) error {
	if errors.Is(err, epub.ErrMalformedContainer) {
		return errcodes.MalformedContainer(epub.MalformedDetail(err))
	}
	return errors.WithStack(err)
}
