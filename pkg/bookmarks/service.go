// Package bookmarks manages a user's saved positions inside their books.
package bookmarks

import (
	"context"
	"database/sql"
	"time"

	"github.com/novelreader/novelreader/pkg/errcodes"
	"github.com/novelreader/novelreader/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Fields are the user-editable parts of a bookmark. Update replaces all of
// them.
type Fields struct {
	ChapterIndex    int
	CharacterOffset int
	ProgressPercent *float64
	Title           string
	Note            *string
	TextSnippet     *string
	Color           *string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Create adds a bookmark to a book owned by userID.
func (svc *Service) Create(ctx context.Context, userID, bookID int, fields Fields) (*models.Bookmark, error) {
	if _, err := svc.ownedBook(ctx, userID, bookID); err != nil {
		return nil, err
	}

	now := time.Now()
	bm := &models.Bookmark{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    userID,
		BookID:    bookID,
	}
	fields.apply(bm)

	_, err := svc.db.
		NewInsert().
		Model(bm).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return svc.Retrieve(ctx, userID, bm.ID)
}

// Update replaces the mutable fields of a bookmark owned by userID.
func (svc *Service) Update(ctx context.Context, userID, bookmarkID int, fields Fields) (*models.Bookmark, error) {
	bm := &models.Bookmark{ID: bookmarkID, UserID: userID, UpdatedAt: time.Now()}
	fields.apply(bm)

	res, err := svc.db.
		NewUpdate().
		Model(bm).
		Column("chapter_index", "character_offset", "progress_percent", "title", "note", "text_snippet", "color", "updated_at").
		Where("id = ?", bookmarkID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, errcodes.NotFound("Bookmark")
	}

	return svc.Retrieve(ctx, userID, bookmarkID)
}

// Retrieve returns a bookmark with its book loaded.
func (svc *Service) Retrieve(ctx context.Context, userID, bookmarkID int) (*models.Bookmark, error) {
	bm := &models.Bookmark{}

	err := svc.db.
		NewSelect().
		Model(bm).
		Relation("Book").
		Where("bm.id = ?", bookmarkID).
		Where("bm.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Bookmark")
		}
		return nil, errors.WithStack(err)
	}

	return bm, nil
}

func (svc *Service) Delete(ctx context.Context, userID, bookmarkID int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Bookmark)(nil)).
		Where("id = ?", bookmarkID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return errcodes.NotFound("Bookmark")
	}
	return nil
}

// DeleteAllForBook removes every bookmark the user has in a book and
// returns how many were removed.
func (svc *Service) DeleteAllForBook(ctx context.Context, userID, bookID int) (int, error) {
	if _, err := svc.ownedBook(ctx, userID, bookID); err != nil {
		return 0, err
	}

	res, err := svc.db.
		NewDelete().
		Model((*models.Bookmark)(nil)).
		Where("book_id = ?", bookID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	rows, err := res.RowsAffected()
	return int(rows), errors.WithStack(err)
}

// Exists reports whether there's a bookmark at exactly this position.
func (svc *Service) Exists(ctx context.Context, userID, bookID, chapterIndex, characterOffset int) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Bookmark)(nil)).
		Where("bm.user_id = ?", userID).
		Where("bm.book_id = ?", bookID).
		Where("bm.chapter_index = ?", chapterIndex).
		Where("bm.character_offset = ?", characterOffset).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

// ListForBook returns the bookmarks of a book in reading order.
func (svc *Service) ListForBook(ctx context.Context, userID, bookID int) (*models.Book, []*models.Bookmark, error) {
	book, err := svc.ownedBook(ctx, userID, bookID)
	if err != nil {
		return nil, nil, err
	}

	bookmarks := []*models.Bookmark{}
	err = svc.db.
		NewSelect().
		Model(&bookmarks).
		Where("bm.user_id = ?", userID).
		Where("bm.book_id = ?", bookID).
		Order("bm.chapter_index ASC", "bm.character_offset ASC", "bm.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	for _, bm := range bookmarks {
		bm.Book = book
	}
	return book, bookmarks, nil
}

// ListAll returns every bookmark of the user across books, newest first.
func (svc *Service) ListAll(ctx context.Context, userID int) ([]*models.Bookmark, error) {
	bookmarks := []*models.Bookmark{}

	err := svc.db.
		NewSelect().
		Model(&bookmarks).
		Relation("Book").
		Where("bm.user_id = ?", userID).
		Order("bm.created_at DESC", "bm.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return bookmarks, nil
}

// NearestInChapter returns the bookmarks of one chapter ordered by their
// distance from offset, closest first.
func (svc *Service) NearestInChapter(ctx context.Context, userID, bookID, chapterIndex, offset int) ([]*models.Bookmark, error) {
	book, err := svc.ownedBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	bookmarks := []*models.Bookmark{}
	err = svc.db.
		NewSelect().
		Model(&bookmarks).
		Where("bm.user_id = ?", userID).
		Where("bm.book_id = ?", bookID).
		Where("bm.chapter_index = ?", chapterIndex).
		OrderExpr("ABS(bm.character_offset - ?) ASC", offset).
		Order("bm.character_offset ASC", "bm.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, bm := range bookmarks {
		bm.Book = book
	}
	return bookmarks, nil
}

// Count returns how many bookmarks the user has in a book.
func (svc *Service) Count(ctx context.Context, userID, bookID int) (int, error) {
	if _, err := svc.ownedBook(ctx, userID, bookID); err != nil {
		return 0, err
	}

	count, err := svc.db.
		NewSelect().
		Model((*models.Bookmark)(nil)).
		Where("bm.user_id = ?", userID).
		Where("bm.book_id = ?", bookID).
		Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) ownedBook(ctx context.Context, userID, bookID int) (*models.Book, error) {
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

func (f Fields) apply(bm *models.Bookmark) {
	bm.ChapterIndex = f.ChapterIndex
	bm.CharacterOffset = f.CharacterOffset
	bm.ProgressPercent = f.ProgressPercent
	bm.Title = f.Title
	bm.Note = f.Note
	bm.TextSnippet = f.TextSnippet
	bm.Color = f.Color
}
