// Package progress tracks where each user is in each of their books.
package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/novelreader/novelreader/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Get returns the saved position for the book. A book that has never been
// opened is at chapter 0, offset 0.
func (svc *Service) Get(ctx context.Context, userID, bookID int) (*models.Progress, error) {
	p := &models.Progress{}

	err := svc.db.
		NewSelect().
		Model(p).
		Where("bp.user_id = ?", userID).
		Where("bp.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Progress{UserID: userID, BookID: bookID}, nil
		}
		return nil, errors.WithStack(err)
	}

	return p, nil
}

// Save records the position, replacing whatever was saved before. Concurrent
// saves resolve to the last one written.
func (svc *Service) Save(ctx context.Context, userID, bookID, chapterIndex, offsetInChapter int) (*models.Progress, error) {
	now := time.Now()
	p := &models.Progress{
		CreatedAt:       now,
		UpdatedAt:       now,
		UserID:          userID,
		BookID:          bookID,
		ChapterIndex:    chapterIndex,
		OffsetInChapter: offsetInChapter,
	}

	_, err := svc.db.
		NewInsert().
		Model(p).
		On("CONFLICT (user_id, book_id) DO UPDATE").
		Set("chapter_index = EXCLUDED.chapter_index").
		Set("offset_in_chapter = EXCLUDED.offset_in_chapter").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return p, nil
}

// Clamp moves a position that points past the end of the book back to the
// start. Positions are stored as given, so a saved chapter index can outlive
// the chapter it referred to.
func Clamp(p models.Progress, chapterCount int) (models.Progress, bool) {
	if p.ChapterIndex >= 0 && p.ChapterIndex < chapterCount {
		return p, false
	}
	p.ChapterIndex = 0
	p.OffsetInChapter = 0
	return p, true
}
