package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Progress is a user's reading position in a book. There is at most one row
// per (user, book); a missing row reads as chapter 0, offset 0.
type Progress struct {
	bun.BaseModel `bun:"table:book_progress,alias:bp"`

	ID              int       `bun:",pk,autoincrement" json:"-"`
	CreatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"-"`
	UpdatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	UserID          int       `bun:",notnull" json:"user_id"`
	BookID          int       `bun:",notnull" json:"book_id"`
	ChapterIndex    int       `bun:",notnull" json:"chapter_index"`
	OffsetInChapter int       `bun:",notnull" json:"offset_in_chapter"`
}
