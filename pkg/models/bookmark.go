package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks,alias:bm"`

	ID              int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	UserID          int       `bun:",notnull" json:"user_id"`
	BookID          int       `bun:",notnull" json:"book_id"`
	ChapterIndex    int       `bun:",notnull" json:"chapter_index"`
	CharacterOffset int       `bun:",notnull" json:"character_offset"`
	ProgressPercent *float64  `json:"progress_percent"`
	Title           string    `bun:",notnull" json:"title"`
	Note            *string   `json:"note"`
	TextSnippet     *string   `json:"text_snippet"`
	Color           *string   `json:"color"`

	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"-"`
}
