package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book is an uploaded EPUB. Title, author and description come from the
// upload form; the parsed chapters live in the parse cache keyed by ID.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID           int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"uploaded_at"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	UserID       int       `bun:",notnull" json:"user_id"`
	Title        string    `bun:",notnull" json:"title"`
	Author       *string   `json:"author"`
	Description  *string   `json:"description"`
	Filepath     string    `bun:",notnull" json:"-"`
	FileSize     int64     `bun:",notnull" json:"file_size"`
	ChapterCount int       `bun:",notnull" json:"chapter_count"`
}
