package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Username     string    `bun:",notnull" json:"username"`
	Email        string    `bun:",notnull" json:"email"`
	PasswordHash string    `bun:",notnull" json:"-"`
}
