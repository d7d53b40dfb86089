package bookmarks

type CreateBookmarkPayload struct {
	BookID          int      `json:"book_id" validate:"required,min=1"`
	ChapterIndex    *int     `json:"chapter_index" validate:"required,gte=0"`
	CharacterOffset *int     `json:"character_offset" validate:"required,gte=0"`
	ProgressPercent *float64 `json:"progress_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Title           string   `json:"title" mod:"trim" validate:"required_without=Label,max=255"`
	Label           string   `json:"label,omitempty" mod:"trim" validate:"max=255"`
	Note            *string  `json:"note,omitempty" validate:"omitempty,max=1000"`
	TextSnippet     *string  `json:"text_snippet,omitempty" validate:"omitempty,max=500"`
	Color           *string  `json:"color,omitempty" validate:"omitempty,color"`
}

type UpdateBookmarkPayload struct {
	ChapterIndex    *int     `json:"chapter_index" validate:"required,gte=0"`
	CharacterOffset *int     `json:"character_offset" validate:"required,gte=0"`
	ProgressPercent *float64 `json:"progress_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Title           string   `json:"title" mod:"trim" validate:"required_without=Label,max=255"`
	Label           string   `json:"label,omitempty" mod:"trim" validate:"max=255"`
	Note            *string  `json:"note,omitempty" validate:"omitempty,max=1000"`
	TextSnippet     *string  `json:"text_snippet,omitempty" validate:"omitempty,max=500"`
	Color           *string  `json:"color,omitempty" validate:"omitempty,color"`
}

type ExistsQuery struct {
	BookID          int  `query:"book_id" json:"book_id" validate:"required,min=1"`
	ChapterIndex    *int `query:"chapter_index" json:"chapter_index" validate:"required,gte=0"`
	CharacterOffset *int `query:"character_offset" json:"character_offset" validate:"required,gte=0"`
}

type NearestQuery struct {
	BookID       int  `query:"book_id" json:"book_id" validate:"required,min=1"`
	ChapterIndex *int `query:"chapter_index" json:"chapter_index" validate:"required,gte=0"`
	Offset       *int `query:"offset" json:"offset" validate:"required,gte=0"`
	Limit        int  `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
}

func (p CreateBookmarkPayload) fields() Fields {
	return UpdateBookmarkPayload{
		ChapterIndex:    p.ChapterIndex,
		CharacterOffset: p.CharacterOffset,
		ProgressPercent: p.ProgressPercent,
		Title:           p.Title,
		Label:           p.Label,
		Note:            p.Note,
		TextSnippet:     p.TextSnippet,
		Color:           p.Color,
	}.fields()
}

func (p UpdateBookmarkPayload) fields() Fields {
	return Fields{
		ChapterIndex:    *p.ChapterIndex,
		CharacterOffset: *p.CharacterOffset,
		ProgressPercent: p.ProgressPercent,
		Title:           titleOrLabel(p.Title, p.Label),
		Note:            p.Note,
		TextSnippet:     p.TextSnippet,
		Color:           p.Color,
	}
}

// titleOrLabel accepts "label" as an older name for "title". title wins
// when both are sent.
func titleOrLabel(title, label string) string {
	if title != "" {
		return title
	}
	return label
}
