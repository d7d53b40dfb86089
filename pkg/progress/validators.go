package progress

type SaveProgressPayload struct {
	ChapterIndex    *int `json:"chapter_index" validate:"required,gte=0"`
	OffsetInChapter *int `json:"offset_in_chapter" validate:"required,gte=0"`
}
