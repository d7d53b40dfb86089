package books

import "mime/multipart"

type ParseMetadataPayload struct {
	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

type UploadBookPayload struct {
	Title       string  `form:"title" json:"title" mod:"trim" validate:"required,max=255"`
	Author      *string `form:"author" json:"author,omitempty" validate:"omitempty,max=255"`
	Description *string `form:"description" json:"description,omitempty" validate:"omitempty,max=5000"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}
