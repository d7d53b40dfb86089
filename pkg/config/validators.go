package config

type ReaderConfig struct {
	PreviewMaxChars    int   `json:"preview_max_chars"`
	MaxUploadSizeBytes int64 `json:"max_upload_size_bytes"`
}
