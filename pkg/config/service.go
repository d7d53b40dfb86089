package config

type Service struct {
	config *Config
}

func NewService(cfg *Config) *Service {
	return &Service{config: cfg}
}

// RetrieveReaderConfig returns the subset of the config that clients need to
// size uploads and previews.
func (s *Service) RetrieveReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		PreviewMaxChars:    s.config.PreviewMaxChars,
		MaxUploadSizeBytes: s.config.MaxUploadSizeBytes(),
	}
}
