package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sentiment-lens/internal/domain"
)

// Sink encodes an analysis and stores it, on S3 when an uploader is
// configured and under Dir otherwise.
type Sink struct {
	Dir         string
	Compression string
	Uploader    *S3Uploader
}

// Save returns the file path or s3:// URI of the stored artifact.
func (s *Sink) Save(ctx context.Context, a *domain.Analysis, format string) (string, error) {
	art, err := Encode(a, format, s.Compression)
	if err != nil {
		return "", err
	}
	if s.Uploader != nil {
		return s.Uploader.Upload(ctx, a, art)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, art.Name)
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
