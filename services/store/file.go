package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"sjsage522/carspecworker/internal/crawler"
	"sjsage522/carspecworker/logger"
	"sjsage522/carspecworker/pkg/errors"
)

const (
	BrandsFile = "brands.json"
	CarsFile   = "cars.json"
)

// FileStore writes the crawl result as indented JSON files in a directory
type FileStore struct {
	dir string
	log *logger.Logger
}

// NewFileStore creates a FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir: dir,
		log: logger.ForStore(),
	}
}

// Save writes brands to brands.json and vehicles to cars.json
func (s *FileStore) Save(ctx context.Context, brands []crawler.Brand, vehicles []crawler.Vehicle) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.NewPersistence(s.dir, "failed to create output directory", err)
	}

	if err := s.write(ctx, BrandsFile, brands); err != nil {
		return err
	}
	return s.write(ctx, CarsFile, vehicles)
}

func (s *FileStore) write(ctx context.Context, name string, v any) error {
	path := filepath.Join(s.dir, name)
	if err := ctx.Err(); err != nil {
		return errors.NewPersistence(path, "write canceled", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewPersistence(path, "failed to encode data", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewPersistence(path, "failed to write file", err)
	}

	s.log.Info().Str("path", path).Int("bytes", len(data)).Msg("Wrote crawl data")
	return nil
}
