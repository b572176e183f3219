package license

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/unicover/unicover-lms/internal/storage"
)

type Store interface {
	Create(ctx context.Context, l License) (License, error)
	Get(ctx context.Context, id int64) (License, error)
	Update(ctx context.Context, l License) (License, error)
	SetFile(ctx context.Context, id int64, key string) (License, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, c Category, activeOnly bool) ([]License, error)
}

// Service ties license rows to their scans in the blob store.
type Service struct {
	Store Store
	Blobs storage.BlobStore
}

// Upload stores the scan under licenses/<category>/<filename> and points the
// license at it. A previous scan with a different key is removed.
func (s *Service) Upload(ctx context.Context, id int64, filename string, r io.Reader) (License, error) {
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return License{}, err
	}
	key, err := s.Blobs.Put(FileKey(l.Category, storage.SafeName(filename)), r)
	if err != nil {
		return License{}, fmt.Errorf("store file: %w", err)
	}
	out, err := s.Store.SetFile(ctx, id, key)
	if err != nil {
		return License{}, err
	}
	if l.FileKey != "" && l.FileKey != key {
		if err := s.Blobs.Delete(l.FileKey); err != nil {
			log.Printf("license: remove old file %s: %v", l.FileKey, err)
		}
	}
	return out, nil
}

// Open returns the scan of license id and its file name.
func (s *Service) Open(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if l.FileKey == "" {
		return nil, "", fmt.Errorf("license %d has no file: %w", id, ErrNotFound)
	}
	rc, err := s.Blobs.Get(l.FileKey)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(l.FileKey), nil
}

// Delete removes the row first, then its file.
func (s *Service) Delete(ctx context.Context, id int64) error {
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	if l.FileKey != "" {
		if err := s.Blobs.Delete(l.FileKey); err != nil {
			log.Printf("license: remove file %s: %v", l.FileKey, err)
		}
	}
	return nil
}
