package linkstore

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/jsonfile"
)

// FileStore keeps every record in a single JSON document. Each Put is a
// read-modify-write of the whole file; concurrent writers for the same key
// race and the later write wins.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key string) (Record, error) {
	all, err := s.All(ctx)
	if err != nil {
		return Record{}, err
	}
	rec, ok := all[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *FileStore) Put(ctx context.Context, key string, rec Record) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("link mapping key is required")
	}
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	all[key] = rec
	return jsonfile.Write(s.path, all)
}

// All loads the document. A missing, empty, unreadable or corrupt file
// yields an empty map.
func (s *FileStore) All(_ context.Context) (map[string]Record, error) {
	out := map[string]Record{}
	if _, err := jsonfile.Read(s.path, &out); err != nil {
		log.Warnf("[LinkStore] Ignoring unreadable mapping file %s: %v", s.path, err)
		return map[string]Record{}, nil
	}
	return out, nil
}
