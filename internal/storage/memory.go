package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStorage keeps uploaded objects in process memory.
type MemoryStorage struct {
	base string

	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStorage(base string) *MemoryStorage {
	return &MemoryStorage{base: base, objects: make(map[string][]byte)}
}

const memoryBucket = "images"

func (s *MemoryStorage) Upload(_ context.Context, obj Object, file io.Reader, _ int64) (string, string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("ошибка чтения файла: %w", err)
	}

	objectName, _ := ObjectName(obj, time.Now())

	s.mu.Lock()
	s.objects[objectName] = data
	s.mu.Unlock()

	return objectName, PublicURL(s.base, memoryBucket, objectName), nil
}

func (s *MemoryStorage) Delete(_ context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[objectName]; !ok {
		return fmt.Errorf("объект %s не найден", objectName)
	}
	delete(s.objects, objectName)
	return nil
}

func (s *MemoryStorage) DeleteURL(ctx context.Context, url string) error {
	objectName, err := ObjectFromURL(s.base, memoryBucket, url)
	if err != nil {
		return err
	}
	return s.Delete(ctx, objectName)
}

func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
