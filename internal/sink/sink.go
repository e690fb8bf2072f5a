// Package sink writes the crawl outputs: the append-only product record log
// and the wholesale category export.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"biedronka/scraper/internal/domain"
)

// RecordWriter appends product records to a durable log.
type RecordWriter interface {
	Append(record *domain.ProductRecord) error
	Close() error
}

// FileSink appends newline-delimited JSON records to a single file. Each
// append is one complete line issued as a single write, so concurrent
// appends from sibling batch tasks cannot interleave partial records.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the record log for appending.
func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record log %s: %w", path, err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Append(record *domain.ProductRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", record.AbsolutePath, err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("failed to append record %s: %w", record.AbsolutePath, err)
	}
	return nil
}

// Close is safe to call more than once.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// WriteCategories writes the category export wholesale: one name/parent pair
// per line.
func WriteCategories(path string, pairs []domain.CategoryPair) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create category export %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, pair := range pairs {
		if err := enc.Encode(pair); err != nil {
			return fmt.Errorf("failed to write category %s: %w", pair.Name, err)
		}
	}
	return f.Close()
}
