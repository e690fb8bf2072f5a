// Package images stores downloaded product images under content-addressed
// file names. The fingerprint is computed from the normalized source URL, so
// the same asset referenced by any number of products is downloaded once.
package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// ByteFetcher is the download capability the store needs; the page fetcher
// satisfies it.
type ByteFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Store downloads images into a directory, de-duplicating by URL
// fingerprint. The semaphore caps concurrent downloads globally, across all
// product tasks sharing the store.
type Store struct {
	dir     string
	fetcher ByteFetcher
	sem     chan struct{}
	width   int
	height  int
}

// NewStore creates the image directory if needed and returns a store whose
// downloads are capped at maxConcurrent in flight.
func NewStore(dir string, fetcher ByteFetcher, maxConcurrent, width, height int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Store{
		dir:     dir,
		fetcher: fetcher,
		sem:     make(chan struct{}, maxConcurrent),
		width:   width,
		height:  height,
	}, nil
}

// Normalize applies the fixed width/height query parameters to an image URL
// so that visually-equivalent requests for the same asset collapse to one
// fingerprint. Unparseable URLs pass through unchanged.
func (s *Store) Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("imwidth", strconv.Itoa(s.width))
	q.Set("imheight", strconv.Itoa(s.height))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fingerprint returns the content-address of a normalized URL.
func Fingerprint(normalizedURL string) string {
	sum := md5.Sum([]byte(normalizedURL))
	return hex.EncodeToString(sum[:])
}

// Download fetches one image and returns its local path. A file already
// present at the fingerprinted path is reused without re-downloading or
// re-validating its contents. Two concurrent downloads of the same
// fingerprint both write the same bytes; the last write wins harmlessly.
func (s *Store) Download(ctx context.Context, rawURL string) (string, error) {
	normalized := s.Normalize(rawURL)
	path := filepath.Join(s.dir, Fingerprint(normalized)+".jpg")

	if _, err := os.Stat(path); err == nil {
		log.Debugf("Image already stored: %s", path)
		return path, nil
	}

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	data, err := s.fetcher.FetchBytes(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("failed to download image %s: %w", normalized, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store image %s: %w", path, err)
	}
	return path, nil
}

// DownloadAll downloads a product's images and returns the local paths of
// the ones that succeeded. Individual failures are logged and skipped; one
// broken image does not fail the product.
func (s *Store) DownloadAll(ctx context.Context, urls []string) []string {
	var paths []string
	for _, u := range urls {
		path, err := s.Download(ctx, u)
		if err != nil {
			log.Warnf("Skipping image: %v", err)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}
