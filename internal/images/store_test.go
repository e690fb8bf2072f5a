package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	mu      sync.Mutex
	fetched map[string]int
	fail    bool
}

func (f *countingFetcher) FetchBytes(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return nil, fmt.Errorf("download failed: %s", url)
	}
	if f.fetched == nil {
		f.fetched = map[string]int{}
	}
	f.fetched[url]++
	return []byte("image-bytes"), nil
}

func (f *countingFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.fetched {
		n += c
	}
	return n
}

func newTestStore(t *testing.T, fetcher ByteFetcher) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), fetcher, 2, 800, 600)
	require.NoError(t, err)
	return store
}

func TestNormalize(t *testing.T) {
	store := newTestStore(t, &countingFetcher{})

	t.Run("applies fixed dimensions", func(t *testing.T) {
		got := store.Normalize("https://cdn.example/img/a.jpg")
		assert.Equal(t, "https://cdn.example/img/a.jpg?imheight=600&imwidth=800", got)
	})

	t.Run("overrides existing dimensions", func(t *testing.T) {
		a := store.Normalize("https://cdn.example/img/a.jpg?imwidth=120")
		b := store.Normalize("https://cdn.example/img/a.jpg?imwidth=3000&imheight=50")
		assert.Equal(t, a, b)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("https://cdn.example/img/a.jpg")
	b := Fingerprint("https://cdn.example/img/b.jpg")

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint("https://cdn.example/img/a.jpg"))
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("same asset downloads once across products", func(t *testing.T) {
		fetcher := &countingFetcher{}
		store := newTestStore(t, fetcher)

		first, err := store.Download(ctx, "https://cdn.example/img/a.jpg")
		require.NoError(t, err)
		// Same asset with different rendering params collapses to the same file.
		second, err := store.Download(ctx, "https://cdn.example/img/a.jpg?imwidth=120")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, fetcher.total())
	})

	t.Run("existing file is not re-validated", func(t *testing.T) {
		fetcher := &countingFetcher{}
		store := newTestStore(t, fetcher)

		normalized := store.Normalize("https://cdn.example/img/a.jpg")
		path := filepath.Join(store.dir, Fingerprint(normalized)+".jpg")
		require.NoError(t, os.WriteFile(path, []byte("truncated garbage"), 0o644))

		got, err := store.Download(ctx, "https://cdn.example/img/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, path, got)
		assert.Zero(t, fetcher.total())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "truncated garbage", string(data))
	})

	t.Run("concurrent downloads of one fingerprint are harmless", func(t *testing.T) {
		fetcher := &countingFetcher{}
		store := newTestStore(t, fetcher)

		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Download(ctx, "https://cdn.example/img/a.jpg"); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Zero(t, failures.Load())
		entries, err := os.ReadDir(store.dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestDownloadAll(t *testing.T) {
	fetcher := &countingFetcher{}
	store := newTestStore(t, fetcher)

	paths := store.DownloadAll(context.Background(), []string{
		"https://cdn.example/img/a.jpg",
		"https://cdn.example/img/b.jpg",
	})
	assert.Len(t, paths, 2)

	t.Run("failures are skipped", func(t *testing.T) {
		failing := newTestStore(t, &countingFetcher{fail: true})

		paths := failing.DownloadAll(context.Background(), []string{"https://cdn.example/img/c.jpg"})
		assert.Empty(t, paths)
	})
}
