package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biedronka/scraper/internal/domain"
	"biedronka/scraper/internal/state"
	"biedronka/scraper/internal/tree"
)

// fakeSource serves canned products by URL and fails the URLs listed in
// failing. It tracks how many fetches run concurrently.
type fakeSource struct {
	mu          sync.Mutex
	failing     map[string]bool
	calls       []string
	inFlight    int
	maxInFlight int
}

func (f *fakeSource) Product(_ context.Context, pageURL string) (*domain.ProductRecord, []string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.failing[pageURL] {
		return nil, nil, errors.New("simulated transport error")
	}
	return &domain.ProductRecord{Title: "Product for " + pageURL},
		[]string{pageURL + "/img.jpg"}, nil
}

type fakeImages struct{}

func (fakeImages) DownloadAll(_ context.Context, urls []string) []string {
	paths := make([]string, 0, len(urls))
	for _, u := range urls {
		paths = append(paths, "data/images/"+strings.ReplaceAll(u, "/", "_"))
	}
	return paths
}

type memorySink struct {
	mu      sync.Mutex
	records []domain.ProductRecord
}

func (s *memorySink) Append(record *domain.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *memorySink) Close() error { return nil }

// recordingProgress remembers every marker the engine persists.
type recordingProgress struct {
	mu      sync.Mutex
	initial string
	markers []string
}

func (p *recordingProgress) LastLeafPath(context.Context) (string, error) {
	return p.initial, nil
}

func (p *recordingProgress) SetLastLeafPath(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers = append(p.markers, path)
	return nil
}

func dairyTree(t *testing.T, leaves int) *tree.Tree {
	t.Helper()

	tr := tree.New()
	_, err := tr.AddPage("", "Dairy", "/dairy")
	require.NoError(t, err)
	for i := 1; i <= leaves; i++ {
		_, err := tr.AddPage("Dairy", fmt.Sprintf("Item %d", i), fmt.Sprintf("/p/%d", i))
		require.NoError(t, err)
	}
	return tr
}

func TestRunRecordsLeavesAndSkipsFailures(t *testing.T) {
	tr := dairyTree(t, 2)
	source := &fakeSource{failing: map[string]bool{"/p/1": true}}
	records := &memorySink{}

	eng := New(source, fakeImages{}, records, nil, state.NewNoopProgressStore(), 5)
	require.NoError(t, eng.Run(context.Background(), tr, ""))

	// Item 1 failed and is simply absent from the log.
	require.Len(t, records.records, 1)
	got := records.records[0]
	assert.Equal(t, "Item 2", got.Name)
	assert.Equal(t, "/p/2", got.URL)
	assert.Equal(t, "Dairy/Item 2", got.AbsolutePath)
	assert.Equal(t, []string{"data/images/_p_2_img.jpg"}, got.Images)
}

func TestRunResumedAfterLastLeafVisitsNothing(t *testing.T) {
	tr := dairyTree(t, 2)
	source := &fakeSource{}
	records := &memorySink{}

	eng := New(source, fakeImages{}, records, nil, state.NewNoopProgressStore(), 5)
	require.NoError(t, eng.Run(context.Background(), tr, "Dairy/Item 2"))

	assert.Empty(t, source.calls)
	assert.Empty(t, records.records)
}

func TestRunUnresolvableMarkerFails(t *testing.T) {
	tr := dairyTree(t, 2)
	source := &fakeSource{}
	records := &memorySink{}

	eng := New(source, fakeImages{}, records, nil, state.NewNoopProgressStore(), 5)
	err := eng.Run(context.Background(), tr, "Dairy/Item 99")

	assert.ErrorIs(t, err, tree.ErrPathNotFound)
	assert.Empty(t, source.calls)
}

func TestRunBatchBoundaries(t *testing.T) {
	tr := dairyTree(t, 5)
	// A failure in the first batch must not stop later batches.
	source := &fakeSource{failing: map[string]bool{"/p/1": true}}
	records := &memorySink{}
	progress := &recordingProgress{}

	eng := New(source, fakeImages{}, records, nil, progress, 2)
	require.NoError(t, eng.Run(context.Background(), tr, ""))

	// Three batches of sizes 2, 2, 1: one marker per settled batch.
	assert.Equal(t, []string{"Dairy/Item 2", "Dairy/Item 4", "Dairy/Item 5"}, progress.markers)
	assert.Len(t, source.calls, 5)
	assert.Len(t, records.records, 4)
	assert.LessOrEqual(t, source.maxInFlight, 2)
}

func TestRunUsesSavedProgressWhenNoMarkerGiven(t *testing.T) {
	tr := dairyTree(t, 3)
	source := &fakeSource{}
	records := &memorySink{}
	progress := &recordingProgress{initial: "Dairy/Item 2"}

	eng := New(source, fakeImages{}, records, nil, progress, 5)
	require.NoError(t, eng.Run(context.Background(), tr, ""))

	assert.Equal(t, []string{"/p/3"}, source.calls)

	t.Run("explicit marker wins over saved progress", func(t *testing.T) {
		source.calls = nil
		records.records = nil

		require.NoError(t, eng.Run(context.Background(), tr, "Dairy/Item 1"))
		assert.ElementsMatch(t, []string{"/p/2", "/p/3"}, source.calls)
	})
}
