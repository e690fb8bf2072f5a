// Package engine replays the leaves of a navigation tree: each leaf is fetched,
// extracted, its images downloaded, and one record appended to the output
// log. Leaves are processed in fixed-size batches; batches run strictly one
// after another while the tasks inside a batch run concurrently.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"biedronka/scraper/internal/domain"
	"biedronka/scraper/internal/repository"
	"biedronka/scraper/internal/sink"
	"biedronka/scraper/internal/state"
	"biedronka/scraper/internal/tree"

	log "github.com/sirupsen/logrus"
)

// ProductSource fetches and extracts one product detail page, returning the
// extracted fields plus the page's image source URLs.
type ProductSource interface {
	Product(ctx context.Context, pageURL string) (*domain.ProductRecord, []string, error)
}

// ImageDownloader stores a product's images locally and returns the paths of
// the ones that succeeded.
type ImageDownloader interface {
	DownloadAll(ctx context.Context, urls []string) []string
}

type Engine struct {
	source    ProductSource
	images    ImageDownloader
	records   sink.RecordWriter
	mirror    repository.ProductRepository // optional, nil when no database is configured
	progress  state.ProgressStore
	batchSize int
}

func New(
	source ProductSource,
	images ImageDownloader,
	records sink.RecordWriter,
	mirror repository.ProductRepository,
	progress state.ProgressStore,
	batchSize int,
) *Engine {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Engine{
		source:    source,
		images:    images,
		records:   records,
		mirror:    mirror,
		progress:  progress,
		batchSize: batchSize,
	}
}

// Run replays every leaf after the resume marker. When no marker is given
// the persisted progress state, if any, supplies one. Per-leaf failures are
// logged and skipped; only an unresolvable marker aborts the run.
func (e *Engine) Run(ctx context.Context, t *tree.Tree, resumeAfter string) error {
	if resumeAfter == "" {
		saved, err := e.progress.LastLeafPath(ctx)
		if err != nil {
			log.Warnf("Ignoring saved progress: %v", err)
		} else if saved != "" {
			log.Infof("Resuming after %s (saved progress)", saved)
			resumeAfter = saved
		}
	}

	leaves, err := t.Leaves(resumeAfter)
	if err != nil {
		return fmt.Errorf("failed to collect leaves: %w", err)
	}

	total := len(leaves)
	var recorded atomic.Int64

	for start := 0; start < total; start += e.batchSize {
		end := min(start+e.batchSize, total)
		batch := leaves[start:end]

		// Per-leaf errors are handled inside each task, so one failed leaf
		// can neither cancel its siblings nor stop the next batch.
		g := new(errgroup.Group)
		for _, leaf := range batch {
			g.Go(func() error {
				if err := e.processLeaf(ctx, leaf); err != nil {
					log.Errorf("Skipping leaf %s: %v", leaf.AbsolutePath(), err)
					return nil
				}
				recorded.Add(1)
				return nil
			})
		}
		g.Wait()

		last := batch[len(batch)-1]
		if err := e.progress.SetLastLeafPath(ctx, last.AbsolutePath()); err != nil {
			log.Warnf("Failed to persist progress at %s: %v", last.AbsolutePath(), err)
		}
		log.Infof("Batch done: %d of %d leaves processed", end, total)
	}

	log.Infof("Ingestion finished: %d of %d leaves recorded", recorded.Load(), total)
	return nil
}

func (e *Engine) processLeaf(ctx context.Context, leaf *tree.Node) error {
	record, imageURLs, err := e.source.Product(ctx, leaf.URL)
	if err != nil {
		return err
	}

	record.Name = leaf.Name
	record.URL = leaf.URL
	record.AbsolutePath = leaf.AbsolutePath()
	record.Images = e.images.DownloadAll(ctx, imageURLs)

	if err := e.records.Append(record); err != nil {
		return err
	}

	if e.mirror != nil {
		if err := e.mirror.SaveProduct(ctx, record); err != nil {
			// The log already has the record; the mirror is best-effort.
			log.Warnf("Failed to mirror record %s: %v", record.AbsolutePath, err)
		}
	}
	return nil
}
