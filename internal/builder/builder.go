// Package builder performs the top-down catalog pass: categories,
// sub-categories, the optional third level, and paginated item listings,
// materializing every discovered page into the navigation tree.
package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"biedronka/scraper/internal/client"
	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/domain"
	"biedronka/scraper/internal/tree"

	log "github.com/sirupsen/logrus"
)

type Builder struct {
	client         client.SiteClient
	skipCategories []string
	skipLabels     []string
}

func New(siteClient client.SiteClient, cfg config.ScraperConfig) *Builder {
	return &Builder{
		client:         siteClient,
		skipCategories: cfg.SkipCategories,
		skipLabels:     cfg.SkipLabels,
	}
}

// branch is a fully discovered subtree, held aside until its whole category
// finished discovery. The tree is append-only, so a branch is materialized
// only once it is known to contain items; a fetch failure mid-branch must
// not leave a childless node behind that traversal would mistake for a
// product leaf.
type branch struct {
	name     string
	url      string
	children []branch
	items    []string
}

func (b branch) empty() bool {
	if len(b.items) > 0 {
		return false
	}
	for _, ch := range b.children {
		if !ch.empty() {
			return false
		}
	}
	return true
}

// Build runs one full top-down pass and returns the populated tree. A
// failure while loading the top-level navigation aborts the build, since
// nothing useful can be crawled without it; failures below the top level are
// isolated to their branch and logged.
func (b *Builder) Build(ctx context.Context) (*tree.Tree, error) {
	categories, err := b.client.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover categories: %w", err)
	}

	t := tree.New()
	for _, cat := range b.filter(categories, b.skipCategories) {
		log.Infof("Building category %s", cat.Text)

		discovered, err := b.discoverCategory(ctx, cat)
		if err != nil {
			log.Warnf("Skipping category branch %s: %v", cat.Text, err)
			continue
		}
		if discovered.empty() {
			log.Warnf("Category %s yielded no items, skipping", cat.Text)
			continue
		}

		if err := materialize(t, "", discovered); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (b *Builder) discoverCategory(ctx context.Context, cat domain.Link) (branch, error) {
	subcategories, err := b.client.Subcategories(ctx, cat.URL)
	if err != nil {
		return branch{}, err
	}

	result := branch{name: cat.Text, url: cat.URL}
	for _, sub := range b.filter(subcategories, b.skipLabels) {
		discovered, err := b.discoverSubcategory(ctx, sub)
		if err != nil {
			log.Warnf("Skipping sub-category branch %s/%s: %v", cat.Text, sub.Text, err)
			continue
		}
		result.children = append(result.children, discovered)
	}
	return result, nil
}

// discoverSubcategory resolves either the optional third navigation level
// or, when the sub-category has none, its item listing directly.
func (b *Builder) discoverSubcategory(ctx context.Context, sub domain.Link) (branch, error) {
	subsubs, err := b.client.Subsubcategories(ctx, sub.URL)
	if err != nil {
		return branch{}, err
	}

	result := branch{name: sub.Text, url: sub.URL}
	if len(subsubs) == 0 {
		result.items, err = b.client.ListingItems(ctx, sub.URL)
		if err != nil {
			return branch{}, err
		}
		return result, nil
	}

	for _, subsub := range b.filter(subsubs, b.skipLabels) {
		items, err := b.client.ListingItems(ctx, subsub.URL)
		if err != nil {
			log.Warnf("Skipping listing %s/%s: %v", sub.Text, subsub.Text, err)
			continue
		}
		result.children = append(result.children, branch{
			name:  subsub.Text,
			url:   subsub.URL,
			items: items,
		})
	}
	return result, nil
}

// materialize attaches a discovered branch to the tree, naming the listing's
// products sequentially, which guarantees unique sibling names regardless of
// the product titles.
func materialize(t *tree.Tree, parentPath string, b branch) error {
	node, err := addUnique(t, parentPath, b.name, b.url)
	if err != nil {
		return err
	}

	for _, ch := range b.children {
		if ch.empty() {
			log.Warnf("Branch %s/%s yielded no items, skipping", node.AbsolutePath(), ch.name)
			continue
		}
		if err := materialize(t, node.AbsolutePath(), ch); err != nil {
			return err
		}
	}

	for i, itemURL := range b.items {
		name := fmt.Sprintf("Item %d", i+1)
		if _, err := t.AddPage(node.AbsolutePath(), name, itemURL); err != nil {
			return err
		}
	}

	if len(b.items) > 0 {
		log.Infof("Attached %d items under %s", len(b.items), node.AbsolutePath())
	}
	return nil
}

func (b *Builder) filter(links []domain.Link, skip []string) []domain.Link {
	kept := make([]domain.Link, 0, len(links))
	for _, link := range links {
		if link.Text == "" || slices.Contains(skip, link.Text) {
			continue
		}
		kept = append(kept, link)
	}
	return kept
}

// addUnique attaches a page, disambiguating scraped labels that collide with
// an existing sibling by suffixing a counter. Path lookup and resume both
// descend by sibling name, so collisions cannot be allowed to silently merge
// two branches.
func addUnique(t *tree.Tree, parentPath, name, url string) (*tree.Node, error) {
	node, err := t.AddPage(parentPath, name, url)
	for n := 2; errors.Is(err, tree.ErrDuplicateName); n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		node, err = t.AddPage(parentPath, candidate, url)
		if err == nil {
			log.Warnf("Renamed duplicate label %q to %q under %q", name, candidate, parentPath)
		}
	}
	return node, err
}
