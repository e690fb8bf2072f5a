package client

import (
	"context"
	"fmt"

	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

// SiteClient exposes the catalog structure of the target storefront:
// navigation levels top-down, paginated item listings, and product detail
// pages. All selectors come from configuration.
type SiteClient interface {
	Categories(ctx context.Context) ([]domain.Link, error)
	Subcategories(ctx context.Context, pageURL string) ([]domain.Link, error)
	Subsubcategories(ctx context.Context, pageURL string) ([]domain.Link, error)
	ListingItems(ctx context.Context, pageURL string) ([]string, error)
	Product(ctx context.Context, pageURL string) (*domain.ProductRecord, []string, error)
}

type siteClient struct {
	fetcher   Fetcher
	parser    *pageParser
	selectors config.SelectorConfig
}

// NewSiteClient builds a SiteClient over the given fetcher and selector set.
func NewSiteClient(fetcher Fetcher, baseURL string, selectors config.SelectorConfig) SiteClient {
	return &siteClient{
		fetcher:   fetcher,
		parser:    newPageParser(baseURL),
		selectors: selectors,
	}
}

func (c *siteClient) document(ctx context.Context, pageURL string) (Document, error) {
	html, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseDocument(html)
}

// Categories returns the top-level navigation entries of the storefront.
func (c *siteClient) Categories(ctx context.Context) ([]domain.Link, error) {
	doc, err := c.document(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to load storefront root: %w", err)
	}
	return c.parser.ListLinks(doc, c.selectors.Nav.CategoryContainer, c.selectors.Nav.CategoryLink)
}

// Subcategories returns the refinement entries of a category page, with
// listing counters stripped from the labels.
func (c *siteClient) Subcategories(ctx context.Context, pageURL string) ([]domain.Link, error) {
	doc, err := c.document(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load category page: %w", err)
	}

	links, err := c.parser.ListLinks(doc, c.selectors.Nav.SubcategoryContainer, c.selectors.Nav.SubcategoryLink)
	if err != nil {
		return nil, err
	}
	return cleanLabels(links), nil
}

// Subsubcategories returns the optional third navigation level of a
// sub-category page. The level is probed for first: sub-categories without
// one yield an empty result, not an error.
func (c *siteClient) Subsubcategories(ctx context.Context, pageURL string) ([]domain.Link, error) {
	doc, err := c.document(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load sub-category page: %w", err)
	}

	if !c.parser.HasSelector(doc, c.selectors.Nav.SubsubcategoryProbe) {
		return nil, nil
	}

	links, err := c.parser.ListLinks(doc, c.selectors.Nav.SubsubcategoryContainer, c.selectors.Nav.SubsubcategoryLink)
	if err != nil {
		return nil, err
	}
	return cleanLabels(links), nil
}

// ListingItems walks every page of a paginated listing and returns the
// product URLs in page order. The first page defines the page count; later
// pages are addressed with a ?page=N query.
func (c *siteClient) ListingItems(ctx context.Context, pageURL string) ([]string, error) {
	firstDoc, err := c.document(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing page: %w", err)
	}

	totalPages := c.parser.MaxPageNumber(firstDoc, c.selectors.Nav.Pagination)
	items := c.parser.ItemURLs(firstDoc, c.selectors.Nav.ItemContainer, c.selectors.Nav.ItemLink)

	for page := 2; page <= totalPages; page++ {
		doc, err := c.document(ctx, fmt.Sprintf("%s?page=%d", pageURL, page))
		if err != nil {
			return nil, fmt.Errorf("failed to load listing page %d: %w", page, err)
		}
		items = append(items, c.parser.ItemURLs(doc, c.selectors.Nav.ItemContainer, c.selectors.Nav.ItemLink)...)
	}

	log.Debugf("Listing %s: %d items across %d pages", pageURL, len(items), totalPages)
	return items, nil
}

// Product fetches one product detail page and returns its extracted record
// fields plus the image source URLs found on the page. Node identity fields
// (name, url, absolute path) are filled in by the caller.
func (c *siteClient) Product(ctx context.Context, pageURL string) (*domain.ProductRecord, []string, error) {
	doc, err := c.document(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	record, err := c.parser.ParseProduct(doc, c.selectors.Product)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract product fields from %s: %w", pageURL, err)
	}

	return record, c.parser.ImageURLs(doc, c.selectors.Product), nil
}

func cleanLabels(links []domain.Link) []domain.Link {
	for i := range links {
		links[i].Text = CleanLabel(links[i].Text)
	}
	return links
}
