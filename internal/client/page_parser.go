package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

// ContainerNotFoundError reports that a listing page is missing the expected
// container element. It means the page structure changed or the selector
// configuration is wrong for this site.
type ContainerNotFoundError struct {
	Selector string
}

func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container not found: %s", e.Selector)
}

// trailingCount strips listing counters the storefront appends to category
// labels ("Nabiał 123" -> "Nabiał").
var trailingCount = regexp.MustCompile(`\s*\d+$`)

type pageParser struct {
	baseURL string
}

func newPageParser(baseURL string) *pageParser {
	return &pageParser{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *pageParser) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return p.baseURL + "/" + strings.TrimLeft(href, "/")
}

// ListLinks extracts ordered text/url pairs from the anchors matched by
// linkSelector inside containerSelector. A missing container is an error;
// anchors without an href are skipped.
func (p *pageParser) ListLinks(doc Document, containerSelector, linkSelector string) ([]domain.Link, error) {
	container, ok := doc.SelectOne(containerSelector)
	if !ok {
		return nil, &ContainerNotFoundError{Selector: containerSelector}
	}

	var links []domain.Link
	for _, a := range container.SelectAll(linkSelector) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			continue
		}
		links = append(links, domain.Link{
			Text: a.Text(),
			URL:  p.resolveURL(href),
		})
	}
	return links, nil
}

// MaxPageNumber scans anchor labels inside the pagination container and
// returns the largest integer found. A missing container or an absence of
// numeric labels means a single page.
func (p *pageParser) MaxPageNumber(doc Document, paginationSelector string) int {
	container, ok := doc.SelectOne(paginationSelector)
	if !ok {
		return 1
	}

	maxPage := 1
	for _, a := range container.SelectAll("a") {
		n, err := strconv.Atoi(a.Text())
		if err != nil {
			continue
		}
		if n > maxPage {
			maxPage = n
		}
	}
	return maxPage
}

// ItemURLs extracts product page URLs from a listing container. Unlike
// ListLinks this is lenient about a missing container: an empty listing page
// within a paginated range yields no items rather than failing the listing.
func (p *pageParser) ItemURLs(doc Document, containerSelector, itemSelector string) []string {
	container, ok := doc.SelectOne(containerSelector)
	if !ok {
		log.Warnf("Item container %s not found, treating page as empty", containerSelector)
		return nil
	}

	var urls []string
	for _, a := range container.SelectAll(itemSelector) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			continue
		}
		urls = append(urls, p.resolveURL(href))
	}
	return urls
}

// HasSelector reports whether the selector matches anything on the page.
// Used as a presence probe before extracting optional levels.
func (p *pageParser) HasSelector(doc Document, selector string) bool {
	_, ok := doc.SelectOne(selector)
	return ok
}

// CleanLabel normalizes a scraped category label by stripping the trailing
// item counter.
func CleanLabel(label string) string {
	return strings.TrimSpace(trailingCount.ReplaceAllString(label, ""))
}

// ParseProduct extracts the typed fields of a product detail page. The title
// is the only required field: a page without one is treated as broken.
// Every other field is optional and left empty when absent.
func (p *pageParser) ParseProduct(doc Document, sel config.ProductSelectors) (*domain.ProductRecord, error) {
	title, ok := doc.SelectOne(sel.Title)
	if !ok {
		return nil, &ContainerNotFoundError{Selector: sel.Title}
	}

	record := &domain.ProductRecord{Title: title.Text()}

	if brand, ok := doc.SelectOne(sel.Brand); ok {
		record.Brand = brand.Text()
	}
	if packaging, ok := doc.SelectOne(sel.Packaging); ok {
		record.Packaging = packaging.Text()
	}
	record.Price = p.parsePrice(doc, sel)
	record.DescriptionSections = p.parseDescriptionSections(doc, sel)

	return record, nil
}

// parsePrice joins the price and currency meta contents ("4.99 PLN").
// Either meta tag missing means no price.
func (p *pageParser) parsePrice(doc Document, sel config.ProductSelectors) string {
	priceMeta, ok := doc.SelectOne(sel.PriceMeta)
	if !ok {
		return ""
	}
	currencyMeta, ok := doc.SelectOne(sel.CurrencyMeta)
	if !ok {
		return ""
	}

	price, ok := priceMeta.Attr("content")
	if !ok {
		return ""
	}
	currency, ok := currencyMeta.Attr("content")
	if !ok {
		return ""
	}
	return price + " " + currency
}

func (p *pageParser) parseDescriptionSections(doc Document, sel config.ProductSelectors) []domain.DescriptionSection {
	main, ok := doc.SelectOne(sel.DescriptionMain)
	if !ok {
		return nil
	}

	var sections []domain.DescriptionSection
	for _, section := range main.SelectAll(sel.DescriptionSection) {
		header, ok := section.SelectOne(sel.SectionHeader)
		if !ok {
			continue
		}
		body, ok := section.SelectOne(sel.SectionBody)
		if !ok {
			continue
		}
		sections = append(sections, domain.DescriptionSection{
			Header:  header.Text(),
			Content: body.Text(),
		})
	}
	return sections
}

// ImageURLs collects the product's image source URLs. Pages with a thumbnail
// carousel contribute one URL per slide; pages without one fall back to the
// single main carousel image. Slides without an image are skipped.
func (p *pageParser) ImageURLs(doc Document, sel config.ProductSelectors) []string {
	if thumbnails, ok := doc.SelectOne(sel.Thumbnails); ok {
		var urls []string
		for _, slide := range thumbnails.SelectAll(sel.ThumbnailSlide) {
			img, ok := slide.SelectOne("img")
			if !ok {
				continue
			}
			if src, ok := img.Attr(sel.ImageAttr); ok && src != "" {
				urls = append(urls, p.resolveURL(src))
			}
		}
		return urls
	}

	mainContainer, ok := doc.SelectOne(sel.MainImage)
	if !ok {
		return nil
	}
	img, ok := mainContainer.SelectOne("img")
	if !ok {
		log.Warn("Product page has no carousel image")
		return nil
	}
	src, ok := img.Attr(sel.ImageAttr)
	if !ok || src == "" {
		return nil
	}
	return []string{p.resolveURL(src)}
}
