package client

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the parsed-page surface the extraction code works against.
// Absent matches are reported through ok booleans, never through errors:
// a missing optional field is a normal outcome on a product page.
type Document interface {
	SelectOne(selector string) (Element, bool)
	SelectAll(selector string) []Element
}

// Element is a single matched node within a Document.
type Element interface {
	Document
	Text() string
	Attr(name string) (string, bool)
}

// ParseDocument parses raw markup into a Document.
func ParseDocument(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return gqElement{doc.Selection}, nil
}

type gqElement struct {
	sel *goquery.Selection
}

func (e gqElement) SelectOne(selector string) (Element, bool) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return gqElement{found}, true
}

func (e gqElement) SelectAll(selector string) []Element {
	var elements []Element
	e.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, gqElement{s})
	})
	return elements
}

func (e gqElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e gqElement) Attr(name string) (string, bool) {
	val, ok := e.sel.Attr(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(val), true
}
