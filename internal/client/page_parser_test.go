package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/domain"
)

func parse(t *testing.T, html string) Document {
	t.Helper()
	doc, err := ParseDocument(html)
	require.NoError(t, err)
	return doc
}

func productSelectors() config.ProductSelectors {
	return config.ProductSelectors{
		Title:              "h1.name",
		Brand:              "span.brand",
		Packaging:          "div.packaging",
		PriceMeta:          `meta[itemprop="price"]`,
		CurrencyMeta:       `meta[itemprop="priceCurrency"]`,
		DescriptionMain:    "div.description",
		DescriptionSection: "div.section",
		SectionHeader:      "h2.header",
		SectionBody:        "div.body",
		Thumbnails:         "div.thumbnails",
		ThumbnailSlide:     "div.slide",
		MainImage:          "div.carousel",
		ImageAttr:          "data-srcset",
	}
}

func TestListLinks(t *testing.T) {
	p := newPageParser("https://shop.example")

	t.Run("returns ordered text and resolved urls", func(t *testing.T) {
		doc := parse(t, `
			<nav class="menu">
				<a class="item" href="/dairy">Dairy</a>
				<a class="item" href="https://shop.example/bakery">Bakery</a>
				<a class="item">No href</a>
			</nav>`)

		links, err := p.ListLinks(doc, "nav.menu", "a.item")
		require.NoError(t, err)
		assert.Equal(t, []domain.Link{
			{Text: "Dairy", URL: "https://shop.example/dairy"},
			{Text: "Bakery", URL: "https://shop.example/bakery"},
		}, links)
	})

	t.Run("missing container is an error", func(t *testing.T) {
		doc := parse(t, `<div>nothing here</div>`)

		_, err := p.ListLinks(doc, "nav.menu", "a.item")
		var notFound *ContainerNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "nav.menu", notFound.Selector)
	})
}

func TestMaxPageNumber(t *testing.T) {
	p := newPageParser("https://shop.example")

	t.Run("returns the largest numeric label", func(t *testing.T) {
		doc := parse(t, `
			<div class="pagination">
				<a href="?page=1">1</a>
				<a href="?page=2">2</a>
				<a href="?page=3">3</a>
				<a href="?page=2">next</a>
			</div>`)

		assert.Equal(t, 3, p.MaxPageNumber(doc, "div.pagination"))
	})

	t.Run("no pagination container means one page", func(t *testing.T) {
		doc := parse(t, `<div>just a listing</div>`)

		assert.Equal(t, 1, p.MaxPageNumber(doc, "div.pagination"))
	})

	t.Run("no numeric labels means one page", func(t *testing.T) {
		doc := parse(t, `<div class="pagination"><a>next</a><a>prev</a></div>`)

		assert.Equal(t, 1, p.MaxPageNumber(doc, "div.pagination"))
	})
}

func TestItemURLs(t *testing.T) {
	p := newPageParser("https://shop.example")

	t.Run("collects resolved item urls in order", func(t *testing.T) {
		doc := parse(t, `
			<ul class="grid">
				<li><a class="product" href="/p/1">one</a></li>
				<li><a class="product" href="/p/2">two</a></li>
			</ul>`)

		assert.Equal(t,
			[]string{"https://shop.example/p/1", "https://shop.example/p/2"},
			p.ItemURLs(doc, "ul.grid", "a.product"))
	})

	t.Run("missing container yields no items", func(t *testing.T) {
		doc := parse(t, `<div>empty page</div>`)

		assert.Empty(t, p.ItemURLs(doc, "ul.grid", "a.product"))
	})
}

func TestCleanLabel(t *testing.T) {
	assert.Equal(t, "Nabiał", CleanLabel("Nabiał 123"))
	assert.Equal(t, "Warzywa i owoce", CleanLabel("Warzywa i owoce"))
	assert.Equal(t, "Do 5 zl", CleanLabel("Do 5 zl"))
}

func TestParseProduct(t *testing.T) {
	p := newPageParser("https://shop.example")
	sel := productSelectors()

	t.Run("extracts all fields", func(t *testing.T) {
		doc := parse(t, `
			<h1 class="name">Mleko 3,2%</h1>
			<span class="brand">Mlekovita</span>
			<div class="packaging">1 l</div>
			<meta itemprop="price" content="4.59">
			<meta itemprop="priceCurrency" content="PLN">
			<div class="description">
				<div class="section">
					<h2 class="header">Skład</h2>
					<div class="body">Mleko krowie</div>
				</div>
				<div class="section">
					<h2 class="header">Przechowywanie</h2>
					<div class="body">W lodówce</div>
				</div>
			</div>`)

		record, err := p.ParseProduct(doc, sel)
		require.NoError(t, err)
		assert.Equal(t, "Mleko 3,2%", record.Title)
		assert.Equal(t, "Mlekovita", record.Brand)
		assert.Equal(t, "1 l", record.Packaging)
		assert.Equal(t, "4.59 PLN", record.Price)
		assert.Equal(t, []domain.DescriptionSection{
			{Header: "Skład", Content: "Mleko krowie"},
			{Header: "Przechowywanie", Content: "W lodówce"},
		}, record.DescriptionSections)
	})

	t.Run("optional fields may be absent", func(t *testing.T) {
		doc := parse(t, `<h1 class="name">Chleb</h1>`)

		record, err := p.ParseProduct(doc, sel)
		require.NoError(t, err)
		assert.Equal(t, "Chleb", record.Title)
		assert.Empty(t, record.Brand)
		assert.Empty(t, record.Price)
		assert.Empty(t, record.DescriptionSections)
	})

	t.Run("missing title fails the page", func(t *testing.T) {
		doc := parse(t, `<div>not a product page</div>`)

		_, err := p.ParseProduct(doc, sel)
		var notFound *ContainerNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestImageURLs(t *testing.T) {
	p := newPageParser("https://shop.example")
	sel := productSelectors()

	t.Run("one url per carousel slide", func(t *testing.T) {
		doc := parse(t, `
			<div class="thumbnails">
				<div class="slide"><img data-srcset="/img/a.jpg"></div>
				<div class="slide"><img data-srcset="/img/b.jpg"></div>
				<div class="slide"><span>no image</span></div>
			</div>`)

		assert.Equal(t,
			[]string{"https://shop.example/img/a.jpg", "https://shop.example/img/b.jpg"},
			p.ImageURLs(doc, sel))
	})

	t.Run("falls back to the main carousel image", func(t *testing.T) {
		doc := parse(t, `<div class="carousel"><img data-srcset="/img/main.jpg"></div>`)

		assert.Equal(t, []string{"https://shop.example/img/main.jpg"}, p.ImageURLs(doc, sel))
	})

	t.Run("no images at all", func(t *testing.T) {
		doc := parse(t, `<div>bare page</div>`)

		assert.Empty(t, p.ImageURLs(doc, sel))
	})
}
