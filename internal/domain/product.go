package domain

// Link is a single navigation anchor extracted from a listing container.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// DescriptionSection is one expandable header/content block on a product page.
type DescriptionSection struct {
	Header  string `json:"header"`
	Content string `json:"content"`
}

// ProductRecord is the unit emitted for every successfully processed leaf.
// Field names match the record contract consumed by the shop importers, so
// they must stay stable across runs.
type ProductRecord struct {
	Name                string               `json:"name"`
	URL                 string               `json:"url"`
	Title               string               `json:"title"`
	Brand               string               `json:"brand,omitempty"`
	Price               string               `json:"price,omitempty"`
	Packaging           string               `json:"packaging,omitempty"`
	DescriptionSections []DescriptionSection `json:"description_sections,omitempty"`
	Images              []string             `json:"images,omitempty"`
	AbsolutePath        string               `json:"absolute_path"`
}
