package domain

// CategoryPair is one line of the category export: a category name and the
// name of its parent. Parent is omitted for top-level categories.
type CategoryPair struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}
