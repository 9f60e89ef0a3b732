package models

import "time"

// Category is a named grouping of transactions. Categories are created on
// first use and never mutated afterwards; the title is unique per ledger.
type Category struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// CategoryTitles returns the titles of the given categories, in order.
func CategoryTitles(categories []Category) []string {
	titles := make([]string, len(categories))
	for i, c := range categories {
		titles[i] = c.Title
	}
	return titles
}

// FindCategoryByTitle returns the first category whose title matches exactly.
func FindCategoryByTitle(categories []Category, title string) (Category, bool) {
	for _, c := range categories {
		if c.Title == title {
			return c, true
		}
	}
	return Category{}, false
}
