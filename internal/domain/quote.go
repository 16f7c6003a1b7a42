// Package domain contains core business entities and rules.
package domain

import (
	"math/rand/v2"
	"slices"
	"strings"
)

const (
	// CategoryAll is the filter sentinel that disables category filtering.
	// It is injected as a filter option and never derived from data.
	CategoryAll = "all"

	// DefaultCategory is assigned to quotes added or imported without a category.
	DefaultCategory = "general"

	// SyncCategory is the default marker applied to every remotely fetched quote.
	SyncCategory = "server"

	// EmptyMessage is rendered when there is no quote to show.
	EmptyMessage = "No quotes to display yet. Add some quotes!"
)

// Quote is a piece of text tagged with a category.
// Quotes have no stable identity; two quotes are equal when their text is equal.
type Quote struct {
	// Text is the quote itself. Never empty for stored quotes.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// NewQuote trims the inputs and applies the default category.
// Returns a ValidationError when the text is empty after trimming.
func NewQuote(text, category string) (Quote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Quote{}, NewValidationError("text", "quote text is required")
	}

	return Quote{Text: text, Category: NormalizeCategory(category)}, nil
}

// NormalizeCategory trims a category and substitutes DefaultCategory when blank.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}

	return category
}

// SameText reports whether two quotes are equal by value.
func (q Quote) SameText(other Quote) bool {
	return q.Text == other.Text
}

// InCategory reports whether the quote matches category case-insensitively.
func (q Quote) InCategory(category string) bool {
	return strings.EqualFold(q.Category, category)
}

// DefaultQuotes returns a fresh copy of the seed collection used when storage is empty.
func DefaultQuotes() []Quote {
	return []Quote{
		{Text: "The best way to predict the future is to invent it.", Category: "Inspiration"},
		{Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
		{Text: "Do not go where the path may lead, go instead where there is no path and leave a trail.", Category: "Motivation"},
	}
}

// IsAll reports whether category disables filtering.
func IsAll(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || strings.EqualFold(category, CategoryAll)
}

// Categories returns the distinct categories in quotes, sorted case-insensitively.
// Duplicates differing only in case collapse to the first spelling seen.
// The CategoryAll sentinel is never returned, even if a quote carries it.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for _, q := range quotes {
		key := strings.ToLower(strings.TrimSpace(q.Category))
		if key == "" || key == CategoryAll {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, q.Category)
	}

	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	return out
}

// CategoryOptions returns the filter options: the CategoryAll sentinel followed by Categories.
func CategoryOptions(quotes []Quote) []string {
	return append([]string{CategoryAll}, Categories(quotes)...)
}

// ResolveCategory maps a requested category onto the collection.
// Blank, "all" and categories no longer present resolve to CategoryAll.
func ResolveCategory(quotes []Quote, category string) string {
	if IsAll(category) {
		return CategoryAll
	}

	category = strings.TrimSpace(category)
	for _, q := range quotes {
		if q.InCategory(category) {
			return category
		}
	}

	return CategoryAll
}

// Filter returns the quotes matching category. CategoryAll returns a copy of all quotes.
func Filter(quotes []Quote, category string) []Quote {
	if IsAll(category) {
		return slices.Clone(quotes)
	}

	category = strings.TrimSpace(category)
	pool := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if q.InCategory(category) {
			pool = append(pool, q)
		}
	}

	return pool
}

// PickRandom returns a uniformly chosen quote from pool.
// The boolean is false when pool is empty.
func PickRandom(pool []Quote) (Quote, bool) {
	return PickRandomWith(pool, rand.IntN)
}

// PickRandomWith is PickRandom with an injectable index source.
// intn must return a value in [0, n).
func PickRandomWith(pool []Quote, intn func(n int) int) (Quote, bool) {
	if len(pool) == 0 {
		return Quote{}, false
	}

	return pool[intn(len(pool))], true
}
