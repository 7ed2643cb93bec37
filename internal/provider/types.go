package provider

import (
	"time"

	"sentiment-lens/internal/domain"
)

// ContentItem is a single post, comment or feed entry pulled from a text source.
type ContentItem struct {
	Source       string
	Forum        string
	Kind         domain.ItemKind
	SourceItemID string
	Title        string
	Body         string
	URL          string
	Author       string
	PublishedAt  time.Time
	Metadata     map[string]any
}

// Text is the matchable content of the item: title and body joined by a space.
func (c ContentItem) Text() string {
	switch {
	case c.Title == "":
		return c.Body
	case c.Body == "":
		return c.Title
	default:
		return c.Title + " " + c.Body
	}
}
