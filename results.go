package postsearch

import "time"

// Post is a searchable document.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Permalink string    `json:"permalink"`
	PostType  string    `json:"post_type"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

// Field returns the value of the named field, or nil when the post has no such field.
// Field names are the Field* constants.
func (p Post) Field(name string) interface{} {
	switch name {
	case FieldID:
		return p.ID
	case FieldTitle:
		return p.Title
	case FieldContent:
		return p.Content
	case FieldExcerpt:
		return p.Excerpt
	case FieldPermalink:
		return p.Permalink
	case FieldPostType:
		return p.PostType
	case FieldStatus:
		return p.Status
	case FieldDate:
		if p.Date.IsZero() {
			return nil
		}
		return p.Date
	default:
		return nil
	}
}

// Result represents a single search hit.
type Result struct {
	// Post is the matching document.
	Post Post

	// Score represents the relevance score of this result.
	Score float64
}

// Results represents a collection of search results with metadata.
type Results struct {
	// Items contains the individual search results, in backend order.
	Items []Result

	// Total is the total number of matching documents. It may be larger than
	// len(Items) when the backend caps the page it returns.
	Total int64

	// Took is the time taken to execute the search in milliseconds.
	Took int64

	// Query is the original query string for reference.
	Query string

	// NextOffset can be used for pagination.
	NextOffset *int
}
