// Package postsearch holds the types shared by the post search endpoint and the
// search widget that talks to it: the document-search collaborator interface,
// search options and filter expressions, and the request/response wire format.
package postsearch

import "context"

// Searcher is the document-search collaborator the search endpoint delegates to.
// Implementations own ranking, tokenization and storage.
type Searcher interface {
	// Search executes a search with the given query and options.
	// Results.Total may exceed len(Results.Items).
	Search(ctx context.Context, query string, opts ...SearchOption) (*Results, error)
}

// SearcherFunc is a function type that implements the Searcher interface.
// This allows using a function as a Searcher, similar to http.HandlerFunc.
type SearcherFunc func(context.Context, string, ...SearchOption) (*Results, error)

// Search implements the Searcher interface for SearcherFunc.
func (f SearcherFunc) Search(ctx context.Context, query string, opts ...SearchOption) (*Results, error) {
	return f(ctx, query, opts...)
}
