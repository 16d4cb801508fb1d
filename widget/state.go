package widget

import (
	"fmt"
	"unicode/utf8"

	"github.com/letmevibethatforyou/postsearch"
)

// State is a snapshot of one widget instance. The view renders from it and
// from its derived flags, which are recomputed on every call.
type State struct {
	ID          string
	SearchTerm  string
	Results     []postsearch.PostSummary
	IsLoading   bool
	HasSearched bool
	// TotalFound is the server's match count for the last settled search and
	// may exceed len(Results).
	TotalFound int

	PostsPerPage int
	PostType     string
	Endpoint     string
	Nonce        string

	// Err is the failure behind the last settled search, if any. Failures
	// render the same as an empty result set.
	Err error
}

func termLength(term string) int {
	return utf8.RuneCountInString(term)
}

// ShowMinLengthMessage reports whether to ask for at least three characters.
func (s State) ShowMinLengthMessage() bool {
	n := termLength(s.SearchTerm)
	return !s.IsLoading && n > 0 && n < postsearch.MinTermLength && !s.HasSearched
}

// ShowResultsHeader reports whether the result count header is visible.
func (s State) ShowResultsHeader() bool {
	return s.HasSearched && !s.IsLoading && len(s.Results) > 0
}

// ShowNoResults reports whether the "no posts found" message is visible.
func (s State) ShowNoResults() bool {
	return s.HasSearched && !s.IsLoading && len(s.Results) == 0 &&
		termLength(s.SearchTerm) >= postsearch.MinTermLength
}

// IsButtonDisabled reports whether the manual search button is disabled.
func (s State) IsButtonDisabled() bool {
	return s.IsLoading || termLength(s.SearchTerm) < postsearch.MinTermLength
}

// ResultsHeaderText is the text of the result count header. The two spaces
// before "Search term:" are part of the rendered format.
func (s State) ResultsHeaderText() string {
	plural := "s"
	if s.TotalFound == 1 {
		plural = ""
	}
	return fmt.Sprintf("Found %d post%s  Search term: %s", s.TotalFound, plural, s.SearchTerm)
}

func (s *State) clearResults() {
	s.Results = []postsearch.PostSummary{}
	s.HasSearched = false
	s.TotalFound = 0
	s.Err = nil
}

func (s State) clone() State {
	s.Results = append([]postsearch.PostSummary{}, s.Results...)
	return s
}
