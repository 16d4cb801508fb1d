// Package inmemory provides a postsearch.Searcher over posts held in memory.
// It is the reference backend for local runs and tests.
package inmemory

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
)

const defaultLimit = 10

// Searcher implements the postsearch.Searcher interface using an in-memory store.
type Searcher struct {
	mu      sync.RWMutex
	posts   []postsearch.Post
	idIndex map[string]int // maps post ID to index in posts slice
}

// New creates a new in-memory searcher.
// The searcher is ready to use and is safe for concurrent operations.
func New() *Searcher {
	return &Searcher{
		posts:   make([]postsearch.Post, 0),
		idIndex: make(map[string]int),
	}
}

// AddPost adds a post to the store, replacing any post with the same ID.
func (s *Searcher) AddPost(post postsearch.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, exists := s.idIndex[post.ID]; exists {
		s.posts[idx] = post
		return
	}
	s.idIndex[post.ID] = len(s.posts)
	s.posts = append(s.posts, post)
}

// LoadJSON reads a JSON array of posts and adds each of them.
// It returns the number of posts loaded.
func (s *Searcher) LoadJSON(r io.Reader) (int, error) {
	var posts []postsearch.Post
	if err := json.NewDecoder(r).Decode(&posts); err != nil {
		return 0, errors.Wrap(err, "failed to decode posts")
	}

	for i, post := range posts {
		if post.ID == "" {
			return i, errors.Newf("post at position %d has no id", i)
		}
		s.AddPost(post)
	}
	return len(posts), nil
}

// Size returns the number of posts currently stored.
func (s *Searcher) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Search implements the postsearch.Searcher interface.
func (s *Searcher) Search(ctx context.Context, query string, opts ...postsearch.SearchOption) (*postsearch.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, postsearch.ErrCanceled
	default:
	}

	cfg := postsearch.NewSearchConfig(opts...)
	if cfg.Limit < 0 || cfg.Offset < 0 {
		return nil, errors.Wrapf(postsearch.ErrInvalidOption, "limit %d offset %d", cfg.Limit, cfg.Offset)
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultLimit
	}

	terms := strings.Fields(strings.ToLower(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []scoredPost
	for _, post := range s.posts {
		select {
		case <-ctx.Done():
			return nil, postsearch.ErrCanceled
		default:
		}

		ok, err := matchesFilters(post, cfg.Filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if score := scorePost(post, terms); score > 0 {
			matches = append(matches, scoredPost{post: post, score: score})
		}
	}

	sortMatches(matches, cfg.Sort)

	total := int64(len(matches))
	start := min(cfg.Offset, len(matches))
	end := min(cfg.Offset+cfg.Limit, len(matches))

	results := &postsearch.Results{
		Items: make([]postsearch.Result, 0, end-start),
		Total: total,
		Query: query,
	}
	for _, match := range matches[start:end] {
		results.Items = append(results.Items, postsearch.Result{
			Post:  match.post,
			Score: match.score,
		})
	}

	if end < len(matches) {
		nextOffset := end
		results.NextOffset = &nextOffset
	}

	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

type scoredPost struct {
	post  postsearch.Post
	score float64
}

// Title hits weigh more than body hits.
var fieldWeights = []struct {
	field  string
	weight float64
}{
	{postsearch.FieldTitle, 3},
	{postsearch.FieldExcerpt, 1.5},
	{postsearch.FieldContent, 1},
}

// scorePost returns 0 unless every term occurs somewhere in the post.
// An empty term list matches every post.
func scorePost(post postsearch.Post, terms []string) float64 {
	if len(terms) == 0 {
		return 1.0
	}

	score := 0.0
	for _, term := range terms {
		termScore := 0.0
		for _, fw := range fieldWeights {
			value, _ := post.Field(fw.field).(string)
			if strings.Contains(strings.ToLower(value), term) {
				termScore += fw.weight
			}
		}
		if termScore == 0 {
			return 0
		}
		score += termScore
	}
	return score
}

// sortMatches orders by score, newest first on ties, unless sort fields are given.
func sortMatches(matches []scoredPost, sortFields []postsearch.SortField) {
	if len(sortFields) == 0 {
		sortFields = []postsearch.SortField{
			{Field: "_score", Desc: true},
			{Field: postsearch.FieldDate, Desc: true},
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		for _, sf := range sortFields {
			var cmp int
			if sf.Field == "_score" {
				cmp = compareFloats(matches[i].score, matches[j].score)
			} else {
				cmp = compareValues(matches[i].post.Field(sf.Field), matches[j].post.Field(sf.Field))
			}
			if cmp != 0 {
				if sf.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareValues orders nil first, times chronologically and strings lexically.
func compareValues(v1, v2 interface{}) int {
	if v1 == nil && v2 == nil {
		return 0
	}
	if v1 == nil {
		return -1
	}
	if v2 == nil {
		return 1
	}

	if t1, ok := v1.(time.Time); ok {
		if t2, ok := v2.(time.Time); ok {
			return t1.Compare(t2)
		}
	}

	return strings.Compare(toString(v1), toString(v2))
}
