package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSearcher struct {
	calls   int
	query   string
	cfg     *postsearch.SearchConfig
	results *postsearch.Results
	err     error
}

func (r *recordingSearcher) Search(ctx context.Context, query string, opts ...postsearch.SearchOption) (*postsearch.Results, error) {
	r.calls++
	r.query = query
	r.cfg = postsearch.NewSearchConfig(opts...)
	if r.err != nil {
		return nil, r.err
	}
	return r.results, nil
}

func newTestService(t *testing.T, searcher postsearch.Searcher, opts ...Option) (*Service, string) {
	t.Helper()
	nonces, err := NewNonceManager([]byte("secret"), time.Hour)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(searcher, nonces, opts...), nonces.Issue(postsearch.ActionSearch, "")
}

func TestHandleRejectsBadNonce(t *testing.T) {
	searcher := &recordingSearcher{}
	svc, _ := newTestService(t, searcher)

	for _, nonce := range []string{"", "0123456789abcdef0123"} {
		_, err := svc.Handle(context.Background(), Request{Nonce: nonce, SearchTerm: "cats"})
		assert.True(t, errors.Is(err, postsearch.ErrInvalidNonce), "nonce %q: %v", nonce, err)
	}
	assert.Zero(t, searcher.calls, "no data access before authorization")
}

func TestHandleShortTerm(t *testing.T) {
	searcher := &recordingSearcher{}
	svc, nonce := newTestService(t, searcher)

	for _, term := range []string{"", "ab", "  ab  ", "<b>a</b>"} {
		payload, err := svc.Handle(context.Background(), Request{Nonce: nonce, SearchTerm: term})
		require.NoError(t, err)
		assert.Empty(t, payload.Posts)
		assert.NotNil(t, payload.Posts)
		assert.Zero(t, payload.Found)
	}
	assert.Zero(t, searcher.calls)
}

func TestHandleDelegatesWithParameters(t *testing.T) {
	searcher := &recordingSearcher{results: &postsearch.Results{}}
	svc, nonce := newTestService(t, searcher)

	_, err := svc.Handle(context.Background(), Request{
		Nonce:        nonce,
		SearchTerm:   "  black   cats ",
		PostsPerPage: "7",
		PostType:     "page",
	})
	require.NoError(t, err)

	assert.Equal(t, "black cats", searcher.query)
	assert.Equal(t, 7, searcher.cfg.Limit)
	assert.Equal(t, []postsearch.Expression{
		postsearch.OfType("page"),
		postsearch.WithStatus(postsearch.StatusPublished),
	}, searcher.cfg.Filters)
}

func TestHandleDefaults(t *testing.T) {
	searcher := &recordingSearcher{results: &postsearch.Results{}}
	svc, nonce := newTestService(t, searcher, WithMaxPostsPerPage(20))

	_, err := svc.Handle(context.Background(), Request{Nonce: nonce, SearchTerm: "cats", PostsPerPage: "x"})
	require.NoError(t, err)
	assert.Equal(t, postsearch.DefaultPostsPerPage, searcher.cfg.Limit)
	assert.Equal(t, postsearch.OfType(postsearch.DefaultPostType), searcher.cfg.Filters[0])

	_, err = svc.Handle(context.Background(), Request{Nonce: nonce, SearchTerm: "cats", PostsPerPage: "1000"})
	require.NoError(t, err)
	assert.Equal(t, 20, searcher.cfg.Limit)
}

func TestHandleMapsResults(t *testing.T) {
	longContent := strings.Repeat("lorem ", 50)
	searcher := &recordingSearcher{results: &postsearch.Results{
		Items: []postsearch.Result{
			{Post: postsearch.Post{
				ID:        "p1",
				Title:     "Cats",
				Content:   longContent,
				Permalink: "https://example.com/cats",
				Date:      time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
			}},
			{Post: postsearch.Post{
				ID:      "p2",
				Title:   "More cats",
				Excerpt: "<p>Hand written</p> excerpt",
				Content: longContent,
			}},
		},
		Total: 9,
	}}
	svc, nonce := newTestService(t, searcher)

	payload, err := svc.Handle(context.Background(), Request{Nonce: nonce, SearchTerm: "cats"})
	require.NoError(t, err)

	assert.Equal(t, 9, payload.Found, "found may exceed the returned posts")
	require.Len(t, payload.Posts, 2)

	first := payload.Posts[0]
	assert.Equal(t, postsearch.PostID("p1"), first.ID)
	assert.Equal(t, "Cats", first.Title)
	assert.Equal(t, "https://example.com/cats", first.Permalink)
	assert.Equal(t, "March 1, 2024", first.Date)
	assert.Len(t, strings.Fields(first.Excerpt), postsearch.ExcerptWords)
	assert.True(t, strings.HasSuffix(first.Excerpt, "…"))

	second := payload.Posts[1]
	assert.Equal(t, "Hand written excerpt", second.Excerpt)
	assert.Empty(t, second.Date)
}

func TestHandleBackendError(t *testing.T) {
	searcher := &recordingSearcher{err: postsearch.ErrBackendUnavailable}
	svc, nonce := newTestService(t, searcher)

	_, err := svc.Handle(context.Background(), Request{Nonce: nonce, SearchTerm: "cats"})
	assert.True(t, errors.Is(err, postsearch.ErrBackendUnavailable))
	assert.False(t, errors.Is(err, postsearch.ErrInvalidNonce))
}

func TestHandleWithInMemoryBackend(t *testing.T) {
	store := inmemory.New()
	for i := 0; i < 8; i++ {
		store.AddPost(postsearch.Post{
			ID:       "cat-" + strconv.Itoa(i),
			Title:    "Cats volume " + strconv.Itoa(i),
			PostType: "post",
			Status:   postsearch.StatusPublished,
			Date:     time.Date(2024, time.March, i+1, 0, 0, 0, 0, time.UTC),
		})
	}
	store.AddPost(postsearch.Post{ID: "draft", Title: "Cats draft", PostType: "post", Status: "draft"})

	svc, nonce := newTestService(t, store)

	form := url.Values{}
	form.Set(postsearch.FormNonce, nonce)
	form.Set(postsearch.FormSearchTerm, "cats")
	form.Set(postsearch.FormPostsPerPage, "5")
	form.Set(postsearch.FormPostType, "post")

	payload, err := svc.Handle(context.Background(), RequestFromForm(form, ""))
	require.NoError(t, err)
	assert.Equal(t, 8, payload.Found)
	assert.Len(t, payload.Posts, 5)
	assert.Equal(t, postsearch.PostID("cat-7"), payload.Posts[0].ID, "newest first among equal scores")
}

func TestNewWidgetContext(t *testing.T) {
	svc, _ := newTestService(t, &recordingSearcher{}, WithMaxPostsPerPage(50))

	wc := svc.NewWidgetContext(WidgetOptions{Endpoint: "/search", Session: "s1"})
	assert.True(t, strings.HasPrefix(wc.ID, "ips-"))
	assert.Equal(t, postsearch.DefaultPostsPerPage, wc.PostsPerPage)
	assert.Equal(t, postsearch.DefaultPostType, wc.PostType)
	assert.Equal(t, "/search", wc.AjaxURL)
	assert.NotNil(t, wc.Results)
	assert.True(t, svc.Nonces().Verify(wc.Nonce, postsearch.ActionSearch, "s1"))

	other := svc.NewWidgetContext(WidgetOptions{PostsPerPage: 500, PostType: "page"})
	assert.NotEqual(t, wc.ID, other.ID)
	assert.Equal(t, 50, other.PostsPerPage)
	assert.Equal(t, "page", other.PostType)
}
