// Package service implements the server side of post search: it checks the
// request's nonce, normalises its parameters, asks the document searcher for
// published posts and shapes the matches into the response payload.
package service

import (
	"context"
	"log/slog"
	"net/url"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxPostsPerPage caps the page size a request may ask for.
	DefaultMaxPostsPerPage = 100

	// DefaultDateFormat renders dates like "March 1, 2024".
	DefaultDateFormat = "January 2, 2006"

	excerptMore = "…"
)

// Request is a raw search request as received from the widget.
type Request struct {
	Nonce        string
	SearchTerm   string
	PostsPerPage string
	PostType     string
	// Session identifies the visitor the nonce was issued to. Empty for anonymous visitors.
	Session string
}

// RequestFromForm reads the search fields of a submitted form.
func RequestFromForm(form url.Values, session string) Request {
	return Request{
		Nonce:        form.Get(postsearch.FormNonce),
		SearchTerm:   form.Get(postsearch.FormSearchTerm),
		PostsPerPage: form.Get(postsearch.FormPostsPerPage),
		PostType:     form.Get(postsearch.FormPostType),
		Session:      session,
	}
}

// Service answers search requests.
type Service struct {
	searcher        postsearch.Searcher
	nonces          *NonceManager
	logger          *slog.Logger
	tracer          trace.Tracer
	dateFormat      string
	excerptWords    int
	maxPostsPerPage int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDateFormat sets the time layout of result dates.
func WithDateFormat(layout string) Option {
	return func(s *Service) {
		s.dateFormat = layout
	}
}

// WithMaxPostsPerPage caps the page size a request may ask for.
func WithMaxPostsPerPage(n int) Option {
	return func(s *Service) {
		s.maxPostsPerPage = n
	}
}

// WithExcerptWords sets the word budget of result excerpts.
func WithExcerptWords(n int) Option {
	return func(s *Service) {
		s.excerptWords = n
	}
}

// New creates a Service that delegates to searcher and checks nonces with nonces.
func New(searcher postsearch.Searcher, nonces *NonceManager, opts ...Option) *Service {
	s := &Service{
		searcher:        searcher,
		nonces:          nonces,
		logger:          slog.Default(),
		tracer:          otel.Tracer("postsearch-service"),
		dateFormat:      DefaultDateFormat,
		excerptWords:    postsearch.ExcerptWords,
		maxPostsPerPage: DefaultMaxPostsPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Nonces returns the manager the service verifies requests with.
func (s *Service) Nonces() *NonceManager {
	return s.nonces
}

// Handle runs one search. It returns postsearch.ErrInvalidNonce when the nonce
// does not verify; no backend call is made in that case. Short terms yield an
// empty payload. Any other error comes from the searcher.
func (s *Service) Handle(ctx context.Context, req Request) (*postsearch.SearchPayload, error) {
	ctx, span := s.tracer.Start(ctx, "postsearch.handle")
	defer span.End()

	if req.Nonce == "" || !s.nonces.Verify(req.Nonce, postsearch.ActionSearch, req.Session) {
		span.SetStatus(codes.Error, "invalid nonce")
		return nil, postsearch.ErrInvalidNonce
	}

	term := SanitizeText(req.SearchTerm)
	pageSize := ParsePageSize(req.PostsPerPage, postsearch.DefaultPostsPerPage, s.maxPostsPerPage)
	postType := SanitizeText(req.PostType)
	if postType == "" {
		postType = postsearch.DefaultPostType
	}

	span.SetAttributes(
		attribute.Int("postsearch.page_size", pageSize),
		attribute.String("postsearch.post_type", postType),
	)

	if utf8.RuneCountInString(term) < postsearch.MinTermLength {
		return &postsearch.SearchPayload{Posts: []postsearch.PostSummary{}, Found: 0}, nil
	}

	results, err := s.searcher.Search(ctx, term,
		postsearch.WithLimit(pageSize),
		postsearch.OfType(postType),
		postsearch.WithStatus(postsearch.StatusPublished),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.logger.ErrorContext(ctx, "search backend failed", "error", err, "post_type", postType)
		return nil, errors.Wrap(err, "search failed")
	}

	payload := &postsearch.SearchPayload{
		Posts: make([]postsearch.PostSummary, 0, len(results.Items)),
		Found: int(results.Total),
	}
	for _, item := range results.Items {
		payload.Posts = append(payload.Posts, s.summarize(item.Post))
	}
	// A backend that reports fewer matches than it returned is corrected so
	// the count never undercounts the visible list.
	if payload.Found < len(payload.Posts) {
		payload.Found = len(payload.Posts)
	}

	span.SetAttributes(attribute.Int("postsearch.found", payload.Found))
	span.SetStatus(codes.Ok, "search completed")
	return payload, nil
}

func (s *Service) summarize(post postsearch.Post) postsearch.PostSummary {
	excerpt := post.Excerpt
	if excerpt == "" {
		excerpt = post.Content
	}

	summary := postsearch.PostSummary{
		ID:        postsearch.PostID(post.ID),
		Title:     post.Title,
		Excerpt:   TrimWords(excerpt, s.excerptWords, excerptMore),
		Permalink: post.Permalink,
	}
	if !post.Date.IsZero() {
		summary.Date = post.Date.Format(s.dateFormat)
	}
	return summary
}
