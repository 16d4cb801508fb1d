package service

import (
	"github.com/letmevibethatforyou/postsearch"
	"github.com/segmentio/ksuid"
)

// WidgetOptions are the per-instance settings a host page passes when it renders a widget.
type WidgetOptions struct {
	PostsPerPage int
	PostType     string
	// Endpoint is the URL the widget posts search requests to.
	Endpoint string
	Session  string
}

// NewWidgetContext builds the initial state of one widget instance, including
// a fresh nonce for the visitor's session.
func (s *Service) NewWidgetContext(opts WidgetOptions) postsearch.WidgetContext {
	postsPerPage := opts.PostsPerPage
	if postsPerPage <= 0 {
		postsPerPage = postsearch.DefaultPostsPerPage
	}
	if s.maxPostsPerPage > 0 && postsPerPage > s.maxPostsPerPage {
		postsPerPage = s.maxPostsPerPage
	}
	postType := SanitizeText(opts.PostType)
	if postType == "" {
		postType = postsearch.DefaultPostType
	}

	return postsearch.WidgetContext{
		ID:           "ips-" + ksuid.New().String(),
		Results:      []postsearch.PostSummary{},
		PostsPerPage: postsPerPage,
		PostType:     postType,
		AjaxURL:      opts.Endpoint,
		Nonce:        s.nonces.Issue(postsearch.ActionSearch, opts.Session),
	}
}
