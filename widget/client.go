package widget

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
)

const maxResponseBytes = 1 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Query is one search request.
type Query struct {
	Term         string
	PostsPerPage int
	PostType     string
}

// Client sends search requests to the search endpoint and interprets the
// responses.
type Client struct {
	endpoint string
	nonce    string
	doer     Doer
}

// NewClient creates a client for endpoint that authenticates with nonce.
// A nil doer uses an http.Client with a ten second timeout.
func NewClient(endpoint, nonce string, doer Doer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, nonce: nonce, doer: doer}
}

// Form returns the form-encoded fields of q.
func (c *Client) Form(q Query) url.Values {
	form := url.Values{}
	form.Set(postsearch.FormAction, postsearch.ActionSearch)
	form.Set(postsearch.FormNonce, c.nonce)
	form.Set(postsearch.FormSearchTerm, q.Term)
	form.Set(postsearch.FormPostsPerPage, strconv.Itoa(q.PostsPerPage))
	form.Set(postsearch.FormPostType, q.PostType)
	return form
}

// Search posts q and returns the payload of a success envelope. Any other
// outcome is an error: postsearch.ErrRequestRejected for a failure envelope,
// postsearch.ErrMalformedResponse for a body that is not an envelope, or the
// transport error.
func (c *Client) Search(ctx context.Context, q Query) (*postsearch.SearchPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(c.Form(q).Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read search response")
	}

	payload, err := postsearch.DecodeSearchPayload(body)
	if err != nil {
		return nil, errors.Wrapf(err, "search endpoint answered %d", resp.StatusCode)
	}
	return payload, nil
}
