package postsearch

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Form fields of a search request.
const (
	FormAction       = "action"
	FormNonce        = "nonce"
	FormSearchTerm   = "search_term"
	FormPostsPerPage = "posts_per_page"
	FormPostType     = "post_type"
)

// ActionSearch is the action identifier carried by every search request.
// Nonces are issued for this action.
const ActionSearch = "ips_search"

// PostID is an opaque post identifier. It decodes from either a JSON string or
// a JSON number so that clients accept numeric ids from other hosts.
type PostID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PostID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "post id must be a string or a number")
	}
	*id = PostID(n.String())
	return nil
}

// PostSummary is one rendered search result.
type PostSummary struct {
	ID        PostID `json:"id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Permalink string `json:"permalink"`
	Date      string `json:"date"`
}

// SearchPayload is the data of a successful search response.
type SearchPayload struct {
	Posts []PostSummary `json:"posts"`
	// Found is the total match count; it may exceed len(Posts).
	Found int `json:"found"`
}

// Envelope is the top-level response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FailureData is the payload of a failure envelope.
type FailureData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSuccessEnvelope wraps payload in a success envelope.
func NewSuccessEnvelope(payload *SearchPayload) (*Envelope, error) {
	if payload.Posts == nil {
		payload.Posts = []PostSummary{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search payload")
	}
	return &Envelope{Success: true, Data: data}, nil
}

// NewFailureEnvelope builds a failure envelope with a machine-readable code.
func NewFailureEnvelope(code, message string) *Envelope {
	data, _ := json.Marshal(FailureData{Code: code, Message: message})
	return &Envelope{Success: false, Data: data}
}

// DecodeSearchPayload interprets a response body. Only a success envelope whose
// data carries a posts array and an integer found count is accepted; a well-formed
// failure envelope yields ErrRequestRejected and anything else ErrMalformedResponse.
func DecodeSearchPayload(body []byte) (*SearchPayload, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.WithSecondaryError(ErrMalformedResponse, err)
	}
	if !env.Success {
		var failure FailureData
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &failure) == nil && failure.Code != "" {
			return nil, errors.Wrapf(ErrRequestRejected, "%s", failure.Code)
		}
		return nil, ErrRequestRejected
	}

	var raw struct {
		Posts *[]PostSummary `json:"posts"`
		Found *json.Number   `json:"found"`
	}
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, errors.WithSecondaryError(ErrMalformedResponse, err)
	}
	if raw.Posts == nil || raw.Found == nil {
		return nil, errors.Wrap(ErrMalformedResponse, "success envelope is missing posts or found")
	}
	found, err := strconv.Atoi(raw.Found.String())
	if err != nil || found < 0 {
		return nil, errors.Wrapf(ErrMalformedResponse, "found is not a non-negative integer: %q", raw.Found.String())
	}

	return &SearchPayload{Posts: *raw.Posts, Found: found}, nil
}

// WidgetContext is the per-instance configuration and initial state the host
// page bakes into a rendered widget.
type WidgetContext struct {
	ID           string        `json:"id"`
	SearchTerm   string        `json:"searchTerm"`
	Results      []PostSummary `json:"results"`
	IsLoading    bool          `json:"isLoading"`
	HasSearched  bool          `json:"hasSearched"`
	TotalFound   int           `json:"totalFound"`
	PostsPerPage int           `json:"postsPerPage"`
	PostType     string        `json:"postType"`
	AjaxURL      string        `json:"ajaxUrl"`
	Nonce        string        `json:"nonce"`
}
