package postsearch

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Post field names used by filters, sorting and backend mappings.
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldExcerpt   = "excerpt"
	FieldPermalink = "permalink"
	FieldPostType  = "post_type"
	FieldStatus    = "status"
	FieldDate      = "date"
)

const (
	// MinTermLength is the shortest search term that reaches the backend.
	MinTermLength = 3

	// DefaultPostsPerPage is the page size used when none (or a non-positive one) is given.
	DefaultPostsPerPage = 5

	// DefaultPostType is searched when the request names no post type.
	DefaultPostType = "post"

	// StatusPublished is the only status visible to the search endpoint.
	StatusPublished = "published"

	// ExcerptWords is the word budget of a result excerpt.
	ExcerptWords = 30

	// DebounceDelay is the quiet period after the last keystroke before a search fires.
	DebounceDelay = 500 * time.Millisecond
)

// ErrorCode represents specific error codes for search operations.
type ErrorCode int

const (
	// ErrCodeInvalidNonce is returned when the security token is missing or does not verify.
	ErrCodeInvalidNonce ErrorCode = iota + 1000

	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption

	// ErrCodeInvalidExpression is returned when an invalid expression is provided.
	ErrCodeInvalidExpression

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when the search backend is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeMalformedResponse is returned when a response does not match the success envelope.
	ErrCodeMalformedResponse

	// ErrCodeRequestRejected is returned when the endpoint answers with a failure envelope.
	ErrCodeRequestRejected
)

// String returns the human-readable string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidNonce:
		return "invalid nonce"
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidExpression:
		return "invalid expression"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeMalformedResponse:
		return "malformed response"
	case ErrCodeRequestRejected:
		return "request rejected"
	default:
		return "unknown error"
	}
}

func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Errors returned by the search endpoint, its backends and the widget client.
var (
	ErrInvalidNonce       = newErrorWithCode(ErrCodeInvalidNonce, "postsearch: invalid nonce")
	ErrInvalidOption      = newErrorWithCode(ErrCodeInvalidOption, "postsearch: invalid option")
	ErrInvalidExpression  = newErrorWithCode(ErrCodeInvalidExpression, "postsearch: invalid expression")
	ErrTimeout            = newErrorWithCode(ErrCodeTimeout, "postsearch: operation timed out")
	ErrCanceled           = newErrorWithCode(ErrCodeCanceled, "postsearch: operation canceled")
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "postsearch: backend unavailable")
	ErrMalformedResponse  = newErrorWithCode(ErrCodeMalformedResponse, "postsearch: malformed response")
	ErrRequestRejected    = newErrorWithCode(ErrCodeRequestRejected, "postsearch: request rejected")
)
