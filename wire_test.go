package postsearch

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestPostIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PostID
		wantErr bool
	}{
		{name: "string id", input: `"2N3b"`, want: "2N3b"},
		{name: "numeric id", input: `42`, want: "42"},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id PostID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if id != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, id)
			}
		})
	}
}

func TestDecodeSearchPayload(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantFound int
		wantPosts int
		wantErr   error
	}{
		{
			name:      "success",
			body:      `{"success":true,"data":{"posts":[{"id":7,"title":"Cats","excerpt":"x","permalink":"/cats","date":"May 1, 2024"}],"found":5}}`,
			wantFound: 5,
			wantPosts: 1,
		},
		{
			name:      "success with no posts",
			body:      `{"success":true,"data":{"posts":[],"found":0}}`,
			wantFound: 0,
			wantPosts: 0,
		},
		{
			name:    "failure envelope",
			body:    `{"success":false,"data":{"code":"invalid_nonce","message":"bad"}}`,
			wantErr: ErrRequestRejected,
		},
		{
			name:    "bare failure",
			body:    `{"success":false}`,
			wantErr: ErrRequestRejected,
		},
		{
			name:    "not json",
			body:    `-1`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "missing found",
			body:    `{"success":true,"data":{"posts":[]}}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "missing posts",
			body:    `{"success":true,"data":{"found":3}}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "fractional found",
			body:    `{"success":true,"data":{"posts":[],"found":1.5}}`,
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodeSearchPayload([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if payload.Found != tt.wantFound {
				t.Errorf("Expected found %d, got %d", tt.wantFound, payload.Found)
			}
			if len(payload.Posts) != tt.wantPosts {
				t.Errorf("Expected %d posts, got %d", tt.wantPosts, len(payload.Posts))
			}
		})
	}
}

func TestNewSuccessEnvelopeEmitsEmptyArray(t *testing.T) {
	env, err := NewSuccessEnvelope(&SearchPayload{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := `{"success":true,"data":{"posts":[],"found":0}}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestErrorCodeString(t *testing.T) {
	if got := ErrCodeInvalidNonce.String(); got != "invalid nonce" {
		t.Errorf("Expected 'invalid nonce', got %q", got)
	}
	if got := ErrorCode(1).String(); got != "unknown error" {
		t.Errorf("Expected 'unknown error', got %q", got)
	}
}
